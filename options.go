package ecsgo

import (
	"github.com/riftworld/ecsgo/internal/classindex"
	"github.com/riftworld/ecsgo/internal/handle"
)

type options struct {
	pageBits               uint
	slotBits               uint
	freeStackCapacity      int
	componentIndexCapacity int
	pageGrowConcurrency    int64
	logger                 *Logger
}

// Option configures NewWorld's construction behavior.
//
// Today options primarily exist to avoid exploding World's constructor
// signature with positional capacity/logging parameters.
type Option func(*options)

// WithPageBits overrides the handle Schema's page field width. Default:
// handle.DefaultPageBits (14, 16,384 pages).
func WithPageBits(n uint) Option {
	return func(o *options) { o.pageBits = n }
}

// WithSlotBits overrides the handle Schema's slot field width. Default:
// handle.DefaultSlotBits (16, 65,536 slots/page).
func WithSlotBits(n uint) Option {
	return func(o *options) { o.slotBits = n }
}

// WithFreeStackCapacity overrides the per-archetype Tenant free-stack
// bound. Default: pool.DefaultFreeStackCapacity (1024).
func WithFreeStackCapacity(n int) Option {
	return func(o *options) { o.freeStackCapacity = n }
}

// WithComponentIndexCapacity overrides the ClassIndex's capacity. Index 0
// is never assigned, so a World with capacity n can register at most n-1
// distinct component and state types. Default: classindex.DefaultCapacity
// (1024, admitting 1023 types).
func WithComponentIndexCapacity(n int) Option {
	return func(o *options) { o.componentIndexCapacity = n }
}

// WithPageGrowConcurrency bounds how many page-growth operations may be
// in flight across every archetype's Tenant sharing this World's pool at
// once. 0 (the default) means unbounded.
func WithPageGrowConcurrency(n int64) Option {
	return func(o *options) { o.pageGrowConcurrency = n }
}

// WithLogger configures structured logging for World operations. Pass
// nil to disable logging entirely (NoopLogger is used).
func WithLogger(logger *Logger) Option {
	return func(o *options) { o.logger = logger }
}

func applyOptions(optFns []Option) options {
	o := options{
		pageBits:               handle.DefaultPageBits,
		slotBits:               handle.DefaultSlotBits,
		freeStackCapacity:      0, // 0 selects pool.DefaultFreeStackCapacity
		componentIndexCapacity: classindex.DefaultCapacity,
		logger:                 NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
