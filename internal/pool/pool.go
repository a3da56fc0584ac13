// Package pool implements ChunkedPool and Tenant: a paged, id-addressable
// object pool and the per-archetype id allocator that draws handles from
// it.
//
// The page table is a SegmentedArray-style atomic-pointer-to-slice:
// appends are serialized by a mutex, but Get is lock-free and sees a
// consistent snapshot via a single atomic load.
package pool

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/riftworld/ecsgo/internal/handle"
)

// ErrPoolExhausted is returned when a new page is requested but the
// handle Schema's page field cannot encode any more page indices.
type ErrPoolExhausted struct {
	MaxPages uint32
}

func (e *ErrPoolExhausted) Error() string {
	return "pool: exhausted, max pages reached"
}

// Pool owns the shared page table for every Tenant drawing handles from
// it. Pages are never moved or freed during the Pool's lifetime; object
// pointers stored in a page remain stable until the slot is overwritten.
type Pool struct {
	schema    handle.Schema
	pages     atomic.Pointer[[]*Page]
	pageCount atomic.Uint32
	growMu    sync.Mutex
	growSem   *semaphore.Weighted
}

// NewPool creates a Pool using the given handle Schema. growConcurrency
// bounds how many page-growth operations (new page allocation) may be in
// flight across all tenants sharing this pool at once; 0 means unbounded.
func NewPool(schema handle.Schema, growConcurrency int64) *Pool {
	p := &Pool{schema: schema}
	empty := make([]*Page, 0, 16)
	p.pages.Store(&empty)
	if growConcurrency > 0 {
		p.growSem = semaphore.NewWeighted(growConcurrency)
	}
	return p
}

// Schema returns the handle bit layout this Pool was constructed with.
func (p *Pool) Schema() handle.Schema { return p.schema }

// PageCount returns the number of pages ever allocated in this Pool.
func (p *Pool) PageCount() uint32 { return p.pageCount.Load() }

// newPage atomically reserves the next page id and installs it in the
// pool's page table, linking its Previous to prev. Fails only when the
// Schema's page field is exhausted.
func (p *Pool) newPage(ctx context.Context, prev *Page) (*Page, error) {
	if p.growSem != nil {
		if err := p.growSem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer p.growSem.Release(1)
	}

	p.growMu.Lock()
	defer p.growMu.Unlock()

	idx := p.pageCount.Load()
	if idx >= p.schema.MaxPages() {
		return nil, &ErrPoolExhausted{MaxPages: p.schema.MaxPages()}
	}

	page := newPage(idx, p.schema.MaxSlots(), prev)

	old := p.pages.Load()
	grown := make([]*Page, len(*old)+1)
	copy(grown, *old)
	grown[len(*old)] = page
	p.pages.Store(&grown)

	p.pageCount.Add(1)
	return page, nil
}

// pageAt returns the page at index idx, or nil if it hasn't been
// allocated. Lock-free: a single atomic load of the page-table snapshot.
func (p *Pool) pageAt(idx uint32) *Page {
	pages := p.pages.Load()
	if pages == nil || int(idx) >= len(*pages) {
		return nil
	}
	return (*pages)[idx]
}

// GetEntry performs an O(1) lookup by pageOf(handle) then slotOf(handle).
// Returns (nil, false) if the slot is empty, never written, or the handle
// carries the detached flag.
func (p *Pool) GetEntry(h handle.Handle) (any, bool) {
	if p.schema.IsDetached(h) {
		return nil, false
	}
	page := p.pageAt(p.schema.PageOf(h))
	if page == nil {
		return nil, false
	}
	return page.get(p.schema.SlotOf(h))
}
