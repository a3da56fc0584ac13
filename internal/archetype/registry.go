package archetype

import (
	"context"
	"encoding/binary"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/riftworld/ecsgo/internal/classindex"
	"github.com/riftworld/ecsgo/internal/handle"
	"github.com/riftworld/ecsgo/internal/pool"
)

// Registry memoizes the unique Composition for a given component
// type-set, keyed by a canonical encoding of the type-set's sorted
// class-index list — so repeated GetOrCreate calls with the same types in
// any order return the same Composition without re-walking known
// archetypes.
type Registry struct {
	mu                sync.RWMutex
	byKey             map[string]*Composition
	order             []*Composition
	classIndex        *classindex.ClassIndex
	pool              *pool.Pool
	schema            handle.Schema
	freeStackCapacity int
	logger            *slog.Logger
}

// NewRegistry creates an archetype registry drawing tenants from p and
// component ids from ci. freeStackCapacity is forwarded to every Tenant
// this registry creates (0 selects pool.DefaultFreeStackCapacity).
func NewRegistry(p *pool.Pool, ci *classindex.ClassIndex, freeStackCapacity int, logger *slog.Logger) *Registry {
	return &Registry{
		byKey:             make(map[string]*Composition),
		classIndex:        ci,
		pool:              p,
		schema:            p.Schema(),
		freeStackCapacity: freeStackCapacity,
		logger:            logger,
	}
}

type typeIndex struct {
	idx int
	typ reflect.Type
}

// GetOrCreate returns the unique Composition for componentTypes,
// canonicalising their order by ascending class-index, creating a fresh
// Composition (and its own Tenant) if this exact type-set has not been
// seen before. created reports whether this call was the one that
// created it, so callers can log archetype-creation events exactly once
// at their own layer rather than duplicating that log here.
func (r *Registry) GetOrCreate(ctx context.Context, componentTypes ...reflect.Type) (c *Composition, created bool, err error) {
	pairs := make([]typeIndex, len(componentTypes))
	for i, t := range componentTypes {
		idx, err := r.classIndex.GetIndexOrAddClass(t)
		if err != nil {
			return nil, false, err
		}
		pairs[i] = typeIndex{idx: idx, typ: t}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].idx < pairs[j].idx })

	sortedTypes := make([]reflect.Type, len(pairs))
	key := make([]byte, 0, len(pairs)*4)
	for i, p := range pairs {
		sortedTypes[i] = p.typ
		key = binary.LittleEndian.AppendUint32(key, uint32(p.idx))
	}
	ks := string(key)

	r.mu.RLock()
	if existing, ok := r.byKey[ks]; ok {
		r.mu.RUnlock()
		return existing, false, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byKey[ks]; ok {
		return existing, false, nil
	}

	tenant, err := pool.New(ctx, r.pool, r.freeStackCapacity, r.logger)
	if err != nil {
		return nil, false, err
	}
	c = New(r, tenant, r.classIndex, r.schema, r.logger, sortedTypes...)
	r.byKey[ks] = c
	r.order = append(r.order, c)
	return c, true, nil
}

// Len returns the number of distinct compositions this registry has
// created.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}

// CompositionsWithAll returns every composition registered so far whose
// component type-set is a superset of types, in the order those
// compositions were first created. Queries fan out over this slice to
// answer "find every entity with at least these component types",
// spanning every archetype that satisfies it rather than just one.
func (r *Registry) CompositionsWithAll(types ...reflect.Type) []*Composition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*Composition, 0, len(r.order))
	for _, c := range r.order {
		if hasAll(c, types) {
			matches = append(matches, c)
		}
	}
	return matches
}

func hasAll(c *Composition, types []reflect.Type) bool {
	for _, t := range types {
		if c.PositionOf(t) < 0 {
			return false
		}
	}
	return true
}
