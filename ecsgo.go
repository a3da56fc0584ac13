package ecsgo

import (
	"context"
	"reflect"

	"github.com/riftworld/ecsgo/internal/archetype"
	"github.com/riftworld/ecsgo/internal/classindex"
	"github.com/riftworld/ecsgo/internal/entity"
	"github.com/riftworld/ecsgo/internal/handle"
	"github.com/riftworld/ecsgo/internal/pool"
	"github.com/riftworld/ecsgo/internal/query"
)

// Debug enables assertions on programmer contract violations — e.g.
// calling DetachEntity or SetEntityState on an entity that no longer
// belongs to a live archetype — that otherwise fail quietly by returning
// an ErrArchetypeMismatch. Off by default; callers that want loud
// failures during development set this to true (typically in tests, not
// production).
var Debug = false

// World is the public facade over the storage core: a shared handle
// Schema, object pool, component-type index, and archetype registry.
type World struct {
	schema   handle.Schema
	pool     *pool.Pool
	classIdx *classindex.ClassIndex
	registry *archetype.Registry
	logger   *Logger
}

// NewWorld creates a World with the default handle bit layout and pool
// capacities unless overridden by opts.
func NewWorld(opts ...Option) (*World, error) {
	o := applyOptions(opts)

	schema := handle.NewSchema(o.pageBits, o.slotBits)
	p := pool.NewPool(schema, o.pageGrowConcurrency)
	ci := classindex.New(o.componentIndexCapacity)
	reg := archetype.NewRegistry(p, ci, o.freeStackCapacity, o.logger.Logger)

	return &World{
		schema:   schema,
		pool:     p,
		classIdx: ci,
		registry: reg,
		logger:   o.logger,
	}, nil
}

// ArchetypeCount returns the number of distinct archetypes this World
// has created so far.
func (w *World) ArchetypeCount() int { return w.registry.Len() }

// CreateEntity allocates a new entity in the archetype matching
// components' types (creating that archetype if it does not exist yet)
// and registers it.
func (w *World) CreateEntity(ctx context.Context, name string, components ...any) (*entity.Entity, error) {
	types := componentTypes(components)
	comp, created, err := w.registry.GetOrCreate(ctx, types...)
	if err != nil {
		return nil, translateError(err)
	}
	if created {
		w.logger.LogArchetypeCreate(ctx, comp.String())
	}

	e, err := comp.CreateEntity(ctx, name, false, components...)
	if err != nil {
		w.logger.LogEntityCreate(ctx, comp.String(), 0, err)
		return nil, translateError(err)
	}
	w.logger.LogEntityCreate(ctx, comp.String(), e.Handle, nil)
	return e, nil
}

// AttachEntity moves e into the archetype matching components' types,
// drawing a fresh handle from that archetype's Tenant.
func (w *World) AttachEntity(ctx context.Context, e *entity.Entity, components ...any) error {
	types := componentTypes(components)
	comp, created, err := w.registry.GetOrCreate(ctx, types...)
	if err != nil {
		return translateError(err)
	}
	if created {
		w.logger.LogArchetypeCreate(ctx, comp.String())
	}

	if err := comp.AttachEntity(ctx, e, false, components...); err != nil {
		w.logger.LogEntityAttach(ctx, comp.String(), e.Handle, err)
		return translateError(err)
	}
	w.logger.LogEntityAttach(ctx, comp.String(), e.Handle, nil)
	return nil
}

// DetachEntity frees e's handle in its current archetype's Tenant. It
// does not touch e's state chain membership; see DetachEntityAndState.
func (w *World) DetachEntity(ctx context.Context, e *entity.Entity) error {
	comp, err := w.ownerOf(e)
	if err != nil {
		return err
	}
	comp.DetachEntity(e)
	w.logger.LogEntityDetach(ctx, comp.String(), e.Handle)
	return nil
}

// DetachEntityAndState detaches e from its current archetype and, if it
// belongs to a state chain, from that chain too.
func (w *World) DetachEntityAndState(ctx context.Context, e *entity.Entity) error {
	comp, err := w.ownerOf(e)
	if err != nil {
		return err
	}
	comp.DetachEntityAndState(e)
	w.logger.LogEntityDetach(ctx, comp.String(), e.Handle)
	return nil
}

// SetEntityState detaches e from any state chain it currently belongs to
// and, if state is non-nil, attaches it to the chain keyed by state's
// type and ordinal.
func (w *World) SetEntityState(ctx context.Context, e *entity.Entity, state archetype.Ordinal) (*entity.Entity, error) {
	comp, err := w.ownerOf(e)
	if err != nil {
		return nil, err
	}
	e, err = comp.SetEntityState(e, state)
	if err != nil {
		return nil, translateError(err)
	}
	if state != nil {
		classIdx := w.classIdx.GetIndex(reflect.TypeOf(state))
		w.logger.LogStateAttach(ctx, e.Handle, classIdx, state.Ordinal())
	} else {
		w.logger.LogStateDetach(ctx, e.Handle)
	}
	return e, nil
}

// GetEntity looks up the entity currently stored at handle h.
func (w *World) GetEntity(h handle.Handle) (*entity.Entity, bool) {
	obj, ok := w.pool.GetEntry(h)
	if !ok {
		return nil, false
	}
	e, ok := obj.(*entity.Entity)
	if !ok || e.Offset < 0 {
		return nil, false
	}
	return e, true
}

// ownerOf returns e's current owning Composition, or an
// ErrArchetypeMismatch if e does not belong to one — e.g. it was already
// detached. In Debug mode this panics instead.
func (w *World) ownerOf(e *entity.Entity) (*archetype.Composition, error) {
	comp, ok := e.Archetype.(*archetype.Composition)
	if !ok || comp == nil {
		err := &ErrArchetypeMismatch{Entity: e}
		if Debug {
			panic(err)
		}
		return nil, err
	}
	return comp, nil
}

func componentTypes(components []any) []reflect.Type {
	types := make([]reflect.Type, len(components))
	for i, c := range components {
		types[i] = reflect.TypeOf(c)
	}
	return types
}

// typeOf returns the reflect.Type of T without needing a sample value,
// by taking Elem() of a nil *T.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Find1 returns a cursor over every entity in every archetype carrying
// at least a T1 component, chained in archetype-creation order.
func Find1[T1 any](w *World) *query.Chain[query.With1[T1]] {
	t1 := typeOf[T1]()
	comps := w.registry.CompositionsWithAll(t1)
	sources := make([]query.Source[query.With1[T1]], len(comps))
	for i, c := range comps {
		sources[i] = query.NewIterator1[T1](c.Tenant().Iterate(), c, w.schema, c.PositionOf(t1))
	}
	return query.NewChain(sources...)
}

// Find2 returns a cursor over every entity in every archetype carrying at
// least T1 and T2 components, chained in archetype-creation order.
func Find2[T1, T2 any](w *World) *query.Chain[query.With2[T1, T2]] {
	t1, t2 := typeOf[T1](), typeOf[T2]()
	comps := w.registry.CompositionsWithAll(t1, t2)
	sources := make([]query.Source[query.With2[T1, T2]], len(comps))
	for i, c := range comps {
		sources[i] = query.NewIterator2[T1, T2](c.Tenant().Iterate(), c, w.schema, c.PositionOf(t1), c.PositionOf(t2))
	}
	return query.NewChain(sources...)
}

// Find3 returns a cursor over every entity in every archetype carrying at
// least T1, T2, and T3 components, chained in archetype-creation order.
func Find3[T1, T2, T3 any](w *World) *query.Chain[query.With3[T1, T2, T3]] {
	t1, t2, t3 := typeOf[T1](), typeOf[T2](), typeOf[T3]()
	comps := w.registry.CompositionsWithAll(t1, t2, t3)
	sources := make([]query.Source[query.With3[T1, T2, T3]], len(comps))
	for i, c := range comps {
		sources[i] = query.NewIterator3[T1, T2, T3](c.Tenant().Iterate(), c, w.schema, c.PositionOf(t1), c.PositionOf(t2), c.PositionOf(t3))
	}
	return query.NewChain(sources...)
}

// Find4 returns a cursor over every entity in every archetype carrying at
// least T1..T4 components, chained in archetype-creation order.
func Find4[T1, T2, T3, T4 any](w *World) *query.Chain[query.With4[T1, T2, T3, T4]] {
	t1, t2, t3, t4 := typeOf[T1](), typeOf[T2](), typeOf[T3](), typeOf[T4]()
	comps := w.registry.CompositionsWithAll(t1, t2, t3, t4)
	sources := make([]query.Source[query.With4[T1, T2, T3, T4]], len(comps))
	for i, c := range comps {
		sources[i] = query.NewIterator4[T1, T2, T3, T4](c.Tenant().Iterate(), c, w.schema,
			c.PositionOf(t1), c.PositionOf(t2), c.PositionOf(t3), c.PositionOf(t4))
	}
	return query.NewChain(sources...)
}

// Find5 returns a cursor over every entity in every archetype carrying at
// least T1..T5 components, chained in archetype-creation order.
func Find5[T1, T2, T3, T4, T5 any](w *World) *query.Chain[query.With5[T1, T2, T3, T4, T5]] {
	t1, t2, t3, t4, t5 := typeOf[T1](), typeOf[T2](), typeOf[T3](), typeOf[T4](), typeOf[T5]()
	comps := w.registry.CompositionsWithAll(t1, t2, t3, t4, t5)
	sources := make([]query.Source[query.With5[T1, T2, T3, T4, T5]], len(comps))
	for i, c := range comps {
		sources[i] = query.NewIterator5[T1, T2, T3, T4, T5](c.Tenant().Iterate(), c, w.schema,
			c.PositionOf(t1), c.PositionOf(t2), c.PositionOf(t3), c.PositionOf(t4), c.PositionOf(t5))
	}
	return query.NewChain(sources...)
}

// Find6 returns a cursor over every entity in every archetype carrying at
// least T1..T6 components, chained in archetype-creation order.
func Find6[T1, T2, T3, T4, T5, T6 any](w *World) *query.Chain[query.With6[T1, T2, T3, T4, T5, T6]] {
	t1, t2, t3, t4, t5, t6 := typeOf[T1](), typeOf[T2](), typeOf[T3](), typeOf[T4](), typeOf[T5](), typeOf[T6]()
	comps := w.registry.CompositionsWithAll(t1, t2, t3, t4, t5, t6)
	sources := make([]query.Source[query.With6[T1, T2, T3, T4, T5, T6]], len(comps))
	for i, c := range comps {
		sources[i] = query.NewIterator6[T1, T2, T3, T4, T5, T6](c.Tenant().Iterate(), c, w.schema,
			c.PositionOf(t1), c.PositionOf(t2), c.PositionOf(t3), c.PositionOf(t4), c.PositionOf(t5), c.PositionOf(t6))
	}
	return query.NewChain(sources...)
}
