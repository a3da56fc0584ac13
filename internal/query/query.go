// Package query implements typed-tuple result iterators: given a
// tenant's page-walking entity iterator and an archetype's fixed
// component positions, produce an arity-indexed family of iterators
// yielding (component..., entity) tuples.
package query

import (
	"iter"

	"github.com/riftworld/ecsgo/internal/entity"
	"github.com/riftworld/ecsgo/internal/handle"
	"github.com/riftworld/ecsgo/internal/pool"
)

// cursor is the shared skip-aware walk over a composition's page
// iterator: it advances until it finds a live entity belonging to comp —
// Archetype matches and Offset is non-negative — tolerating the
// transient leftover records structural edits may leave behind.
type cursor struct {
	pi     *pool.PageIterator
	comp   entity.Composition
	schema handle.Schema
}

func (c *cursor) next() (*entity.Entity, bool) {
	for {
		obj, _, ok := c.pi.Next(c.schema)
		if !ok {
			return nil, false
		}
		e, isEntity := obj.(*entity.Entity)
		if !isEntity || !e.Valid(c.comp) {
			continue
		}
		return e, true
	}
}

// With1 carries one projected component alongside its owning entity.
type With1[T1 any] struct {
	Comp1  T1
	Entity *entity.Entity
}

// Iterator1 yields With1 tuples. Restartable only by obtaining a fresh
// iterator from the archetype.
type Iterator1[T1 any] struct {
	cursor
	idx1 int
}

// NewIterator1 builds an Iterator1 over pi, restricted to entities
// belonging to comp, projecting component position idx1.
func NewIterator1[T1 any](pi *pool.PageIterator, comp entity.Composition, schema handle.Schema, idx1 int) *Iterator1[T1] {
	return &Iterator1[T1]{cursor: cursor{pi: pi, comp: comp, schema: schema}, idx1: idx1}
}

// Next advances the iterator. ok is false once the underlying page
// iterator is exhausted.
func (it *Iterator1[T1]) Next() (tuple With1[T1], ok bool) {
	e, found := it.next()
	if !found {
		return With1[T1]{}, false
	}
	return With1[T1]{Comp1: e.Components[it.idx1].(T1), Entity: e}, true
}

// All returns a range-over-func surface equivalent to Next, mirroring the
// teacher root package's Stream(ctx) iter.Seq2 convention.
func (it *Iterator1[T1]) All() iter.Seq[With1[T1]] {
	return func(yield func(With1[T1]) bool) {
		for {
			tuple, ok := it.Next()
			if !ok || !yield(tuple) {
				return
			}
		}
	}
}

// With2 carries two projected components alongside their owning entity.
type With2[T1, T2 any] struct {
	Comp1  T1
	Comp2  T2
	Entity *entity.Entity
}

// Iterator2 yields With2 tuples.
type Iterator2[T1, T2 any] struct {
	cursor
	idx1, idx2 int
}

// NewIterator2 builds an Iterator2 over pi, restricted to entities
// belonging to comp, projecting component positions idx1 and idx2.
func NewIterator2[T1, T2 any](pi *pool.PageIterator, comp entity.Composition, schema handle.Schema, idx1, idx2 int) *Iterator2[T1, T2] {
	return &Iterator2[T1, T2]{cursor: cursor{pi: pi, comp: comp, schema: schema}, idx1: idx1, idx2: idx2}
}

func (it *Iterator2[T1, T2]) Next() (tuple With2[T1, T2], ok bool) {
	e, found := it.next()
	if !found {
		return With2[T1, T2]{}, false
	}
	return With2[T1, T2]{
		Comp1:  e.Components[it.idx1].(T1),
		Comp2:  e.Components[it.idx2].(T2),
		Entity: e,
	}, true
}

func (it *Iterator2[T1, T2]) All() iter.Seq[With2[T1, T2]] {
	return func(yield func(With2[T1, T2]) bool) {
		for {
			tuple, ok := it.Next()
			if !ok || !yield(tuple) {
				return
			}
		}
	}
}

// With3 carries three projected components alongside their owning entity.
type With3[T1, T2, T3 any] struct {
	Comp1  T1
	Comp2  T2
	Comp3  T3
	Entity *entity.Entity
}

// Iterator3 yields With3 tuples.
type Iterator3[T1, T2, T3 any] struct {
	cursor
	idx1, idx2, idx3 int
}

func NewIterator3[T1, T2, T3 any](pi *pool.PageIterator, comp entity.Composition, schema handle.Schema, idx1, idx2, idx3 int) *Iterator3[T1, T2, T3] {
	return &Iterator3[T1, T2, T3]{cursor: cursor{pi: pi, comp: comp, schema: schema}, idx1: idx1, idx2: idx2, idx3: idx3}
}

func (it *Iterator3[T1, T2, T3]) Next() (tuple With3[T1, T2, T3], ok bool) {
	e, found := it.next()
	if !found {
		return With3[T1, T2, T3]{}, false
	}
	return With3[T1, T2, T3]{
		Comp1:  e.Components[it.idx1].(T1),
		Comp2:  e.Components[it.idx2].(T2),
		Comp3:  e.Components[it.idx3].(T3),
		Entity: e,
	}, true
}

func (it *Iterator3[T1, T2, T3]) All() iter.Seq[With3[T1, T2, T3]] {
	return func(yield func(With3[T1, T2, T3]) bool) {
		for {
			tuple, ok := it.Next()
			if !ok || !yield(tuple) {
				return
			}
		}
	}
}

// With4 carries four projected components alongside their owning entity.
type With4[T1, T2, T3, T4 any] struct {
	Comp1  T1
	Comp2  T2
	Comp3  T3
	Comp4  T4
	Entity *entity.Entity
}

// Iterator4 yields With4 tuples.
type Iterator4[T1, T2, T3, T4 any] struct {
	cursor
	idx1, idx2, idx3, idx4 int
}

func NewIterator4[T1, T2, T3, T4 any](pi *pool.PageIterator, comp entity.Composition, schema handle.Schema, idx1, idx2, idx3, idx4 int) *Iterator4[T1, T2, T3, T4] {
	return &Iterator4[T1, T2, T3, T4]{cursor: cursor{pi: pi, comp: comp, schema: schema}, idx1: idx1, idx2: idx2, idx3: idx3, idx4: idx4}
}

func (it *Iterator4[T1, T2, T3, T4]) Next() (tuple With4[T1, T2, T3, T4], ok bool) {
	e, found := it.next()
	if !found {
		return With4[T1, T2, T3, T4]{}, false
	}
	return With4[T1, T2, T3, T4]{
		Comp1:  e.Components[it.idx1].(T1),
		Comp2:  e.Components[it.idx2].(T2),
		Comp3:  e.Components[it.idx3].(T3),
		Comp4:  e.Components[it.idx4].(T4),
		Entity: e,
	}, true
}

func (it *Iterator4[T1, T2, T3, T4]) All() iter.Seq[With4[T1, T2, T3, T4]] {
	return func(yield func(With4[T1, T2, T3, T4]) bool) {
		for {
			tuple, ok := it.Next()
			if !ok || !yield(tuple) {
				return
			}
		}
	}
}

// With5 carries five projected components alongside their owning entity.
type With5[T1, T2, T3, T4, T5 any] struct {
	Comp1  T1
	Comp2  T2
	Comp3  T3
	Comp4  T4
	Comp5  T5
	Entity *entity.Entity
}

// Iterator5 yields With5 tuples.
type Iterator5[T1, T2, T3, T4, T5 any] struct {
	cursor
	idx1, idx2, idx3, idx4, idx5 int
}

func NewIterator5[T1, T2, T3, T4, T5 any](pi *pool.PageIterator, comp entity.Composition, schema handle.Schema, idx1, idx2, idx3, idx4, idx5 int) *Iterator5[T1, T2, T3, T4, T5] {
	return &Iterator5[T1, T2, T3, T4, T5]{cursor: cursor{pi: pi, comp: comp, schema: schema}, idx1: idx1, idx2: idx2, idx3: idx3, idx4: idx4, idx5: idx5}
}

func (it *Iterator5[T1, T2, T3, T4, T5]) Next() (tuple With5[T1, T2, T3, T4, T5], ok bool) {
	e, found := it.next()
	if !found {
		return With5[T1, T2, T3, T4, T5]{}, false
	}
	return With5[T1, T2, T3, T4, T5]{
		Comp1:  e.Components[it.idx1].(T1),
		Comp2:  e.Components[it.idx2].(T2),
		Comp3:  e.Components[it.idx3].(T3),
		Comp4:  e.Components[it.idx4].(T4),
		Comp5:  e.Components[it.idx5].(T5),
		Entity: e,
	}, true
}

func (it *Iterator5[T1, T2, T3, T4, T5]) All() iter.Seq[With5[T1, T2, T3, T4, T5]] {
	return func(yield func(With5[T1, T2, T3, T4, T5]) bool) {
		for {
			tuple, ok := it.Next()
			if !ok || !yield(tuple) {
				return
			}
		}
	}
}

// With6 carries six projected components alongside their owning entity.
type With6[T1, T2, T3, T4, T5, T6 any] struct {
	Comp1  T1
	Comp2  T2
	Comp3  T3
	Comp4  T4
	Comp5  T5
	Comp6  T6
	Entity *entity.Entity
}

// Iterator6 yields With6 tuples.
type Iterator6[T1, T2, T3, T4, T5, T6 any] struct {
	cursor
	idx1, idx2, idx3, idx4, idx5, idx6 int
}

func NewIterator6[T1, T2, T3, T4, T5, T6 any](pi *pool.PageIterator, comp entity.Composition, schema handle.Schema, idx1, idx2, idx3, idx4, idx5, idx6 int) *Iterator6[T1, T2, T3, T4, T5, T6] {
	return &Iterator6[T1, T2, T3, T4, T5, T6]{cursor: cursor{pi: pi, comp: comp, schema: schema}, idx1: idx1, idx2: idx2, idx3: idx3, idx4: idx4, idx5: idx5, idx6: idx6}
}

func (it *Iterator6[T1, T2, T3, T4, T5, T6]) Next() (tuple With6[T1, T2, T3, T4, T5, T6], ok bool) {
	e, found := it.next()
	if !found {
		return With6[T1, T2, T3, T4, T5, T6]{}, false
	}
	return With6[T1, T2, T3, T4, T5, T6]{
		Comp1:  e.Components[it.idx1].(T1),
		Comp2:  e.Components[it.idx2].(T2),
		Comp3:  e.Components[it.idx3].(T3),
		Comp4:  e.Components[it.idx4].(T4),
		Comp5:  e.Components[it.idx5].(T5),
		Comp6:  e.Components[it.idx6].(T6),
		Entity: e,
	}, true
}

func (it *Iterator6[T1, T2, T3, T4, T5, T6]) All() iter.Seq[With6[T1, T2, T3, T4, T5, T6]] {
	return func(yield func(With6[T1, T2, T3, T4, T5, T6]) bool) {
		for {
			tuple, ok := it.Next()
			if !ok || !yield(tuple) {
				return
			}
		}
	}
}

// Source is satisfied by every IteratorN family: a restartable-only, single
// pass producer of typed tuples. A query naming k component types can match
// more than one archetype — any composition whose type-set is a superset of
// the requested types — so a single IteratorN is not by itself a complete
// query result; Chain is what fans a query out across every composition
// that qualifies.
type Source[T any] interface {
	Next() (T, bool)
}

// Chain concatenates a sequence of Sources into one, draining each in turn
// in the order given — normally archetype creation order, matching
// Registry.CompositionsWithAll — before moving to the next.
type Chain[T any] struct {
	sources []Source[T]
	i       int
}

// NewChain builds a Chain over sources, to be drained in the given order.
func NewChain[T any](sources ...Source[T]) *Chain[T] {
	return &Chain[T]{sources: sources}
}

// Next returns the next tuple from the current source, advancing to
// subsequent sources as each is exhausted. ok is false once every source in
// the chain has been drained.
func (ch *Chain[T]) Next() (tuple T, ok bool) {
	for ch.i < len(ch.sources) {
		tuple, ok = ch.sources[ch.i].Next()
		if ok {
			return tuple, true
		}
		ch.i++
	}
	return tuple, false
}

// All returns a range-over-func surface equivalent to Next.
func (ch *Chain[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			tuple, ok := ch.Next()
			if !ok || !yield(tuple) {
				return
			}
		}
	}
}
