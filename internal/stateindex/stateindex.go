// Package stateindex implements intrusive state chains: a concurrent map
// from a (class-index, ordinal) key to the entity at the head of that
// state's chain, plus the doubly linked splice operations that keep
// exactly one root per key.
package stateindex

import (
	"sync"

	"github.com/riftworld/ecsgo/internal/entity"
)

// Index is one archetype's state-key -> root-entity map. A single mutex
// guards both the map and the chain links it points into: the
// attach/detach semantics fall out of any one method holding that mutex
// for its whole critical section, and Detach's root-vs-interior branch
// is re-evaluated after the lock is held rather than before, so a
// concurrent Attach on the same key cannot race past it unnoticed.
type Index struct {
	mu    sync.RWMutex
	roots map[entity.StateKey]*entity.Entity
}

// New creates an empty state index.
func New() *Index {
	return &Index{roots: make(map[entity.StateKey]*entity.Entity)}
}

// Root returns the current root entity for key, or nil if no entity is
// attached under it.
func (idx *Index) Root(key entity.StateKey) *entity.Entity {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.roots[key]
}

// Len returns the number of distinct state keys currently attached.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.roots)
}

// Attach implements the attach protocol: e becomes root for key, demoting
// the previous root (if any) to e.Prev.
func (idx *Index) Attach(key entity.StateKey, e *entity.Entity) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	old, exists := idx.roots[key]
	if !exists {
		idx.roots[key] = e
		e.StateRoot = &key
		return
	}
	if old == e {
		return
	}

	e.Prev = old
	e.StateRoot = &key
	old.Next = e
	old.StateRoot = nil
	idx.roots[key] = e
}

// Detach removes e from whatever state chain it belongs to, if any. It is
// a no-op if e is not attached to a chain.
func (idx *Index) Detach(e *entity.Entity) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if e.StateRoot != nil {
		key := *e.StateRoot
		if e.Prev == nil {
			delete(idx.roots, key)
			e.StateRoot = nil
			return
		}

		prev := e.Prev
		if idx.roots[key] == e {
			idx.roots[key] = prev
		}
		e.StateRoot = nil
		e.Prev = nil
		prev.Next = nil
		prev.StateRoot = &key
		return
	}

	// Interior or tail: re-read the links under the lock and splice e out.
	next := e.Next
	prev := e.Prev
	if next != nil {
		next.Prev = prev
	}
	if prev != nil {
		prev.Next = next
	}
	e.Prev = nil
	e.Next = nil
}

// Iterator walks prev links from a chain's root entity. It is
// single-threaded and not safe for concurrent use.
type Iterator struct {
	next *entity.Entity
}

// NewIterator returns an Iterator starting at root.
func NewIterator(root *entity.Entity) *Iterator {
	return &Iterator{next: root}
}

// HasNext reports whether another entity remains in the chain.
func (it *Iterator) HasNext() bool {
	return it.next != nil
}

// Next returns the next entity in the chain, advancing the cursor toward
// the tail via Prev links.
func (it *Iterator) Next() *entity.Entity {
	cur := it.next
	it.next = cur.Prev
	return cur
}
