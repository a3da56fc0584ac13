// Package classindex assigns dense, small, non-negative integer ids to
// component (and state-enum) types.
//
// The registry follows edwinsyarief/teishoku's component registry idiom:
// a reflect.Type -> dense id map guarded by a mutex.
package classindex

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// DefaultCapacity is the default ClassIndex capacity. Index 0 is never
// assigned, so a ClassIndex of capacity n assigns ids to at most n-1
// distinct types (1023 by default) before exhausting.
const DefaultCapacity = 1024

// ErrClassIndexExhausted reports that a ClassIndex has already assigned
// every id its capacity allows and cannot register a new type.
type ErrClassIndexExhausted struct {
	Capacity int
}

func (e *ErrClassIndexExhausted) Error() string {
	return fmt.Sprintf("classindex: capacity of %d distinct types exhausted", e.Capacity)
}

// ClassIndex assigns dense ids in [1, capacity) to distinct types. Index 0
// is never assigned; GetIndex returns 0 for an unknown type.
type ClassIndex struct {
	mu       sync.RWMutex
	byType   map[reflect.Type]int
	assigned *bitset.BitSet
	next     int
	capacity int
}

// New creates a ClassIndex with the given capacity (COMPONENT_INDEX_CAPACITY).
func New(capacity int) *ClassIndex {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ClassIndex{
		byType:   make(map[reflect.Type]int, capacity/4),
		assigned: bitset.New(uint(capacity)),
		next:     1,
		capacity: capacity,
	}
}

// GetIndex returns the dense index for t, or 0 if t has not been
// registered yet.
func (c *ClassIndex) GetIndex(t reflect.Type) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byType[t]
}

// GetIndexOrAddClass returns the dense index for t, assigning a fresh one
// if t has not been seen before. Returns ErrClassIndexExhausted if every
// id this ClassIndex's capacity allows is already assigned to some other
// type.
func (c *ClassIndex) GetIndexOrAddClass(t reflect.Type) (int, error) {
	c.mu.RLock()
	if idx, ok := c.byType[t]; ok {
		c.mu.RUnlock()
		return idx, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.byType[t]; ok {
		return idx, nil
	}
	if c.next >= c.capacity {
		return 0, &ErrClassIndexExhausted{Capacity: c.capacity}
	}
	idx := c.next
	c.next++
	c.byType[t] = idx
	c.assigned.Set(uint(idx))
	return idx, nil
}

// Capacity returns the configured capacity. Ids are assigned from
// [1, capacity), so at most capacity-1 distinct types can be registered.
func (c *ClassIndex) Capacity() int {
	return c.capacity
}

// Len returns the number of types currently assigned an index.
func (c *ClassIndex) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int(c.assigned.Count())
}
