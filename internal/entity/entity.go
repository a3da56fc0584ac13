// Package entity defines the Entity record: a handle plus a back-pointer
// to its owning archetype, the entity's canonically ordered component
// tuple, and its position, if any, within a state chain.
//
// Entity is a thin view over arena-backed storage, not an owning
// container.
package entity

import (
	"fmt"

	"github.com/riftworld/ecsgo/internal/handle"
)

// Composition is implemented by the archetype that owns an Entity's
// component storage. It is kept to the minimum this package needs so that
// internal/entity never imports internal/archetype, which imports this
// package for its Entity records.
type Composition interface {
	fmt.Stringer
}

// StateKey identifies a state chain: the dense class-index of a user enum
// type paired with that enum value's ordinal.
type StateKey struct {
	ClassIndex int
	Ordinal    int
}

// Entity is the externally held record produced by an archetype's
// CreateEntity/AttachEntity. Prev/Next/StateRoot form an intrusive doubly
// linked state chain; they are nil for an entity not currently attached to
// any state.
type Entity struct {
	Handle     handle.Handle
	Archetype  Composition
	Name       string
	Components []any

	// Offset distinguishes a live entity (>= 0) from one whose record is a
	// transient leftover of a structural edit (-1): a detached or
	// in-flight re-registration. Query iteration skips entities with a
	// negative Offset.
	Offset int

	StateRoot *StateKey
	Prev      *Entity
	Next      *Entity
}

// New creates a live Entity (Offset 0) bound to handle h in composition c.
func New(h handle.Handle, c Composition, name string) *Entity {
	return &Entity{Handle: h, Archetype: c, Name: name}
}

// Valid reports whether e currently belongs to composition c and is not a
// transient record: the skip predicate query.Iterator applies per entity.
func (e *Entity) Valid(c Composition) bool {
	return e != nil && e.Archetype == c && e.Offset >= 0
}

// IsStateRoot reports whether e is currently the head of its state chain.
func (e *Entity) IsStateRoot() bool {
	return e.StateRoot != nil
}

// InStateChain reports whether e currently belongs to any state chain,
// whether as root, interior, or tail.
func (e *Entity) InStateChain() bool {
	return e.StateRoot != nil || e.Prev != nil || e.Next != nil
}

func (e *Entity) String() string {
	if e == nil {
		return "Entity[nil]"
	}
	if e.Name != "" {
		return fmt.Sprintf("Entity[%s]", e.Name)
	}
	return fmt.Sprintf("Entity[%d]", e.Handle)
}
