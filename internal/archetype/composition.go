// Package archetype implements DataComposition: the per-archetype
// columnar home for entities sharing one component type-set, plus the
// Registry that memoizes the unique composition for a given type-set.
package archetype

import (
	"context"
	"log/slog"
	"reflect"
	"strings"

	"github.com/riftworld/ecsgo/internal/classindex"
	"github.com/riftworld/ecsgo/internal/entity"
	"github.com/riftworld/ecsgo/internal/handle"
	"github.com/riftworld/ecsgo/internal/pool"
	"github.com/riftworld/ecsgo/internal/stateindex"
)

// Ordinal is implemented by user-defined enum-like state types. It is the
// Go analogue of Java's Enum.ordinal(): the value's dense position within
// its own type, used together with the type's class-index to form a
// entity.StateKey.
type Ordinal interface {
	Ordinal() int
}

// Composition is the archetype: an ordered component type list
// canonicalised by ascending class-index, a reverse index from
// class-index to tuple position, an owned Tenant drawing handles from the
// shared Pool, and a state index for entities currently attached to a
// state chain within this archetype.
type Composition struct {
	repository     *Registry
	tenant         *pool.Tenant
	classIndex     *classindex.ClassIndex
	schema         handle.Schema
	logger         *slog.Logger
	componentTypes []reflect.Type
	componentIndex []int
	states         *stateindex.Index
}

// New constructs a Composition for the given canonically ordered
// component types. Callers (normally Registry.GetOrCreate) are
// responsible for ensuring componentTypes is already sorted ascending by
// class-index.
func New(repo *Registry, tenant *pool.Tenant, ci *classindex.ClassIndex, schema handle.Schema, logger *slog.Logger, componentTypes ...reflect.Type) *Composition {
	c := &Composition{
		repository:     repo,
		tenant:         tenant,
		classIndex:     ci,
		schema:         schema,
		logger:         logger,
		componentTypes: componentTypes,
		states:         stateindex.New(),
	}
	if c.IsMultiComponent() {
		c.componentIndex = make([]int, ci.Capacity())
		for i := range c.componentIndex {
			c.componentIndex[i] = -1
		}
		// Callers assign every componentTypes entry its class-index before
		// constructing a Composition (Registry.GetOrCreate does so to build
		// the canonical sort key), so GetIndex here always hits.
		for i, t := range componentTypes {
			c.componentIndex[ci.GetIndex(t)] = i
		}
	}
	return c
}

// Length returns the number of component types this archetype carries.
func (c *Composition) Length() int { return len(c.componentTypes) }

// IsMultiComponent reports whether this archetype carries more than one
// component type — the threshold below which sorting and reverse-index
// lookups are skipped entirely.
func (c *Composition) IsMultiComponent() bool { return len(c.componentTypes) > 1 }

// ComponentTypes returns the archetype's canonical component type order.
func (c *Composition) ComponentTypes() []reflect.Type { return c.componentTypes }

// Tenant returns the id allocator backing this archetype's entities.
func (c *Composition) Tenant() *pool.Tenant { return c.tenant }

// States returns this archetype's state index.
func (c *Composition) States() *stateindex.Index { return c.states }

// PositionOf returns the tuple position of component type t within this
// archetype's canonical ordering, or -1 if t is not a member.
func (c *Composition) PositionOf(t reflect.Type) int {
	if !c.IsMultiComponent() {
		if len(c.componentTypes) == 1 && c.componentTypes[0] == t {
			return 0
		}
		return -1
	}
	return c.componentIndex[c.classIndex.GetIndex(t)]
}

// sortInPlace reorders components into this archetype's canonical
// positions by repeated swap: each element is moved to its target index,
// displacing whatever sat there; a final pass re-checks position 0, which
// a single forward pass can leave unsettled.
func (c *Composition) sortInPlace(components []any) []any {
	for i := range components {
		newIdx := c.PositionOf(reflect.TypeOf(components[i]))
		if newIdx != i {
			components[i], components[newIdx] = components[newIdx], components[i]
		}
	}
	if newIdx := c.PositionOf(reflect.TypeOf(components[0])); newIdx > 0 {
		components[0], components[newIdx] = components[newIdx], components[0]
	}
	return components
}

// CreateEntity allocates a handle from this archetype's tenant, builds an
// Entity record, canonically sorts components (unless prepared is true or
// this archetype has at most one component type), and registers it.
func (c *Composition) CreateEntity(ctx context.Context, name string, prepared bool, components ...any) (*entity.Entity, error) {
	h, err := c.tenant.NextID(ctx)
	if err != nil {
		return nil, err
	}
	if !prepared && c.IsMultiComponent() {
		components = c.sortInPlace(components)
	}
	e := entity.New(h, c, name)
	e.Components = components
	c.tenant.Register(h, e)
	if c.logger != nil {
		c.logger.Debug("archetype: entity created", "composition", c.String(), "handle", h)
	}
	return e, nil
}

// AttachEntity moves an existing entity into this archetype: a fresh
// handle is drawn from this archetype's tenant, the entity's archetype
// back-pointer is rebound, and components are sorted and installed as in
// CreateEntity.
func (c *Composition) AttachEntity(ctx context.Context, e *entity.Entity, prepared bool, components ...any) error {
	h, err := c.tenant.NextID(ctx)
	if err != nil {
		return err
	}
	if !prepared && c.IsMultiComponent() {
		components = c.sortInPlace(components)
	}
	e.Handle = h
	e.Archetype = c
	e.Offset = 0
	e.Components = components
	c.tenant.Register(h, e)
	if c.logger != nil {
		c.logger.Debug("archetype: entity attached", "composition", c.String(), "handle", h)
	}
	return nil
}

// DetachEntity frees e's handle in this archetype's tenant and marks the
// entity's stored handle detached. It does not touch e's state chain; use
// DetachEntityAndState when the entity may be part of one.
func (c *Composition) DetachEntity(e *entity.Entity) {
	c.tenant.FreeID(e.Handle)
	e.Handle = c.schema.WithDetached(e.Handle)
	e.Offset = -1
	e.Archetype = nil
	if c.logger != nil {
		c.logger.Debug("archetype: entity detached", "composition", c.String())
	}
}

// DetachEntityAndState detaches e from this archetype and, if e currently
// belongs to a state chain, detaches it from that chain too.
func (c *Composition) DetachEntityAndState(e *entity.Entity) {
	c.DetachEntity(e)
	if e.InStateChain() {
		c.states.Detach(e)
	}
}

// SetEntityState detaches e from any state chain it currently belongs to
// and, if state is non-nil, attaches it to the chain keyed by state's
// type (lazily assigned a class-index) and Ordinal.
func (c *Composition) SetEntityState(e *entity.Entity, state Ordinal) (*entity.Entity, error) {
	c.states.Detach(e)
	if state != nil {
		t := reflect.TypeOf(state)
		idx := c.classIndex.GetIndex(t)
		if idx == 0 {
			var err error
			idx, err = c.classIndex.GetIndexOrAddClass(t)
			if err != nil {
				return nil, err
			}
		}
		key := entity.StateKey{ClassIndex: idx, Ordinal: state.Ordinal()}
		c.states.Attach(key, e)
	}
	return e, nil
}

func (c *Composition) String() string {
	if len(c.componentTypes) == 0 {
		return "Composition=[]"
	}
	names := make([]string, len(c.componentTypes))
	for i, t := range c.componentTypes {
		names[i] = t.Name()
	}
	return "Composition=[" + strings.Join(names, ", ") + "]"
}
