package archetype

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftworld/ecsgo/internal/classindex"
	"github.com/riftworld/ecsgo/internal/handle"
	"github.com/riftworld/ecsgo/internal/pool"
)

type c1 struct{ V int }
type c2 struct{ V int }
type c3 struct{ V int }

type testState int

const (
	stateIdle testState = iota
	stateRunning
)

func (s testState) Ordinal() int { return int(s) }

func newRegistry(t *testing.T) *Registry {
	schema := handle.DefaultSchema()
	p := pool.NewPool(schema, 0)
	ci := classindex.New(0)
	return NewRegistry(p, ci, 0, nil)
}

func TestCreateEmptyEntityLookupRoundTrips(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	comp, _, err := reg.GetOrCreate(ctx)
	require.NoError(t, err)

	e, err := comp.CreateEntity(ctx, "", false)
	require.NoError(t, err)

	assert.Empty(t, comp.ComponentTypes())
	got, ok := comp.Tenant().Pool().GetEntry(e.Handle)
	require.True(t, ok)
	assert.Same(t, e, got)
}

func TestCreateSingleComponentEntity(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	comp, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}))
	require.NoError(t, err)

	e, err := comp.CreateEntity(ctx, "", false, c1{V: 0})
	require.NoError(t, err)

	require.Len(t, e.Components, 1)
	assert.Equal(t, c1{V: 0}, e.Components[0])

	got, ok := comp.Tenant().Pool().GetEntry(e.Handle)
	require.True(t, ok)
	assert.Same(t, e, got)
}

func TestCreateEntityOrderInvariance(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	comp1, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}), reflect.TypeOf(c2{}))
	require.NoError(t, err)
	comp2, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c2{}), reflect.TypeOf(c1{}))
	require.NoError(t, err)
	require.Same(t, comp1, comp2, "registry must memoize by type-set regardless of argument order")

	e1, err := comp1.CreateEntity(ctx, "", false, c1{V: 0}, c2{V: 0})
	require.NoError(t, err)
	e2, err := comp1.CreateEntity(ctx, "", false, c2{V: 0}, c1{V: 0})
	require.NoError(t, err)

	assert.Equal(t, []any{c1{V: 0}, c2{V: 0}}, e1.Components)
	assert.Equal(t, []any{c1{V: 0}, c2{V: 0}}, e2.Components)
}

func TestDestroyAndReuseSlot(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	comp, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}))
	require.NoError(t, err)

	e1, err := comp.CreateEntity(ctx, "", false, c1{V: 1})
	require.NoError(t, err)
	e2, err := comp.CreateEntity(ctx, "", false, c1{V: 2})
	require.NoError(t, err)
	e2Handle := e2.Handle

	comp.DetachEntity(e1)

	assert.Nil(t, e1.Archetype)
	_, ok := comp.Tenant().Pool().GetEntry(e1.Handle)
	assert.False(t, ok)

	got2, ok := comp.Tenant().Pool().GetEntry(e2Handle)
	require.True(t, ok)
	assert.Same(t, e2, got2)
	assert.Equal(t, e2Handle, e2.Handle)
}

func TestPositionOfUnknownTypeIsNegativeOne(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	comp, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}), reflect.TypeOf(c2{}))
	require.NoError(t, err)

	assert.Equal(t, -1, comp.PositionOf(reflect.TypeOf(c3{})))
}

func TestAttachEntityMovesAcrossArchetypes(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	src, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}))
	require.NoError(t, err)
	dst, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}), reflect.TypeOf(c2{}))
	require.NoError(t, err)

	e, err := src.CreateEntity(ctx, "", false, c1{V: 7})
	require.NoError(t, err)
	oldHandle := e.Handle

	err = dst.AttachEntity(ctx, e, false, c2{V: 8}, c1{V: 7})
	require.NoError(t, err)

	assert.Same(t, dst, e.Archetype)
	assert.NotEqual(t, oldHandle, e.Handle)
	assert.Equal(t, []any{c1{V: 7}, c2{V: 8}}, e.Components)

	got, ok := dst.Tenant().Pool().GetEntry(e.Handle)
	require.True(t, ok)
	assert.Same(t, e, got)
}

func TestSetEntityStateAttachesAndDetaches(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()
	comp, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}))
	require.NoError(t, err)

	e1, err := comp.CreateEntity(ctx, "", false, c1{V: 0})
	require.NoError(t, err)
	e2, err := comp.CreateEntity(ctx, "", false, c1{V: 0})
	require.NoError(t, err)

	_, err = comp.SetEntityState(e1, stateRunning)
	require.NoError(t, err)
	_, err = comp.SetEntityState(e2, stateRunning)
	require.NoError(t, err)

	key := e2.StateRoot
	require.NotNil(t, key)
	assert.Same(t, e2, comp.States().Root(*key))

	_, err = comp.SetEntityState(e2, nil)
	require.NoError(t, err)
	assert.Same(t, e1, comp.States().Root(*key))
}

func TestGetOrCreatePropagatesClassIndexExhaustion(t *testing.T) {
	schema := handle.DefaultSchema()
	p := pool.NewPool(schema, 0)
	ci := classindex.New(1) // index 0 is never assigned, so capacity 1 admits nothing
	reg := NewRegistry(p, ci, 0, nil)

	ctx := context.Background()
	_, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}))
	var exhausted *classindex.ErrClassIndexExhausted
	require.ErrorAs(t, err, &exhausted)
}

func TestSetEntityStatePropagatesClassIndexExhaustion(t *testing.T) {
	schema := handle.DefaultSchema()
	p := pool.NewPool(schema, 0)
	ci := classindex.New(2)
	reg := NewRegistry(p, ci, 0, nil)
	ctx := context.Background()

	comp, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}))
	require.NoError(t, err)
	e, err := comp.CreateEntity(ctx, "", false, c1{V: 0})
	require.NoError(t, err)

	// c1's type already consumed the only assignable index; a distinct
	// state type has nowhere left to register.
	_, err = comp.SetEntityState(e, stateRunning)
	var exhausted *classindex.ErrClassIndexExhausted
	require.ErrorAs(t, err, &exhausted)
}
