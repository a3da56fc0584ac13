package query

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftworld/ecsgo/internal/archetype"
	"github.com/riftworld/ecsgo/internal/classindex"
	"github.com/riftworld/ecsgo/internal/entity"
	"github.com/riftworld/ecsgo/internal/handle"
	"github.com/riftworld/ecsgo/internal/pool"
)

type c1 struct{ V int }
type c2 struct{ V int }
type c3 struct{ V int }

func newRegistry() *archetype.Registry {
	schema := handle.DefaultSchema()
	p := pool.NewPool(schema, 0)
	ci := classindex.New(0)
	return archetype.NewRegistry(p, ci, 0, nil)
}

func TestQueryArity1(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry()

	comp1, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}))
	require.NoError(t, err)
	comp2, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}), reflect.TypeOf(c2{}))
	require.NoError(t, err)

	e1, err := comp1.CreateEntity(ctx, "", false, c1{V: 0})
	require.NoError(t, err)
	e2, err := comp2.CreateEntity(ctx, "", false, c1{V: 1}, c2{V: 2})
	require.NoError(t, err)

	// find(C1) over comp1's tenant: yields (C1(0), E1).
	it1 := NewIterator1[c1](comp1.Tenant().Iterate(), comp1, handle.DefaultSchema(), comp1.PositionOf(reflect.TypeOf(c1{})))
	tuple, ok := it1.Next()
	require.True(t, ok)
	assert.Equal(t, c1{V: 0}, tuple.Comp1)
	assert.Same(t, e1, tuple.Entity)
	_, ok = it1.Next()
	assert.False(t, ok)

	// find(C1) over comp2's tenant: yields (C1(1), E2).
	it1b := NewIterator1[c1](comp2.Tenant().Iterate(), comp2, handle.DefaultSchema(), comp2.PositionOf(reflect.TypeOf(c1{})))
	tuple2, ok := it1b.Next()
	require.True(t, ok)
	assert.Equal(t, c1{V: 1}, tuple2.Comp1)
	assert.Same(t, e2, tuple2.Entity)

	// find(C2) over comp2's tenant: yields (C2(2), E2).
	it2 := NewIterator1[c2](comp2.Tenant().Iterate(), comp2, handle.DefaultSchema(), comp2.PositionOf(reflect.TypeOf(c2{})))
	tupleC2, ok := it2.Next()
	require.True(t, ok)
	assert.Equal(t, c2{V: 2}, tupleC2.Comp1)
	assert.Same(t, e2, tupleC2.Entity)

	// find(C3) yields nothing: C3 is not a member of either archetype.
	assert.Equal(t, -1, comp2.PositionOf(reflect.TypeOf(c3{})))
}

func TestQueryArity2(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry()

	comp2, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}), reflect.TypeOf(c2{}))
	require.NoError(t, err)
	comp3, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}), reflect.TypeOf(c2{}), reflect.TypeOf(c3{}))
	require.NoError(t, err)

	e1, err := comp2.CreateEntity(ctx, "", false, c1{V: 1}, c2{V: 2})
	require.NoError(t, err)
	e2, err := comp3.CreateEntity(ctx, "", false, c1{V: 3}, c2{V: 4}, c3{V: 5})
	require.NoError(t, err)

	idx1 := comp2.PositionOf(reflect.TypeOf(c1{}))
	idx2 := comp2.PositionOf(reflect.TypeOf(c2{}))
	it := NewIterator2[c1, c2](comp2.Tenant().Iterate(), comp2, handle.DefaultSchema(), idx1, idx2)
	tuple, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, c1{V: 1}, tuple.Comp1)
	assert.Equal(t, c2{V: 2}, tuple.Comp2)
	assert.Same(t, e1, tuple.Entity)
	_, ok = it.Next()
	assert.False(t, ok)

	// find(C2, C3) over comp3's tenant: yields (C2(4), C3(5), E2).
	idxC2 := comp3.PositionOf(reflect.TypeOf(c2{}))
	idxC3 := comp3.PositionOf(reflect.TypeOf(c3{}))
	itC2C3 := NewIterator2[c2, c3](comp3.Tenant().Iterate(), comp3, handle.DefaultSchema(), idxC2, idxC3)
	tupleC2C3, ok := itC2C3.Next()
	require.True(t, ok)
	assert.Equal(t, c2{V: 4}, tupleC2C3.Comp1)
	assert.Equal(t, c3{V: 5}, tupleC2C3.Comp2)
	assert.Same(t, e2, tupleC2C3.Entity)
}

func TestIteratorSkipsDetachedEntities(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry()
	comp, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}))
	require.NoError(t, err)

	e1, err := comp.CreateEntity(ctx, "", false, c1{V: 1})
	require.NoError(t, err)
	e2, err := comp.CreateEntity(ctx, "", false, c1{V: 2})
	require.NoError(t, err)

	comp.DetachEntity(e1)

	it := NewIterator1[c1](comp.Tenant().Iterate(), comp, handle.DefaultSchema(), comp.PositionOf(reflect.TypeOf(c1{})))
	tuple, ok := it.Next()
	require.True(t, ok)
	assert.Same(t, e2, tuple.Entity)
	_, ok = it.Next()
	assert.False(t, ok)
}

func TestChainFansOutAcrossArchetypesInCreationOrder(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry()

	// comp1: {C1} created first, comp2: {C1, C2} created second. Both are
	// supersets of {C1}, so find(C1) must chain comp1's tenant then
	// comp2's, in that order.
	comp1, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}))
	require.NoError(t, err)
	comp2, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}), reflect.TypeOf(c2{}))
	require.NoError(t, err)

	e1, err := comp1.CreateEntity(ctx, "", false, c1{V: 1})
	require.NoError(t, err)
	e2, err := comp2.CreateEntity(ctx, "", false, c1{V: 2}, c2{V: 20})
	require.NoError(t, err)

	matches := reg.CompositionsWithAll(reflect.TypeOf(c1{}))
	require.Len(t, matches, 2)

	sources := make([]Source[With1[c1]], len(matches))
	for i, comp := range matches {
		sources[i] = NewIterator1[c1](comp.Tenant().Iterate(), comp, handle.DefaultSchema(), comp.PositionOf(reflect.TypeOf(c1{})))
	}
	chain := NewChain(sources...)

	var seen []*entity.Entity
	for tuple := range chain.All() {
		seen = append(seen, tuple.Entity)
	}
	require.Len(t, seen, 2)
	assert.Same(t, e1, seen[0])
	assert.Same(t, e2, seen[1])
}

func TestChainFansOutTwoComponentQueryAcrossArchetypes(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry()

	comp2, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}), reflect.TypeOf(c2{}))
	require.NoError(t, err)
	comp3, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}), reflect.TypeOf(c2{}), reflect.TypeOf(c3{}))
	require.NoError(t, err)

	e1, err := comp2.CreateEntity(ctx, "", false, c1{V: 1}, c2{V: 2})
	require.NoError(t, err)
	e2, err := comp3.CreateEntity(ctx, "", false, c1{V: 3}, c2{V: 4}, c3{V: 5})
	require.NoError(t, err)

	matches := reg.CompositionsWithAll(reflect.TypeOf(c1{}), reflect.TypeOf(c2{}))
	require.Len(t, matches, 2)

	sources := make([]Source[With2[c1, c2]], len(matches))
	for i, comp := range matches {
		idx1 := comp.PositionOf(reflect.TypeOf(c1{}))
		idx2 := comp.PositionOf(reflect.TypeOf(c2{}))
		sources[i] = NewIterator2[c1, c2](comp.Tenant().Iterate(), comp, handle.DefaultSchema(), idx1, idx2)
	}
	chain := NewChain(sources...)

	var seen []*entity.Entity
	for tuple := range chain.All() {
		seen = append(seen, tuple.Entity)
	}
	require.Len(t, seen, 2)
	assert.Same(t, e1, seen[0])
	assert.Same(t, e2, seen[1])
}

func TestAllYieldsViaRangeOverFunc(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry()
	comp, _, err := reg.GetOrCreate(ctx, reflect.TypeOf(c1{}))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := comp.CreateEntity(ctx, "", false, c1{V: i})
		require.NoError(t, err)
	}

	it := NewIterator1[c1](comp.Tenant().Iterate(), comp, handle.DefaultSchema(), comp.PositionOf(reflect.TypeOf(c1{})))
	var seen []int
	for tuple := range it.All() {
		seen = append(seen, tuple.Comp1.V)
	}
	assert.Equal(t, []int{0, 1, 2}, seen)
}
