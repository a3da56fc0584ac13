// Package ecsgo provides the storage and indexing core of an
// entity-component-system: a paged, id-addressable object pool, an
// archetype registry that groups entities by their component type-set,
// typed-tuple query iteration over those archetypes, and an intrusive
// state index for entities sharing an enum state value.
//
// # Quick Start
//
//	ctx := context.Background()
//	w, err := ecsgo.NewWorld()
//	if err != nil {
//	    panic(err)
//	}
//
//	type Position struct{ X, Y float64 }
//	type Velocity struct{ X, Y float64 }
//
//	e, err := w.CreateEntity(ctx, "player", &Position{}, &Velocity{X: 1})
//
// # Queries
//
// Find1..Find6 fan out across every archetype that carries at least the
// requested component types, in the order those archetypes were first
// created. Tuples hold the stored component values themselves, so only
// pointer components can be updated in place through a tuple:
//
//	for tuple := range ecsgo.Find2[*Position, *Velocity](w).All() {
//	    tuple.Comp1.X += tuple.Comp2.X
//	    tuple.Comp1.Y += tuple.Comp2.Y
//	}
//
// # State chains
//
// Entities sharing an enum-like state value (anything implementing
// Ordinal() int) are linked into an intrusive doubly linked chain per
// archetype, rooted at one entity per (type, ordinal) pair:
//
//	type Phase int
//	const ( PhaseIdle Phase = iota; PhaseRunning )
//	func (p Phase) Ordinal() int { return int(p) }
//
//	w.SetEntityState(ctx, e, PhaseRunning)
//
// # Configuration
//
// NewWorld accepts functional options (WithPageBits, WithFreeStackCapacity,
// WithLogger, ...) for direct construction, or use the fluent Builder for
// a chained configuration style:
//
//	w, err := ecsgo.NewBuilder().
//	    FreeStackCapacity(256).
//	    Logger(ecsgo.NewTextLogger(slog.LevelDebug)).
//	    Build()
//
// # Non-goals
//
// This core does not persist or serialize entities, does not coordinate
// across processes, and makes no guarantee about id-recycling order or
// iteration order across structural edits made concurrently with that
// iteration.
package ecsgo
