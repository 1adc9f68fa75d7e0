// Package schelling implements the Schelling segregation model on a square grid.
//
// The package defines the grid state and the per-step mutation logic:
//
//   - [Grid]: fixed n×n board of [Cell] values (empty, group A, group B)
//   - [Populate]: builds a shuffled grid from population ratios
//   - [IsHappy]: Moore-neighbourhood satisfaction predicate
//   - [UnhappyCells]: row-major scan of unsatisfied agents
//   - [Step]: relocates one unhappy agent to a random empty cell
//   - [Simulator]: drives steps until convergence, budget or cancellation
//
// # Example
//
//	rng := rand.New(rand.NewSource(seed))
//	g, _ := schelling.Populate(50, schelling.DefaultRatios(), rng)
//	sim := schelling.New()
//	result, _ := sim.Run(ctx, g, rng, schelling.DefaultConfig())
//
// # Randomness
//
// All randomness flows through the [Rand] passed in by the caller. A run consumes
// it in a fixed order (the initial shuffle, then two draws per relocation), so
// seeding the source once reproduces the run exactly.
//
// # Thread Safety
//
// A Grid is owned by a single run. Simulator and Grid are NOT thread-safe.
package schelling
