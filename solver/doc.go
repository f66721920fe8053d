// Package solver selects and runs tree backends.
//
// A Registry holds one factory per backend name and probes each backend at
// most once (until Reset). Resolve returns the first available backend of
// the priority list; Chain returns all of them as a single backend that
// hands a graph to the next member when the current one cannot take it.
// Backends that are not thread-safe come out of the registry behind a mutex
// or a Pool of instances, so everything it returns may be shared.
//
// RunBatch fans a list of jobs out over a bounded number of goroutines.
//
//	reg := solver.DefaultRegistry(solver.Defaults{}, solver.WithLogger(log))
//	b, err := reg.Chain(ctx)
//	res, err := b.ComputeTree(ctx, g, core.DefaultOptions())
package solver
