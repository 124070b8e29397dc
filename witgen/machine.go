package witgen

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Machine is one independently-schedulable witness-generation unit: either
// the main VM processor, or a secondary machine serving plookup/permutation
// outer queries from other machines (spec.md §5). Each machine owns its own
// row arena; they communicate only through MachineRuntime.TryOuterQuery
// calls, never shared mutable row state, so independent machines can run
// concurrently.
type Machine interface {
	Name() string
	Run(ctx context.Context) error
}

// RunIndependent runs every machine concurrently and waits for all of them,
// returning the first error encountered (spec.md §5's "independent machines
// may be scheduled concurrently"). It cancels the shared context as soon as
// any machine fails, so sibling machines stop promptly instead of running
// to completion on work that is already doomed.
func RunIndependent(ctx context.Context, machines []Machine) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range machines {
		m := m
		g.Go(func() error {
			return m.Run(gctx)
		})
	}
	return g.Wait()
}
