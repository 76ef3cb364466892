package simulation

import (
	"context"
	"runtime"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"durasim/internal/config"
)

// Sweep runs every scenario on its own store, at most parallelism at a
// time. Results are returned in input order. The first error cancels
// scenarios that have not started yet.
func Sweep(ctx context.Context, scenarios []config.Scenario, parallelism int, opts Options) ([]Result, error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, s := range scenarios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := Run(s, opts)
			if err != nil {
				return errors.Wrapf(err, "scenario %d %q", i, s.Name)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
