package media

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ProbeAll probes several source files concurrently, at most limit subprocesses
// at a time. Results are indexed like paths. The first probe error cancels the
// remaining probes and is returned.
func ProbeAll(ctx context.Context, runner Runner, paths []string, limit int) ([]*ProbeResult, error) {
	if limit <= 0 {
		limit = 4
	}

	results := make([]*ProbeResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			res, err := runner.Probe(ctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
