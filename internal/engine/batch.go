package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Request is one package query.
type Request struct {
	RegionID  string         `json:"region"`
	MaxDays   Limit[int]     `json:"max_days"`
	MaxBudget Limit[float64] `json:"max_budget"`
}

// Validate checks the bounds without running a search.
func (r Request) Validate() error {
	return validateBounds(r.MaxDays, r.MaxBudget)
}

// PlanBatch runs independent searches concurrently, at most limit at a time
// (limit <= 0 means one per request). Results come back in request order.
// The first failure cancels the searches still running.
func PlanBatch(ctx context.Context, o *Optimizer, reqs []Request, limit int) ([]*Result, error) {
	for i, r := range reqs {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("request %d (%s): %w", i, r.RegionID, err)
		}
	}

	results := make([]*Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, r := range reqs {
		i, r := i, r
		g.Go(func() error {
			res, err := o.GeneratePackageContext(gctx, r.RegionID, r.MaxDays, r.MaxBudget)
			if err != nil {
				return fmt.Errorf("request %d (%s): %w", i, r.RegionID, err)
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
