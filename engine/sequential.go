package engine

import (
	"context"

	"github.com/hupe1980/lloyd/internal/kmeans"
	"github.com/hupe1980/lloyd/model"
)

// RunSequential clusters points on the calling goroutine.
//
// The context is checked between iterations.
func RunSequential(ctx context.Context, points []model.Point, k, iterations int, optFns ...Option) (*Result, error) {
	r, err := newRun(StrategySequential, points, k, iterations, 1, optFns)
	if err != nil {
		return nil, err
	}

	all := r.set.Slice(model.Range{Start: 0, End: r.set.Len()})

	err = r.iterate(ctx, func(_ context.Context, _ int, centroids []model.Centroid) error {
		kmeans.Assign(all, centroids)
		return nil
	})
	if err != nil {
		return nil, r.fail(err)
	}

	return r.result(), nil
}
