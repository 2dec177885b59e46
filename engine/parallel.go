package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/lloyd/internal/kmeans"
	"github.com/hupe1980/lloyd/internal/partition"
	"github.com/hupe1980/lloyd/model"
)

// assignPartition is the task body of the parallel strategy.
var assignPartition = func(_ context.Context, points []model.Point, centroids []model.Centroid) error {
	kmeans.Assign(points, centroids)
	return nil
}

// RunParallel clusters points with threads goroutines.
//
// Every iteration splits the points into threads disjoint partitions, assigns
// them concurrently on a WorkerPool that lives for the whole run, waits for all
// of them and then recomputes the centroids on the calling goroutine. The
// result is identical to RunSequential.
func RunParallel(ctx context.Context, points []model.Point, k, iterations, threads int, optFns ...Option) (*Result, error) {
	r, err := newRun(StrategyParallel, points, k, iterations, threads, optFns)
	if err != nil {
		return nil, err
	}

	ranges, err := partition.Split(r.set.Len(), threads)
	if err != nil {
		return nil, r.fail(err)
	}

	pool := NewWorkerPool(threads)
	defer pool.Close()

	errs := make([]error, len(ranges))

	err = r.iterate(ctx, func(ctx context.Context, _ int, centroids []model.Centroid) error {
		clear(errs)

		var wg sync.WaitGroup
		for i, rg := range ranges {
			if rg.Empty() {
				continue
			}

			slice := r.set.Slice(rg)

			wg.Add(1)
			task := func() {
				defer wg.Done()
				defer func() {
					if p := recover(); p != nil {
						errs[i] = fmt.Errorf("%w: %v", ErrTaskPanic, p)
					}
				}()
				errs[i] = assignPartition(ctx, slice, centroids)
			}

			if err := pool.Submit(ctx, task); err != nil {
				wg.Done()
				errs[i] = err
				break
			}
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				return &PartitionError{Partition: i, Op: "assign", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return nil, r.fail(err)
	}

	return r.result(), nil
}
