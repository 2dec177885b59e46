package engine

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/hupe1980/lloyd/internal/kmeans"
	"github.com/hupe1980/lloyd/internal/pointset"
	"github.com/hupe1980/lloyd/model"
)

// assignFunc assigns one iteration's clusters for the whole point set.
type assignFunc func(ctx context.Context, iteration int, centroids []model.Centroid) error

// run is the state shared by every strategy: the point set, the current
// centroids and the per-iteration bookkeeping.
type run struct {
	strategy   Strategy
	iterations int
	width      int
	opts       Options
	logger     *slog.Logger

	set       *pointset.Set
	centroids []model.Centroid
	moved     []uint64
	started   time.Time
}

func newRun(strategy Strategy, points []model.Point, k, iterations, width int, optFns []Option) (*run, error) {
	opts := applyOptions(optFns)

	if err := validate(points, k, iterations, width, opts.Seeds); err != nil {
		return nil, err
	}

	centroids := slices.Clone(opts.Seeds)
	if centroids == nil {
		centroids = kmeans.Seed(points, k)
	}

	logger := opts.Logger.With("strategy", string(strategy))
	logger.Info("run started", "points", len(points), "k", k, "iterations", iterations, "width", width)

	return &run{
		strategy:   strategy,
		iterations: iterations,
		width:      width,
		opts:       opts,
		logger:     logger,
		set:        pointset.New(points, k),
		centroids:  centroids,
		moved:      make([]uint64, 0, iterations),
		started:    time.Now(),
	}, nil
}

// iterate runs assign followed by the sequential centroid recomputation for
// every iteration. No recomputation starts before assign has returned.
func (r *run) iterate(ctx context.Context, assign assignFunc) error {
	for it := 0; it < r.iterations; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		if err := assign(ctx, it, r.centroids); err != nil {
			return err
		}

		r.centroids = r.set.Recompute(r.centroids)
		moved := r.set.Commit()
		r.moved = append(r.moved, moved)

		elapsed := time.Since(start)
		r.opts.Metrics.OnIteration(r.strategy, it, elapsed, moved)
		r.logger.Debug("iteration complete", "iteration", it, "moved", moved, "duration", elapsed)
	}
	return nil
}

func (r *run) fail(err error) error {
	r.logger.Error("run failed", "error", err, "elapsed", time.Since(r.started))
	return err
}

func (r *run) result() *Result {
	res := &Result{
		Strategy:    r.strategy,
		Summary:     Summary(r.set.Sizes()),
		Assignments: r.set.Assignments(),
		Centroids:   slices.Clone(r.centroids),
		Iterations:  r.iterations,
		Moved:       slices.Clone(r.moved),
		LastMoved:   r.set.Moved(),
		Elapsed:     time.Since(r.started),
	}
	r.logger.Info("run complete", "elapsed", res.Elapsed, "moved", res.Moved[len(res.Moved)-1])
	return res
}
