package lloyd

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/lloyd/engine"
	"github.com/hupe1980/lloyd/model"
)

// Strategy selects how iterations are executed.
type Strategy = engine.Strategy

const (
	// StrategySequential runs on the calling goroutine.
	StrategySequential = engine.StrategySequential
	// StrategyParallel runs on a pool of goroutines.
	StrategyParallel = engine.StrategyParallel
	// StrategyDistributed runs on worker processes.
	StrategyDistributed = engine.StrategyDistributed
)

// Result is the outcome of a completed run.
type Result = engine.Result

// ParseStrategy maps a strategy name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(name); s {
	case StrategySequential, StrategyParallel, StrategyDistributed:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Run clusters points into k clusters over the given number of iterations.
//
// width is the number of goroutines (parallel) or worker processes
// (distributed); the sequential strategy ignores it. points is never modified.
func Run(ctx context.Context, strategy Strategy, points []model.Point, k, iterations, width int, optFns ...Option) (*Result, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.logger.WithStrategy(strategy)
	engineOpts := opts.engineOptions(opts.logger)

	start := time.Now()

	var (
		res *Result
		err error
	)
	switch strategy {
	case StrategySequential:
		res, err = engine.RunSequential(ctx, points, k, iterations, engineOpts...)
	case StrategyParallel:
		res, err = engine.RunParallel(ctx, points, k, iterations, width, engineOpts...)
	case StrategyDistributed:
		res, err = engine.RunDistributed(ctx, points, k, iterations, width, engineOpts...)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	err = translateError(err)

	opts.metricsCollector.RecordRun(strategy, time.Since(start), err)
	logger.LogRun(ctx, res, err)

	if err != nil {
		return nil, err
	}
	return res, nil
}

// Sequential runs Run with StrategySequential.
func Sequential(ctx context.Context, points []model.Point, k, iterations int, optFns ...Option) (*Result, error) {
	return Run(ctx, StrategySequential, points, k, iterations, 1, optFns...)
}

// Parallel runs Run with StrategyParallel and the given number of goroutines.
func Parallel(ctx context.Context, points []model.Point, k, iterations, threads int, optFns ...Option) (*Result, error) {
	return Run(ctx, StrategyParallel, points, k, iterations, threads, optFns...)
}

// Distributed runs Run with StrategyDistributed and the given number of worker processes.
func Distributed(ctx context.Context, points []model.Point, k, iterations, processes int, optFns ...Option) (*Result, error) {
	return Run(ctx, StrategyDistributed, points, k, iterations, processes, optFns...)
}
