package engine

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/lloyd/model"
	"github.com/hupe1980/lloyd/testutil"
	"github.com/hupe1980/lloyd/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	testutil.RunWorkerIfRequested()
	os.Exit(m.Run())
}

// workerProcess points the distributed strategy at the re-executed test binary.
func workerProcess(mode string) Option {
	return WithWorkerConfig(func(cfg *worker.Config) {
		cfg.Command, cfg.Env = testutil.WorkerCommand(mode)
		cfg.AcceptTimeout = 20 * time.Second
		cfg.ShutdownGrace = 5 * time.Second
	})
}

type strategyFunc func(ctx context.Context, points []model.Point, k, iterations, width int, opts ...Option) (*Result, error)

func strategies() map[Strategy]strategyFunc {
	return map[Strategy]strategyFunc{
		StrategySequential: func(ctx context.Context, points []model.Point, k, iterations, _ int, opts ...Option) (*Result, error) {
			return RunSequential(ctx, points, k, iterations, opts...)
		},
		StrategyParallel: RunParallel,
		StrategyDistributed: func(ctx context.Context, points []model.Point, k, iterations, width int, opts ...Option) (*Result, error) {
			return RunDistributed(ctx, points, k, iterations, width, append(opts, workerProcess(testutil.ModeServe))...)
		},
	}
}

func TestScenario_AllStrategies(t *testing.T) {
	for name, run := range strategies() {
		t.Run(string(name), func(t *testing.T) {
			res, err := run(context.Background(), testutil.Scenario(), 2, 3, 2, WithSeeds(testutil.ScenarioSeeds()))
			require.NoError(t, err)

			assert.Equal(t, name, res.Strategy)
			assert.Equal(t, Summary{3, 3}, res.Summary)
			assert.Equal(t, "Cluster 1: 3\nCluster 2: 3\n", res.Summary.String())
			assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, res.Assignments)
			assert.Equal(t, 3, res.Iterations)
			assert.Len(t, res.Moved, 3)
			assert.True(t, res.Converged())
			assert.Empty(t, res.LastMoved)
			assert.InDelta(t, 1.0/3, res.Centroids[0].X, 1e-12)
			assert.InDelta(t, 31.0/3, res.Centroids[1].X, 1e-12)
		})
	}
}

func TestLastMoved_AllStrategies(t *testing.T) {
	for name, run := range strategies() {
		t.Run(string(name), func(t *testing.T) {
			// The first iteration assigns every point.
			res, err := run(context.Background(), testutil.Scenario(), 2, 1, 2)
			require.NoError(t, err)
			assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, res.LastMoved)
			assert.False(t, res.Converged())

			// Seeded with (0,0) and (1,0), point 1 leaves the far cluster in iteration 2.
			res, err = run(context.Background(), testutil.Scenario(), 2, 2, 2)
			require.NoError(t, err)
			assert.Equal(t, []uint64{6, 1}, res.Moved)
			assert.Equal(t, []uint32{1}, res.LastMoved)
		})
	}
}

func TestCrossStrategyDeterminism(t *testing.T) {
	points := testutil.TwelvePoints()

	var results []*Result
	for name, run := range strategies() {
		res, err := run(context.Background(), points, 2, 5, 3)
		require.NoError(t, err, name)
		results = append(results, res)
	}

	for _, res := range results[1:] {
		assert.Equal(t, results[0].Summary, res.Summary)
		assert.Equal(t, results[0].Assignments, res.Assignments)
		assert.Equal(t, results[0].Centroids, res.Centroids)
	}
	assert.Equal(t, Summary{6, 6}, results[0].Summary)
}

func TestCrossStrategyDeterminism_RandomBlobs(t *testing.T) {
	rng := testutil.NewRNG(4711)
	points := rng.Blobs([]model.Centroid{{X: 0, Y: 0}, {X: 8, Y: 0}, {X: 4, Y: 7}}, 40, 1.5)
	rng.Shuffle(points)

	seq, err := RunSequential(context.Background(), points, 3, 10)
	require.NoError(t, err)

	par, err := RunParallel(context.Background(), points, 3, 10, 7)
	require.NoError(t, err)

	dist, err := RunDistributed(context.Background(), points, 3, 10, 4, workerProcess(testutil.ModeServe))
	require.NoError(t, err)

	assert.Equal(t, seq.Assignments, par.Assignments)
	assert.Equal(t, seq.Assignments, dist.Assignments)
	assert.Equal(t, seq.Centroids, par.Centroids)
	assert.Equal(t, seq.Centroids, dist.Centroids)
	assert.Equal(t, seq.Moved, dist.Moved)
}

func TestIdempotentAfterStabilization(t *testing.T) {
	points := testutil.TwelvePoints()

	for name, run := range strategies() {
		t.Run(string(name), func(t *testing.T) {
			five, err := run(context.Background(), points, 2, 5, 2)
			require.NoError(t, err)
			six, err := run(context.Background(), points, 2, 6, 2)
			require.NoError(t, err)

			assert.Equal(t, five.Summary, six.Summary)
			assert.Equal(t, five.Centroids, six.Centroids)
			assert.Equal(t, uint64(0), six.Moved[5])
		})
	}
}

func TestKEqualsN(t *testing.T) {
	points := testutil.Scenario()

	for name, run := range strategies() {
		t.Run(string(name), func(t *testing.T) {
			res, err := run(context.Background(), points, len(points), 1, 3)
			require.NoError(t, err)

			for i, n := range res.Summary {
				assert.Equal(t, 1, n, "cluster %d", i)
			}
		})
	}
}

func TestWidthExceedsPoints(t *testing.T) {
	points := testutil.Scenario()[:3]

	for name, run := range strategies() {
		t.Run(string(name), func(t *testing.T) {
			res, err := run(context.Background(), points, 2, 2, 5)
			require.NoError(t, err)
			assert.Equal(t, 3, res.Summary.Total())
		})
	}
}

func TestInputNotMutated(t *testing.T) {
	points := testutil.Scenario()
	before := testutil.Scenario()

	for name, run := range strategies() {
		_, err := run(context.Background(), points, 2, 2, 2)
		require.NoError(t, err, name)
	}

	assert.Equal(t, before, points)
}

func TestContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, run := range strategies() {
		t.Run(string(name), func(t *testing.T) {
			_, err := run(ctx, testutil.Scenario(), 2, 3, 2)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

type recordingObserver struct {
	mu         sync.Mutex
	iterations []uint64
	roundTrips int
	launches   int
	throughput map[string]int64
}

func (o *recordingObserver) OnIteration(_ Strategy, _ int, _ time.Duration, moved uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.iterations = append(o.iterations, moved)
}

func (o *recordingObserver) OnRoundTrip(int, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.roundTrips++
}

func (o *recordingObserver) OnLaunch(int, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.launches++
}

func (o *recordingObserver) OnThroughput(name string, bytes int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.throughput == nil {
		o.throughput = make(map[string]int64)
	}
	o.throughput[name] += bytes
}

func TestMetricsObserver(t *testing.T) {
	obs := &recordingObserver{}

	res, err := RunDistributed(context.Background(), testutil.Scenario(), 2, 3, 2,
		WithMetricsObserver(obs), workerProcess(testutil.ModeServe))
	require.NoError(t, err)

	assert.Equal(t, res.Moved, obs.iterations)
	assert.Equal(t, uint64(6), obs.iterations[0])
	assert.Equal(t, 2, obs.launches)
	assert.Equal(t, 6, obs.roundTrips)
	assert.Positive(t, obs.throughput["wire.sent"])
	assert.Positive(t, obs.throughput["wire.received"])
}
