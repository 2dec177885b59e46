package lloyd

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/lloyd/engine"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordRun is called once per Run with its total duration.
	RecordRun(strategy Strategy, duration time.Duration, err error)

	// RecordIteration is called after every iteration with the number of
	// points that changed cluster.
	RecordIteration(strategy Strategy, duration time.Duration, moved uint64)

	// RecordLaunch is called after every worker process launch.
	RecordLaunch(duration time.Duration, err error)

	// RecordRoundTrip is called after every worker round trip.
	RecordRoundTrip(duration time.Duration, err error)

	// RecordThroughput reports bytes moved over the wire.
	RecordThroughput(name string, bytes int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRun(Strategy, time.Duration, error)        {}
func (NoopMetricsCollector) RecordIteration(Strategy, time.Duration, uint64) {}
func (NoopMetricsCollector) RecordLaunch(time.Duration, error)               {}
func (NoopMetricsCollector) RecordRoundTrip(time.Duration, error)            {}
func (NoopMetricsCollector) RecordThroughput(string, int64)                  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RunCount            atomic.Int64
	RunErrors           atomic.Int64
	RunTotalNanos       atomic.Int64
	IterationCount      atomic.Int64
	IterationTotalNanos atomic.Int64
	MovedPoints         atomic.Int64
	LaunchCount         atomic.Int64
	LaunchErrors        atomic.Int64
	RoundTripCount      atomic.Int64
	RoundTripErrors     atomic.Int64
	RoundTripTotalNanos atomic.Int64

	mu         sync.Mutex
	throughput map[string]int64
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(_ Strategy, duration time.Duration, err error) {
	b.RunCount.Add(1)
	b.RunTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(_ Strategy, duration time.Duration, moved uint64) {
	b.IterationCount.Add(1)
	b.IterationTotalNanos.Add(duration.Nanoseconds())
	b.MovedPoints.Add(int64(moved))
}

// RecordLaunch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLaunch(_ time.Duration, err error) {
	b.LaunchCount.Add(1)
	if err != nil {
		b.LaunchErrors.Add(1)
	}
}

// RecordRoundTrip implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRoundTrip(duration time.Duration, err error) {
	b.RoundTripCount.Add(1)
	b.RoundTripTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RoundTripErrors.Add(1)
	}
}

// RecordThroughput implements MetricsCollector.
func (b *BasicMetricsCollector) RecordThroughput(name string, bytes int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.throughput == nil {
		b.throughput = make(map[string]int64)
	}
	b.throughput[name] += bytes
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	b.mu.Lock()
	throughput := make(map[string]int64, len(b.throughput))
	for k, v := range b.throughput {
		throughput[k] = v
	}
	b.mu.Unlock()

	return BasicMetricsStats{
		RunCount:          b.RunCount.Load(),
		RunErrors:         b.RunErrors.Load(),
		RunAvgNanos:       avg(b.RunTotalNanos.Load(), b.RunCount.Load()),
		IterationCount:    b.IterationCount.Load(),
		IterationAvgNanos: avg(b.IterationTotalNanos.Load(), b.IterationCount.Load()),
		MovedPoints:       b.MovedPoints.Load(),
		LaunchCount:       b.LaunchCount.Load(),
		LaunchErrors:      b.LaunchErrors.Load(),
		RoundTripCount:    b.RoundTripCount.Load(),
		RoundTripErrors:   b.RoundTripErrors.Load(),
		RoundTripAvgNanos: avg(b.RoundTripTotalNanos.Load(), b.RoundTripCount.Load()),
		Throughput:        throughput,
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RunCount          int64
	RunErrors         int64
	RunAvgNanos       int64
	IterationCount    int64
	IterationAvgNanos int64
	MovedPoints       int64
	LaunchCount       int64
	LaunchErrors      int64
	RoundTripCount    int64
	RoundTripErrors   int64
	RoundTripAvgNanos int64
	Throughput        map[string]int64
}

// metricsObserver adapts a MetricsCollector to engine.MetricsObserver.
type metricsObserver struct {
	mc MetricsCollector
}

func (m *metricsObserver) OnIteration(strategy engine.Strategy, _ int, duration time.Duration, moved uint64) {
	m.mc.RecordIteration(strategy, duration, moved)
}

func (m *metricsObserver) OnRoundTrip(_ int, duration time.Duration, err error) {
	m.mc.RecordRoundTrip(duration, err)
}

func (m *metricsObserver) OnLaunch(_ int, duration time.Duration, err error) {
	m.mc.RecordLaunch(duration, err)
}

func (m *metricsObserver) OnThroughput(name string, bytes int64) {
	m.mc.RecordThroughput(name, bytes)
}
