package engine

import "time"

// MetricsObserver defines the interface for observing run events.
type MetricsObserver interface {
	// OnIteration is called after every completed iteration with the number of
	// points whose cluster changed.
	OnIteration(strategy Strategy, iteration int, duration time.Duration, moved uint64)

	// OnRoundTrip is called when a worker round trip completes or fails.
	OnRoundTrip(partition int, duration time.Duration, err error)

	// OnLaunch is called when a worker process has been launched or failed to.
	OnLaunch(partition int, duration time.Duration, err error)

	// OnThroughput reports bytes moved over the wire.
	OnThroughput(name string, bytes int64)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (o *NoopMetricsObserver) OnIteration(strategy Strategy, iteration int, duration time.Duration, moved uint64) {
}
func (o *NoopMetricsObserver) OnRoundTrip(partition int, duration time.Duration, err error) {}
func (o *NoopMetricsObserver) OnLaunch(partition int, duration time.Duration, err error)    {}
func (o *NoopMetricsObserver) OnThroughput(name string, bytes int64)                        {}
