package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxConcurrentLaunches is the maximum number of worker processes being
	// started (launched but not yet connected) at the same time.
	// If 0, defaults to 1.
	MaxConcurrentLaunches int64

	// LaunchesPerSec paces worker process starts. If 0, unlimited.
	LaunchesPerSec float64

	// IOLimitBytesPerSec is the maximum wire throughput across all workers.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages resources shared by every worker channel of a run.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	// Launches
	launchSem     *semaphore.Weighted
	launchLimiter *rate.Limiter // nil if unlimited
	launching     atomic.Int64

	// IO
	ioLimiter *rate.Limiter // nil if unlimited
	ioBytes   atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentLaunches <= 0 {
		cfg.MaxConcurrentLaunches = 1
	}

	c := &Controller{
		cfg:       cfg,
		launchSem: semaphore.NewWeighted(cfg.MaxConcurrentLaunches),
	}

	if cfg.LaunchesPerSec > 0 {
		c.launchLimiter = rate.NewLimiter(rate.Limit(cfg.LaunchesPerSec), 1)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireLaunch reserves a launch slot and waits for the launch rate.
// Blocks until both allow it or ctx is canceled.
func (c *Controller) AcquireLaunch(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.launchSem.Acquire(ctx, 1); err != nil {
		return err
	}
	if c.launchLimiter != nil {
		if err := c.launchLimiter.Wait(ctx); err != nil {
			c.launchSem.Release(1)
			return err
		}
	}
	c.launching.Add(1)
	return nil
}

// ReleaseLaunch releases a launch slot.
func (c *Controller) ReleaseLaunch() {
	if c == nil {
		return
	}
	c.launching.Add(-1)
	c.launchSem.Release(1)
}

// Launching returns the number of launches currently in progress.
func (c *Controller) Launching() int64 {
	if c == nil {
		return 0
	}
	return c.launching.Load()
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the limiter burst are split so they never fail outright.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	c.ioBytes.Add(int64(bytes))
	if c.ioLimiter == nil {
		return nil
	}

	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// IOBytes returns the number of bytes accounted through AcquireIO.
func (c *Controller) IOBytes() int64 {
	if c == nil {
		return 0
	}
	return c.ioBytes.Load()
}
