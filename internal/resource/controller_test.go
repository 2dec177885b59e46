package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilControllerIsUnlimited(t *testing.T) {
	var c *Controller
	ctx := context.Background()

	require.NoError(t, c.AcquireLaunch(ctx))
	c.ReleaseLaunch()
	require.NoError(t, c.AcquireIO(ctx, 1<<30))
	assert.Zero(t, c.Launching())
	assert.Zero(t, c.IOBytes())
}

func TestLaunchSlots(t *testing.T) {
	c := NewController(Config{MaxConcurrentLaunches: 2})
	ctx := context.Background()

	require.NoError(t, c.AcquireLaunch(ctx))
	require.NoError(t, c.AcquireLaunch(ctx))
	assert.Equal(t, int64(2), c.Launching())

	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := c.AcquireLaunch(blocked)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(2), c.Launching())

	c.ReleaseLaunch()
	require.NoError(t, c.AcquireLaunch(ctx))
	c.ReleaseLaunch()
	c.ReleaseLaunch()
	assert.Zero(t, c.Launching())
}

func TestDefaultLaunchSlot(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, int64(1), c.cfg.MaxConcurrentLaunches)
}

func TestLaunchRate(t *testing.T) {
	c := NewController(Config{MaxConcurrentLaunches: 4, LaunchesPerSec: 20})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.AcquireLaunch(ctx))
		c.ReleaseLaunch()
	}
	// First launch uses the burst, the next two wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestAcquireIO_SplitsLargeRequests(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, c.AcquireIO(ctx, 1500))
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, int64(1500), c.IOBytes())
}

func TestAcquireIO_Canceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.AcquireIO(ctx, 100)
	assert.Error(t, err)
}
