package worker

import (
	"context"
	"net"
	"testing"

	"github.com/hupe1980/lloyd/model"
	"github.com/hupe1980/lloyd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servePipe(t *testing.T, k int) (*wire.Conn, <-chan error) {
	t.Helper()

	a, b := net.Pipe()
	coord := wire.NewConn(a)
	t.Cleanup(func() { _ = coord.Close() })

	done := make(chan error, 1)
	go func() {
		done <- Serve(context.Background(), wire.NewConn(b), k, nil)
	}()

	return coord, done
}

func TestServe_AssignsUntilClosed(t *testing.T) {
	ctx := context.Background()
	coord, done := servePipe(t, 2)

	hello, err := coord.RecvHello()
	require.NoError(t, err)
	assert.Equal(t, 2, hello.K)

	points := model.FromPairs([][2]float64{{0, 0}, {1, 0}, {10, 10}, {9, 9}})
	require.NoError(t, coord.SendPoints(ctx, points))

	for _, tc := range []struct {
		centroids []model.Centroid
		want      []int32
	}{
		{[]model.Centroid{{X: 0, Y: 0}, {X: 10, Y: 10}}, []int32{0, 0, 1, 1}},
		{[]model.Centroid{{X: 10, Y: 10}, {X: 0, Y: 0}}, []int32{1, 1, 0, 0}},
	} {
		require.NoError(t, coord.SendCentroids(ctx, tc.centroids))
		got, err := coord.RecvAssignments()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	require.NoError(t, coord.Close())
	assert.NoError(t, <-done)
}

func TestServe_EmptyPartition(t *testing.T) {
	ctx := context.Background()
	coord, done := servePipe(t, 1)

	_, err := coord.RecvHello()
	require.NoError(t, err)
	require.NoError(t, coord.SendPoints(ctx, nil))
	require.NoError(t, coord.SendCentroids(ctx, []model.Centroid{{X: 1, Y: 1}}))

	got, err := coord.RecvAssignments()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, coord.Close())
	assert.NoError(t, <-done)
}

func TestServe_CloseBeforePartition(t *testing.T) {
	coord, done := servePipe(t, 3)

	_, err := coord.RecvHello()
	require.NoError(t, err)
	require.NoError(t, coord.Close())

	assert.NoError(t, <-done)
}

func TestServe_WrongCentroidCount(t *testing.T) {
	ctx := context.Background()
	coord, done := servePipe(t, 2)

	_, err := coord.RecvHello()
	require.NoError(t, err)
	require.NoError(t, coord.SendPoints(ctx, model.FromPairs([][2]float64{{0, 0}})))
	require.NoError(t, coord.SendCentroids(ctx, []model.Centroid{{}, {}, {}}))

	assert.ErrorIs(t, <-done, ErrProtocol)
}

func TestServe_MalformedFrame(t *testing.T) {
	ctx := context.Background()
	coord, done := servePipe(t, 2)

	_, err := coord.RecvHello()
	require.NoError(t, err)
	require.NoError(t, coord.WriteFrame(ctx, wire.MsgAssignments, wire.EncodeAssignments([]int32{1}, 1)))

	assert.ErrorIs(t, <-done, wire.ErrUnexpectedMessage)
}

func TestServe_ChunkedStreams(t *testing.T) {
	ctx := context.Background()
	small := func(o *wire.Options) { o.MaxFrameSize = wire.MinFrameSize }

	a, b := net.Pipe()
	coord := wire.NewConn(a, small)
	t.Cleanup(func() { _ = coord.Close() })

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, wire.NewConn(b, small), 2, nil) }()

	_, err := coord.RecvHello()
	require.NoError(t, err)

	pairs := make([][2]float64, 40)
	want := make([]int32, 40)
	for i := range pairs {
		pairs[i] = [2]float64{float64(i), 0}
		if i >= 20 {
			want[i] = 1
		}
	}
	require.NoError(t, coord.SendPoints(ctx, model.FromPairs(pairs)))
	require.NoError(t, coord.SendCentroids(ctx, []model.Centroid{{X: 0, Y: 0}, {X: 39, Y: 0}}))

	got, err := coord.RecvAssignments()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, coord.Close())
	assert.NoError(t, <-done)
}

func TestServe_InvalidK(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()

	err := Serve(context.Background(), wire.NewConn(b), 0, nil)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestMain_RejectsBadArguments(t *testing.T) {
	ctx := context.Background()

	assert.Error(t, Main(ctx, []string{"-k", "2"}))
	assert.Error(t, Main(ctx, []string{"-addr", "127.0.0.1:1", "-k", "0"}))
	assert.Error(t, Main(ctx, []string{"-addr", "127.0.0.1:1", "-k", "2", "-codec", "xml"}))
	assert.Error(t, Main(ctx, []string{"-addr", "127.0.0.1:1", "-k", "2", "-compression", "gzip"}))
	assert.Error(t, Main(ctx, []string{"-addr", "127.0.0.1:1", "-k", "2", "-max-frame-size", "8"}))
	assert.Error(t, Main(ctx, []string{"-bogus"}))
}

func TestLaunchArgs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 3
	cfg.Args = []string{"-log-level", "debug"}
	cfg.Compression = wire.CompressionLZ4
	cfg.MaxFrameSize = 1 << 20

	assert.Equal(t, []string{
		"-log-level", "debug",
		"-addr", "127.0.0.1:4000",
		"-k", "3",
		"-codec", "go-json",
		"-compression", "lz4",
		"-max-frame-size", "1048576",
	}, cfg.launchArgs("127.0.0.1:4000"))
}

func TestExitError(t *testing.T) {
	err := &ExitError{PID: 42}

	assert.ErrorIs(t, err, ErrWorkerExited)
	assert.Contains(t, err.Error(), "42")
}
