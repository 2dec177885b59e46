package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/lloyd/model"
	"github.com/hupe1980/lloyd/wire"
)

// exitProbe is how long a failed read waits for the process waiter before the
// failure is reported as a plain transport error.
const exitProbe = 200 * time.Millisecond

// Channel is the coordinator's handle to one worker process and its connection.
//
// Calls on a Channel are serialized; Close may be called concurrently with them
// and unblocks any call in flight.
type Channel struct {
	partition int
	cfg       Config
	logger    *slog.Logger

	cmd  *exec.Cmd
	pid  int
	conn *wire.Conn

	// size is the length of the partition sent to the worker, -1 before.
	size int

	exited  chan struct{}
	waitErr error // written before exited is closed

	mu        sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open launches a worker for the given partition and waits for its handshake.
//
// The listener exists before the process starts, so the worker can never dial
// too early. Open fails when the context ends, the process exits, or the
// handshake does not arrive within AcceptTimeout.
func Open(ctx context.Context, partition int, cfg Config) (*Channel, error) {
	if cfg.K < 1 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrLaunch, cfg.K)
	}
	if cfg.MaxFrameSize != 0 && cfg.MaxFrameSize < wire.MinFrameSize {
		return nil, fmt.Errorf("%w: max frame size must be at least %d, got %d", ErrLaunch, wire.MinFrameSize, cfg.MaxFrameSize)
	}

	if err := cfg.Resources.AcquireLaunch(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	defer cfg.Resources.ReleaseLaunch()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("%w: listen: %w", ErrLaunch, err)
	}
	defer ln.Close()

	cmd, err := cfg.command(ln.Addr().String())
	if err != nil {
		return nil, err
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %w", ErrLaunch, cmd.Path, err)
	}

	ch := &Channel{
		partition: partition,
		cfg:       cfg,
		cmd:       cmd,
		pid:       cmd.Process.Pid,
		size:      -1,
		exited:    make(chan struct{}),
	}
	ch.logger = cfg.logger().With("partition", partition, "pid", ch.pid)

	go ch.wait()

	nc, err := ch.accept(ctx, ln)
	if err != nil {
		ch.kill()
		return nil, err
	}
	ch.conn = wire.NewConn(nc, cfg.wireOptions)

	if err := ch.handshake(ctx); err != nil {
		_ = ch.conn.Close()
		ch.kill()
		return nil, err
	}

	ch.logger.Debug("worker connected", "addr", ln.Addr().String(), "elapsed", time.Since(started))

	return ch, nil
}

func (ch *Channel) wait() {
	ch.waitErr = ch.cmd.Wait()
	close(ch.exited)
}

func (ch *Channel) accept(ctx context.Context, ln net.Listener) (net.Conn, error) {
	type accepted struct {
		conn net.Conn
		err  error
	}

	done := make(chan accepted, 1)
	go func() {
		c, err := ln.Accept()
		done <- accepted{conn: c, err: err}
	}()

	// The listener is closed by Open; a connection that still slips in is dropped.
	abandon := func() {
		go func() {
			if r := <-done; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
	}

	var timeout <-chan time.Time
	if ch.cfg.AcceptTimeout > 0 {
		t := time.NewTimer(ch.cfg.AcceptTimeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: accept: %w", ErrLaunch, r.err)
		}
		return r.conn, nil
	case <-ch.exited:
		abandon()
		return nil, fmt.Errorf("%w: %w", ErrLaunch, ch.exitError())
	case <-timeout:
		abandon()
		return nil, fmt.Errorf("%w after %s", ErrAcceptTimeout, ch.cfg.AcceptTimeout)
	case <-ctx.Done():
		abandon()
		return nil, fmt.Errorf("%w: %w", ErrLaunch, ctx.Err())
	}
}

func (ch *Channel) handshake(ctx context.Context) error {
	stop := ch.guard(ctx, ch.cfg.AcceptTimeout)
	defer stop()

	hello, err := ch.conn.RecvHello()
	if err != nil {
		return fmt.Errorf("%w: handshake: %w", ErrLaunch, ch.translate(ctx, err))
	}
	if hello.K != ch.cfg.K {
		return fmt.Errorf("%w: %w: worker reports k=%d, want %d", ErrLaunch, ErrProtocol, hello.K, ch.cfg.K)
	}
	if hello.PID != ch.pid {
		// Wrapper scripts connect from a child process.
		ch.logger.Warn("handshake pid differs from launched process", "hello_pid", hello.PID)
	}

	return nil
}

// guard applies the call deadline and forces the connection deadline to now
// once ctx ends. The returned function detaches the context.
func (ch *Channel) guard(ctx context.Context, timeout time.Duration) func() {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	_ = ch.conn.SetDeadline(deadline)

	stop := context.AfterFunc(ctx, func() {
		_ = ch.conn.SetDeadline(time.Now())
	})

	return func() { stop() }
}

// translate maps a connection error onto the channel's error contract.
func (ch *Channel) translate(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if ch.closed.Load() {
		return ErrClosed
	}
	if errors.Is(err, wire.ErrMalformed) || errors.Is(err, wire.ErrFrameTooLarge) ||
		errors.Is(err, wire.ErrUnexpectedMessage) || errors.Is(err, ErrProtocol) {
		return err
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	// A broken stream usually means the process died.
	t := time.NewTimer(exitProbe)
	defer t.Stop()
	select {
	case <-ch.exited:
		return ch.exitError()
	case <-t.C:
	}

	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// call runs fn with exclusive use of the connection.
func (ch *Channel) call(ctx context.Context, fn func() error) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stop := ch.guard(ctx, ch.cfg.RPCTimeout)
	defer stop()

	return ch.translate(ctx, fn())
}

// SendPartition sends the worker its points. It must be called exactly once,
// before the first centroid broadcast.
func (ch *Channel) SendPartition(ctx context.Context, points []model.Point) error {
	return ch.call(ctx, func() error {
		if ch.size >= 0 {
			return fmt.Errorf("%w: partition already sent", ErrProtocol)
		}
		if err := ch.conn.SendPoints(ctx, points); err != nil {
			return err
		}
		ch.size = len(points)
		return nil
	})
}

// SendCentroids broadcasts the current centroids.
func (ch *Channel) SendCentroids(ctx context.Context, centroids []model.Centroid) error {
	return ch.call(ctx, func() error {
		return ch.conn.SendCentroids(ctx, centroids)
	})
}

// ReceiveAssignments blocks until one assignment array has been read.
func (ch *Channel) ReceiveAssignments(ctx context.Context) ([]int32, error) {
	var assignments []int32
	err := ch.call(ctx, func() error {
		var err error
		assignments, err = ch.recvAssignments()
		return err
	})
	return assignments, err
}

// RoundTrip sends centroids and waits for the matching assignments under a
// single RPCTimeout deadline.
func (ch *Channel) RoundTrip(ctx context.Context, centroids []model.Centroid) ([]int32, error) {
	var assignments []int32
	err := ch.call(ctx, func() error {
		if err := ch.conn.SendCentroids(ctx, centroids); err != nil {
			return err
		}
		var err error
		assignments, err = ch.recvAssignments()
		return err
	})
	return assignments, err
}

func (ch *Channel) recvAssignments() ([]int32, error) {
	assignments, err := ch.conn.RecvAssignments()
	if err != nil {
		return nil, err
	}
	if ch.size >= 0 && len(assignments) != ch.size {
		return nil, fmt.Errorf("%w: got %d assignments for %d points", ErrProtocol, len(assignments), ch.size)
	}
	for i, a := range assignments {
		if a < 0 || int(a) >= ch.cfg.K {
			return nil, fmt.Errorf("%w: assignment %d out of range at %d", ErrProtocol, a, i)
		}
	}
	return assignments, nil
}

// Close closes the connection, which tells the worker to exit, and waits up to
// ShutdownGrace before killing the process. Close is idempotent.
func (ch *Channel) Close() error {
	ch.closeOnce.Do(func() {
		ch.closed.Store(true)
		if ch.conn != nil {
			if err := ch.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				ch.closeErr = fmt.Errorf("%w: close: %w", ErrTransport, err)
			}
		}
		ch.reap(ch.cfg.ShutdownGrace)
	})
	return ch.closeErr
}

func (ch *Channel) reap(grace time.Duration) {
	t := time.NewTimer(grace)
	defer t.Stop()

	select {
	case <-ch.exited:
		if ch.waitErr != nil {
			ch.logger.Warn("worker exited with error", "error", ch.waitErr)
		}
		return
	case <-t.C:
	}

	ch.logger.Warn("worker still running after grace period, killing", "grace", grace)
	ch.kill()
}

func (ch *Channel) kill() {
	_ = ch.cmd.Process.Kill()
	<-ch.exited
}

func (ch *Channel) exitError() error {
	return &ExitError{PID: ch.pid, Err: ch.waitErr}
}

// Partition returns the partition index the channel serves.
func (ch *Channel) Partition() int { return ch.partition }

// PID returns the worker's process id.
func (ch *Channel) PID() int { return ch.pid }

// Exited is closed once the worker process has exited.
func (ch *Channel) Exited() <-chan struct{} { return ch.exited }

// Alive reports whether the worker process is still running.
func (ch *Channel) Alive() bool {
	select {
	case <-ch.exited:
		return false
	default:
		return true
	}
}

// ExitErr returns the process wait error once the worker has exited, nil otherwise.
func (ch *Channel) ExitErr() error {
	select {
	case <-ch.exited:
		return ch.waitErr
	default:
		return nil
	}
}

// BytesSent returns the number of bytes written to the worker.
func (ch *Channel) BytesSent() int64 { return ch.conn.BytesSent() }

// BytesReceived returns the number of bytes read from the worker.
func (ch *Channel) BytesReceived() int64 { return ch.conn.BytesReceived() }
