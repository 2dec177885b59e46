package worker

import (
	"errors"
	"fmt"
)

var (
	// ErrLaunch is returned when a worker process cannot be set up: no listener,
	// no executable, a failed start or an accept timeout.
	ErrLaunch = errors.New("worker: launch failed")

	// ErrAcceptTimeout is returned when the worker does not connect back in time.
	ErrAcceptTimeout = fmt.Errorf("%w: accept timed out", ErrLaunch)

	// ErrTransport is returned when the stream to a worker fails.
	ErrTransport = errors.New("worker: transport failure")

	// ErrWorkerExited is returned when the worker process is gone.
	ErrWorkerExited = errors.New("worker: process exited")

	// ErrProtocol is returned when a peer violates the message contract
	// (k mismatch, wrong centroid or assignment count).
	ErrProtocol = errors.New("worker: protocol violation")

	// ErrClosed is returned by operations on a closed channel.
	ErrClosed = errors.New("worker: channel closed")
)

// ExitError reports a worker process that exited before the channel was done with it.
//
// It matches ErrWorkerExited with errors.Is; the wait error (usually an
// *exec.ExitError carrying the exit status) is available via errors.Unwrap.
type ExitError struct {
	PID int
	Err error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("worker: process %d exited", e.PID)
	}
	return fmt.Sprintf("worker: process %d exited: %v", e.PID, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Is reports whether target is ErrWorkerExited.
func (e *ExitError) Is(target error) bool { return target == ErrWorkerExited }
