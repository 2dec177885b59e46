package engine

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lloyd/wire"
	"github.com/hupe1980/lloyd/worker"
)

var (
	// ErrEmptyDataset is returned when a run is started without points.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrInvalidPoint is returned when a point has a NaN or infinite coordinate.
	ErrInvalidPoint = errors.New("point coordinates must be finite")

	// ErrInvalidK is returned when k is not in [1, number of points].
	ErrInvalidK = errors.New("k must be between 1 and the number of points")

	// ErrInvalidIterations is returned when the iteration count is not positive.
	ErrInvalidIterations = errors.New("iterations must be positive")

	// ErrInvalidWidth is returned when the thread or process count is not positive.
	ErrInvalidWidth = errors.New("width must be positive")

	// ErrInvalidSeeds is returned when explicit seeds do not provide exactly k centroids.
	ErrInvalidSeeds = errors.New("seed count must equal k")

	// ErrPoolClosed is returned when submitting work to a closed WorkerPool.
	ErrPoolClosed = errors.New("worker pool closed")

	// ErrTaskPanic is returned when a partition task panics.
	ErrTaskPanic = errors.New("partition task panicked")

	// ErrIncomplete is matched by an *IncompleteError.
	ErrIncomplete = errors.New("partitions did not respond")
)

// Worker process errors, re-exported so callers only need this package.
var (
	ErrLaunch        = worker.ErrLaunch
	ErrAcceptTimeout = worker.ErrAcceptTimeout
	ErrTransport     = worker.ErrTransport
	ErrWorkerExited  = worker.ErrWorkerExited
	ErrProtocol      = worker.ErrProtocol
	ErrFrameTooLarge = wire.ErrFrameTooLarge
)

// PartitionError reports the partition whose task failed and aborted the run.
//
// The original underlying error can be accessed via errors.Unwrap.
type PartitionError struct {
	Partition int
	Op        string
	Err       error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("partition %d: %s: %v", e.Partition, e.Op, e.Err)
}

func (e *PartitionError) Unwrap() error { return e.Err }

// IncompleteError reports a distributed iteration that ended before every
// partition answered.
//
// It matches ErrIncomplete with errors.Is, and the failure that ended the
// barrier (usually a *PartitionError) with errors.Is and errors.As.
type IncompleteError struct {
	Iteration int
	// Pending lists the partitions without an answer, in ascending order.
	Pending   []int
	Err       error
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("iteration %d: partitions %v did not respond: %v", e.Iteration, e.Pending, e.Err)
}

func (e *IncompleteError) Unwrap() []error { return []error{ErrIncomplete, e.Err} }
