package lloyd

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lloyd/engine"
	"github.com/hupe1980/lloyd/internal/partition"
	"github.com/hupe1980/lloyd/internal/pointset"
	"github.com/hupe1980/lloyd/wire"
)

var (
	// ErrEmptyDataset is returned when a run is started without points.
	ErrEmptyDataset = engine.ErrEmptyDataset

	// ErrInvalidK is returned when k is not in [1, number of points].
	ErrInvalidK = engine.ErrInvalidK

	// ErrInvalidIterations is returned when the iteration count is not positive.
	ErrInvalidIterations = engine.ErrInvalidIterations

	// ErrInvalidWidth is returned when the thread or process count is not positive.
	ErrInvalidWidth = engine.ErrInvalidWidth

	// ErrInvalidSeeds is returned when WithSeeds does not provide k finite centroids.
	ErrInvalidSeeds = engine.ErrInvalidSeeds

	// ErrUnknownStrategy is returned by Run and ParseStrategy for an unknown strategy.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrLaunch is returned when a worker process cannot be started or does not connect.
	ErrLaunch = engine.ErrLaunch

	// ErrAcceptTimeout is returned when a worker does not connect within the accept timeout.
	// It matches ErrLaunch.
	ErrAcceptTimeout = engine.ErrAcceptTimeout

	// ErrTransport is returned when the connection to a worker fails or carries
	// malformed data.
	ErrTransport = engine.ErrTransport

	// ErrWorkerExited is returned when a worker process dies during a run.
	ErrWorkerExited = engine.ErrWorkerExited

	// ErrProtocol is returned when a worker violates the message contract.
	ErrProtocol = engine.ErrProtocol

	// ErrFrameTooLarge is returned when a frame exceeds the configured maximum
	// frame size. Oversized frames received from a worker also match ErrTransport.
	ErrFrameTooLarge = engine.ErrFrameTooLarge

	// ErrIncomplete is matched by an *IncompleteError.
	ErrIncomplete = engine.ErrIncomplete

	// ErrInvalidPoint is returned when a point has a NaN or infinite coordinate.
	ErrInvalidPoint = engine.ErrInvalidPoint
)

// PartitionError reports the partition whose failure aborted a run.
//
// Use errors.As to access it and errors.Is to match the cause.
type PartitionError = engine.PartitionError

// IncompleteError lists the partitions that had not answered when a
// distributed iteration failed.
type IncompleteError = engine.IncompleteError

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Malformed frames are transport failures to callers.
	if errors.Is(err, wire.ErrMalformed) && !errors.Is(err, ErrTransport) {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	// Merged assignments that do not fit their partition are a worker bug.
	if (errors.Is(err, pointset.ErrAssignmentMismatch) || errors.Is(err, pointset.ErrClusterOutOfRange)) &&
		!errors.Is(err, ErrProtocol) {
		return fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	if errors.Is(err, partition.ErrInvalidCount) {
		return fmt.Errorf("%w: %w", ErrInvalidWidth, err)
	}

	return err
}
