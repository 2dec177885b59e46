package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/lloyd/internal/partition"
	"github.com/hupe1980/lloyd/internal/resource"
	"github.com/hupe1980/lloyd/model"
	"github.com/hupe1980/lloyd/worker"
)

// RunDistributed clusters points with one worker process per partition.
//
// Workers are launched concurrently, bounded by Options.Resources. Every
// iteration sends the current centroids to all workers (and, on the first
// iteration, their partition), waits for every assignment array, merges them in
// partition order and recomputes the centroids locally. All worker processes are
// shut down before RunDistributed returns, whether the run succeeded or not.
func RunDistributed(ctx context.Context, points []model.Point, k, iterations, processes int, optFns ...Option) (*Result, error) {
	r, err := newRun(StrategyDistributed, points, k, iterations, processes, optFns)
	if err != nil {
		return nil, err
	}

	ranges, err := partition.Split(r.set.Len(), processes)
	if err != nil {
		return nil, r.fail(err)
	}

	c := newCoordinator(r, ranges)

	if err := c.open(ctx); err != nil {
		c.close()
		return nil, r.fail(err)
	}

	if err := r.iterate(ctx, c.iteration); err != nil {
		c.close()
		return nil, r.fail(err)
	}

	c.close()

	return r.result(), nil
}

type coordinator struct {
	run       *run
	ranges    []model.Range
	resources *resource.Controller
	cfg       worker.Config

	channels []*worker.Channel

	// slots holds each partition's assignments for the current iteration.
	// Each round-trip task writes only its own slot.
	slots [][]int32

	mu        sync.Mutex
	responded *bitset.BitSet
}

func newCoordinator(r *run, ranges []model.Range) *coordinator {
	resources := resource.NewController(r.opts.Resources)

	cfg := r.opts.Worker
	cfg.K = r.set.K()
	cfg.Logger = r.logger
	cfg.Resources = resources

	return &coordinator{
		run:       r,
		ranges:    ranges,
		resources: resources,
		cfg:       cfg,
		channels:  make([]*worker.Channel, len(ranges)),
		slots:     make([][]int32, len(ranges)),
		responded: bitset.New(uint(len(ranges))),
	}
}

// open launches one worker per partition.
func (c *coordinator) open(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := range c.ranges {
		g.Go(func() error {
			start := time.Now()
			ch, err := worker.Open(gctx, i, c.cfg)
			c.run.opts.Metrics.OnLaunch(i, time.Since(start), err)
			if err != nil {
				return &PartitionError{Partition: i, Op: "launch", Err: err}
			}
			c.channels[i] = ch
			return nil
		})
	}

	return g.Wait()
}

// iteration is the distributed assignFunc: broadcast, barrier, merge.
//
// If the barrier fails, the returned *IncompleteError lists every partition
// that had not answered when the first failure ended the iteration.
func (c *coordinator) iteration(ctx context.Context, it int, centroids []model.Centroid) error {
	clear(c.slots)
	c.responded.ClearAll()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(c.channels))

	for i, ch := range c.channels {
		g.Go(func() error {
			if it == 0 {
				if err := ch.SendPartition(gctx, c.run.set.Slice(c.ranges[i])); err != nil {
					return &PartitionError{Partition: i, Op: "send partition", Err: err}
				}
			}

			start := time.Now()
			assignments, err := ch.RoundTrip(gctx, centroids)
			c.run.opts.Metrics.OnRoundTrip(i, time.Since(start), err)
			if err != nil {
				return &PartitionError{Partition: i, Op: "round trip", Err: err}
			}

			c.slots[i] = assignments
			c.markResponded(i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		pending := c.pending()
		c.run.logger.Warn("iteration aborted", "iteration", it, "pending", pending, "error", err)
		return &IncompleteError{Iteration: it, Pending: pending, Err: err}
	}

	return c.merge()
}

func (c *coordinator) markResponded(partition int) {
	c.mu.Lock()
	c.responded.Set(uint(partition))
	c.mu.Unlock()
}

// pending returns the partitions that have not answered in this iteration, ascending.
func (c *coordinator) pending() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []int
	for i, ok := c.responded.NextClear(0); ok && i < uint(len(c.ranges)); i, ok = c.responded.NextClear(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// merge writes every slot back into the point set in partition order.
func (c *coordinator) merge() error {
	for i, assignments := range c.slots {
		if err := c.run.set.Apply(c.ranges[i], assignments); err != nil {
			return &PartitionError{Partition: i, Op: "merge", Err: err}
		}
	}
	return nil
}

// close shuts every launched worker down concurrently and reports wire traffic.
func (c *coordinator) close() {
	var (
		g          errgroup.Group
		sent, recv int64
	)

	for _, ch := range c.channels {
		if ch == nil {
			continue
		}
		sent += ch.BytesSent()
		recv += ch.BytesReceived()

		g.Go(func() error {
			if err := ch.Close(); err != nil {
				return fmt.Errorf("partition %d: %w", ch.Partition(), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.run.logger.Warn("worker shutdown failed", "error", err)
	}

	c.run.opts.Metrics.OnThroughput("wire.sent", sent)
	c.run.opts.Metrics.OnThroughput("wire.received", recv)
	c.run.logger.Debug("workers closed", "sent_bytes", sent, "received_bytes", recv, "io_bytes", c.resources.IOBytes())
}
