// Package lloyd clusters 2-D points with Lloyd's k-means algorithm.
//
// The same iteration (assign every point to its nearest centroid, then move
// every centroid to the mean of its points) runs under one of three strategies:
//
//   - Sequential: a single goroutine.
//   - Parallel: a fixed pool of goroutines, each owning a disjoint partition.
//   - Distributed: one worker process per partition, connected over loopback TCP.
//
// For the same input every strategy produces the same result.
//
// # Quick Start
//
//	points := model.FromPairs([][2]float64{{0, 0}, {1, 0}, {0, 1}, {10, 10}, {11, 10}, {10, 11}})
//
//	res, err := lloyd.Parallel(ctx, points, 2, 10, runtime.NumCPU())
//	if err != nil {
//	    return err
//	}
//	fmt.Print(res.Summary) // Cluster 1: 3\nCluster 2: 3
//
// # Worker Processes
//
// The distributed strategy launches the lloyd-worker command (see
// cmd/lloyd-worker) once per partition. By default it is looked up next to the
// running executable and then on PATH; WithWorkerCommand overrides it:
//
//	res, err := lloyd.Distributed(ctx, points, 2, 10, 4,
//	    lloyd.WithWorkerCommand("/usr/local/bin/lloyd-worker"),
//	    lloyd.WithCompression(wire.CompressionLZ4),
//	    lloyd.WithRPCTimeout(30*time.Second),
//	)
//
// Every worker is launched with "-addr host:port -k k" and connects back to a
// listener the coordinator opened beforehand. If any worker fails to start,
// times out, sends malformed data or dies, the whole run fails with a
// *PartitionError and every other worker is shut down.
//
// # Seeds
//
// The first k points are the initial centroids unless WithSeeds provides them.
//
// # Observability
//
// WithLogger attaches a structured slog logger and WithMetricsCollector a
// MetricsCollector (BasicMetricsCollector keeps in-memory counters).
package lloyd
