// Package engine runs Lloyd's k-means iterations with one of three strategies.
//
// # Strategies
//
//   - Sequential: one goroutine assigns every point, then recomputes centroids.
//   - Parallel: the points are split into T disjoint partitions that a long-lived
//     WorkerPool assigns concurrently; a per-iteration barrier precedes the
//     sequential centroid recomputation.
//   - Distributed: every partition lives in an external worker process reached
//     through a worker.Channel. Each iteration broadcasts the centroids to all
//     workers under an errgroup barrier, merges their assignments in partition
//     order and recomputes the centroids locally.
//
// All strategies share the same assignment rule (nearest centroid, ties to the
// lowest index) and the same recomputation rule (a centroid without points
// stays where it is), so for equal inputs they produce identical results.
//
// # Failure Model
//
// A run either completes or fails as a whole. A failing partition task, worker
// launch or round trip is reported as a *PartitionError naming the partition;
// in the distributed strategy the first failure cancels every sibling round
// trip and all worker processes are shut down before the error is returned.
package engine
