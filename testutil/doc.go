// Package testutil provides testing utilities for lloyd.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Datasets
//
//	rng := testutil.NewRNG(seed)
//	points := rng.Blobs([]model.Centroid{{X: 0, Y: 0}, {X: 10, Y: 10}}, 50, 0.5)
//
// # Worker Processes
//
// Multi-process tests re-execute their own test binary as a worker. Call
// RunWorkerIfRequested first thing in TestMain and launch workers with
// WorkerCommand:
//
//	func TestMain(m *testing.M) {
//		testutil.RunWorkerIfRequested()
//		os.Exit(m.Run())
//	}
package testutil
