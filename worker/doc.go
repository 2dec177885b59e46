// Package worker runs k-means assignment passes in external processes.
//
// The coordinator side is a Channel: it listens on an ephemeral loopback port,
// launches the worker process, accepts its connection and then exchanges one
// centroids/assignments pair per iteration over the framed wire protocol.
//
// The process side is Serve (and Main, which parses the launch arguments and
// dials the coordinator). A worker receives its partition exactly once, then
// answers every centroid broadcast with the nearest-centroid index of each of
// its points until the coordinator closes the connection.
package worker
