// Command lloyd-worker is the worker process of the distributed k-means strategy.
//
// It is launched by the coordinator with
//
//	lloyd-worker -addr 127.0.0.1:PORT -k K [-codec NAME] [-compression NAME] [-log-level LEVEL]
//
// connects back to addr, receives its partition and answers every centroid
// broadcast with the nearest-centroid index of each of its points. It exits
// with status 0 when the coordinator closes the connection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/lloyd/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := worker.Main(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "lloyd-worker: %v\n", err)
		stop()
		os.Exit(1)
	}
}
