package main

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/hupe1980/lloyd"
	"github.com/hupe1980/lloyd/model"
	"github.com/hupe1980/lloyd/testutil"
	"github.com/hupe1980/lloyd/wire"
)

func main() {
	seed := int64(4711)
	perBlob := 100000
	k := 4
	iterations := 20
	width := runtime.NumCPU()

	rng := testutil.NewRNG(seed)
	points := rng.Blobs([]model.Centroid{
		{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 0, Y: 50}, {X: 50, Y: 50},
	}, perBlob, 8)
	rng.Shuffle(points)

	fmt.Println("Points:", len(points))
	fmt.Println("Clusters:", k)
	fmt.Println("Iterations:", iterations)
	fmt.Println("Width:", width)
	fmt.Println()

	ctx := context.Background()

	for _, strategy := range []lloyd.Strategy{lloyd.StrategySequential, lloyd.StrategyParallel, lloyd.StrategyDistributed} {
		fmt.Printf("--- %s ---\n", strategy)

		start := time.Now()

		// The distributed strategy needs lloyd-worker next to this binary or on PATH.
		res, err := lloyd.Run(ctx, strategy, points, k, iterations, width,
			lloyd.WithCompression(wire.CompressionLZ4),
			lloyd.WithMaxConcurrentLaunches(int64(width)),
		)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("Seconds: %.2f\n", time.Since(start).Seconds())
		fmt.Printf("Converged: %v (moved in last iteration: %d)\n", res.Converged(), res.Moved[len(res.Moved)-1])
		fmt.Print(res.Summary)
		fmt.Println()
	}
}
