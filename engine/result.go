package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/lloyd/model"
)

// Strategy names an execution strategy.
type Strategy string

const (
	StrategySequential  Strategy = "sequential"
	StrategyParallel    Strategy = "parallel"
	StrategyDistributed Strategy = "distributed"
)

// Summary holds the number of points per cluster, indexed by cluster.
type Summary []int

// String renders one line per cluster, numbered from 1:
//
//	Cluster 1: 3
//	Cluster 2: 3
func (s Summary) String() string {
	var b strings.Builder
	for i, n := range s {
		fmt.Fprintf(&b, "Cluster %d: %d\n", i+1, n)
	}
	return b.String()
}

// Total returns the number of assigned points.
func (s Summary) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// Result is the outcome of a completed run.
type Result struct {
	Strategy    Strategy         `json:"strategy"`
	Summary     Summary          `json:"summary"`
	Assignments []int            `json:"assignments"`
	Centroids   []model.Centroid `json:"centroids"`
	Iterations  int              `json:"iterations"`
	// Moved holds, per iteration, the number of points whose cluster changed.
	Moved []uint64 `json:"moved"`
	// LastMoved lists, in ascending order, the indices of the points whose
	// cluster changed in the final iteration.
	LastMoved []uint32      `json:"last_moved"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Converged reports whether the final iteration moved no point.
func (r *Result) Converged() bool {
	return len(r.Moved) > 0 && len(r.LastMoved) == 0
}
