// Package pointset holds the mutable point array of a clustering run.
//
// The set is the single owner of cluster assignments. Concurrent phases hand out
// disjoint sub-slices via Slice; merges from remote workers go through Apply from a
// single goroutine. Commit closes an iteration and records which points moved.
package pointset

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/lloyd/internal/kmeans"
	"github.com/hupe1980/lloyd/model"
)

// ErrAssignmentMismatch is returned when a merged assignment batch does not match its range.
var ErrAssignmentMismatch = errors.New("pointset: assignment count mismatch")

// ErrClusterOutOfRange is returned when a merged assignment names a cluster >= k.
var ErrClusterOutOfRange = errors.New("pointset: cluster index out of range")

// Set is the point array of one run.
type Set struct {
	points    []model.Point
	k         int
	committed []int32
	moved     *roaring.Bitmap
}

// New copies points into a fresh set with every point unassigned.
func New(points []model.Point, k int) *Set {
	owned := make([]model.Point, len(points))
	committed := make([]int32, len(points))
	for i, p := range points {
		owned[i] = model.NewPoint(p.X, p.Y)
		committed[i] = model.Unassigned
	}

	return &Set{
		points:    owned,
		k:         k,
		committed: committed,
		moved:     roaring.New(),
	}
}

// Len returns the number of points.
func (s *Set) Len() int { return len(s.points) }

// K returns the cluster count.
func (s *Set) K() int { return s.k }

// Slice returns the sub-slice covered by r. The caller gets exclusive write access to
// it for the duration of a phase; ranges handed out in one phase must be disjoint.
func (s *Set) Slice(r model.Range) []model.Point {
	return s.points[r.Start:r.End]
}

// Apply writes remote assignments for range r back into the set.
func (s *Set) Apply(r model.Range, assignments []int32) error {
	if len(assignments) != r.Len() {
		return fmt.Errorf("%w: range %s has %d points, got %d assignments",
			ErrAssignmentMismatch, r, r.Len(), len(assignments))
	}

	for i, c := range assignments {
		if c < 0 || int(c) >= s.k {
			return fmt.Errorf("%w: point %d assigned to %d (k=%d)", ErrClusterOutOfRange, r.Start+i, c, s.k)
		}
		s.points[r.Start+i].Cluster = int(c)
	}
	return nil
}

// Commit closes an iteration. It records the indices whose cluster changed since the
// previous commit and returns their count.
func (s *Set) Commit() uint64 {
	s.moved.Clear()
	for i := range s.points {
		c := int32(s.points[i].Cluster)
		if c != s.committed[i] {
			s.moved.Add(uint32(i))
			s.committed[i] = c
		}
	}
	s.moved.RunOptimize()
	return s.moved.GetCardinality()
}

// Moved returns the indices that changed cluster in the last committed
// iteration, in ascending order.
func (s *Set) Moved() []uint32 { return s.moved.ToArray() }

// Recompute returns the centroids for the current assignments.
func (s *Set) Recompute(centroids []model.Centroid) []model.Centroid {
	return kmeans.Recompute(s.points, centroids)
}

// Sizes returns the number of points per cluster.
func (s *Set) Sizes() []int { return kmeans.Sizes(s.points, s.k) }

// Assignments returns a copy of the cluster index of every point.
func (s *Set) Assignments() []int {
	out := make([]int, len(s.points))
	for i := range s.points {
		out[i] = s.points[i].Cluster
	}
	return out
}
