package model

import (
	"fmt"
)

// Unassigned marks a point that has not been through an assignment pass yet.
const Unassigned = -1

// Point is a 2-D coordinate together with the index of the cluster it belongs to.
type Point struct {
	X       float64
	Y       float64
	Cluster int
}

// NewPoint returns an unassigned point.
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y, Cluster: Unassigned}
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)@%d", p.X, p.Y, p.Cluster)
}

// Centroid is the representative position of a cluster.
type Centroid struct {
	X float64
	Y float64
}

// CentroidOf returns a centroid located at p.
func CentroidOf(p Point) Centroid {
	return Centroid{X: p.X, Y: p.Y}
}

// Range is a half-open [Start, End) interval over the point sequence.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices covered by the range.
func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Empty reports whether the range covers no index.
func (r Range) Empty() bool { return r.Len() == 0 }

// String returns a string representation of the Range.
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// FromPairs converts raw coordinate pairs into unassigned points.
func FromPairs(pairs [][2]float64) []Point {
	points := make([]Point, len(pairs))
	for i, p := range pairs {
		points[i] = NewPoint(p[0], p[1])
	}
	return points
}
