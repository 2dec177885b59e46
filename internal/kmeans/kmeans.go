package kmeans

import (
	"math"

	"github.com/hupe1980/lloyd/model"
)

// Seed returns the first k points as initial centroids.
// The caller guarantees 0 < k <= len(points).
func Seed(points []model.Point, k int) []model.Centroid {
	centroids := make([]model.Centroid, k)
	for i := 0; i < k; i++ {
		centroids[i] = model.CentroidOf(points[i])
	}
	return centroids
}

// squaredDistance is monotone in the Euclidean distance, so comparing it picks the
// same winner (and the same tie) without the square root.
func squaredDistance(x, y float64, c model.Centroid) float64 {
	dx := x - c.X
	dy := y - c.Y
	return dx*dx + dy*dy
}

// Nearest returns the index of the closest centroid to (x, y).
// A point equidistant from several centroids goes to the lowest index.
func Nearest(x, y float64, centroids []model.Centroid) int {
	best := 0
	minDist := math.MaxFloat64

	for j := range centroids {
		d := squaredDistance(x, y, centroids[j])
		if d < minDist {
			minDist = d
			best = j
		}
	}

	return best
}

// Assign sets Cluster on every point to its nearest centroid.
// points is usually a sub-slice exclusively owned by the caller.
func Assign(points []model.Point, centroids []model.Centroid) {
	for i := range points {
		points[i].Cluster = Nearest(points[i].X, points[i].Y, centroids)
	}
}

// AssignInto writes the nearest centroid of points[i] into dst[i] without touching
// the points. dst must be at least len(points) long.
func AssignInto(dst []int32, points []model.Point, centroids []model.Centroid) {
	for i := range points {
		dst[i] = int32(Nearest(points[i].X, points[i].Y, centroids))
	}
}

// Recompute returns the mean position of the points assigned to each centroid.
// A centroid without points keeps its previous position; unassigned points are ignored.
func Recompute(points []model.Point, centroids []model.Centroid) []model.Centroid {
	k := len(centroids)
	sums := make([]model.Centroid, k)
	counts := make([]int, k)

	for i := range points {
		cluster := points[i].Cluster
		if cluster < 0 || cluster >= k {
			continue
		}
		sums[cluster].X += points[i].X
		sums[cluster].Y += points[i].Y
		counts[cluster]++
	}

	next := make([]model.Centroid, k)
	for j := 0; j < k; j++ {
		if counts[j] == 0 {
			next[j] = centroids[j]
			continue
		}
		next[j] = model.Centroid{
			X: sums[j].X / float64(counts[j]),
			Y: sums[j].Y / float64(counts[j]),
		}
	}

	return next
}

// Sizes counts the points assigned to each of the k clusters.
func Sizes(points []model.Point, k int) []int {
	sizes := make([]int, k)
	for i := range points {
		if c := points[i].Cluster; c >= 0 && c < k {
			sizes[c]++
		}
	}
	return sizes
}
