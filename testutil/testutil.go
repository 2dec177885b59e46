package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/lloyd/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformPoints generates n unassigned points in the square [minVal, maxVal)².
func (r *RNG) UniformPoints(n int, minVal, maxVal float64) []model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := maxVal - minVal
	points := make([]model.Point, n)
	for i := range points {
		points[i] = model.NewPoint(minVal+r.rand.Float64()*span, minVal+r.rand.Float64()*span)
	}
	return points
}

// Blobs generates perPoint points around every center with normally distributed
// offsets of the given spread. Points are grouped by center in center order.
func (r *RNG) Blobs(centers []model.Centroid, perCenter int, spread float64) []model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([]model.Point, 0, len(centers)*perCenter)
	for _, c := range centers {
		for range perCenter {
			points = append(points, model.NewPoint(
				c.X+r.rand.NormFloat64()*spread,
				c.Y+r.rand.NormFloat64()*spread,
			))
		}
	}
	return points
}

// Shuffle permutes points in place.
func (r *RNG) Shuffle(points []model.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })
}

// Scenario returns the six-point two-blob dataset used across the test suites.
func Scenario() []model.Point {
	return model.FromPairs([][2]float64{
		{0, 0}, {1, 0}, {0, 1},
		{10, 10}, {11, 10}, {10, 11},
	})
}

// ScenarioSeeds returns one seed inside each blob of Scenario.
func ScenarioSeeds() []model.Centroid {
	return []model.Centroid{{X: 0, Y: 0}, {X: 10, Y: 10}}
}

// TwelvePoints returns a deterministic twelve-point dataset in two blobs,
// interleaved so that the first two points seed different blobs.
func TwelvePoints() []model.Point {
	return model.FromPairs([][2]float64{
		{0, 0}, {20, 20},
		{1, 0}, {21, 20},
		{0, 1}, {20, 21},
		{1, 1}, {21, 21},
		{0.5, 0.5}, {20.5, 20.5},
		{2, 1}, {22, 21},
	})
}
