package engine

import (
	"fmt"
	"math"

	"github.com/hupe1980/lloyd/model"
)

func validate(points []model.Point, k, iterations, width int, seeds []model.Centroid) error {
	if len(points) == 0 {
		return ErrEmptyDataset
	}
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("%w: point %d is (%v, %v)", ErrInvalidPoint, i, p.X, p.Y)
		}
	}
	if k < 1 || k > len(points) {
		return fmt.Errorf("%w: k=%d, points=%d", ErrInvalidK, k, len(points))
	}
	if iterations < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidIterations, iterations)
	}
	if width < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	if seeds != nil {
		if len(seeds) != k {
			return fmt.Errorf("%w: got %d seeds for k=%d", ErrInvalidSeeds, len(seeds), k)
		}
		for i, s := range seeds {
			if !finite(s.X) || !finite(s.Y) {
				return fmt.Errorf("%w: seed %d is not finite", ErrInvalidSeeds, i)
			}
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
