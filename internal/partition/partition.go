// Package partition splits a point sequence into contiguous, disjoint ranges.
package partition

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lloyd/model"
)

// ErrInvalidCount is returned when the point or worker count is out of range.
var ErrInvalidCount = errors.New("partition: invalid count")

// Split divides [0, n) into w contiguous ranges of n/w indices each.
// The last range absorbs the remainder, so n=10, w=3 yields sizes 3, 3, 4.
// When w > n every range but the last is empty.
func Split(n, w int) ([]model.Range, error) {
	if n < 0 || w <= 0 {
		return nil, fmt.Errorf("%w: n=%d w=%d", ErrInvalidCount, n, w)
	}

	size := n / w
	ranges := make([]model.Range, w)
	for i := 0; i < w; i++ {
		start := i * size
		end := start + size
		if i == w-1 {
			end = n
		}
		ranges[i] = model.Range{Start: start, End: end}
	}

	return ranges, nil
}
