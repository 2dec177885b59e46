package lloyd

import (
	"fmt"

	"github.com/hupe1980/lloyd/codec"
	"github.com/hupe1980/lloyd/engine"
)

// Summary holds the number of points per cluster. Its String method renders
// one "Cluster i: n" line per cluster, numbered from 1.
type Summary = engine.Summary

// EncodeResult serializes a result with the given codec (codec.Default if nil).
func EncodeResult(res *Result, c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	b, err := c.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode result with %s: %w", c.Name(), err)
	}
	return b, nil
}

// DecodeResult parses a result produced by EncodeResult.
func DecodeResult(data []byte, c codec.Codec) (*Result, error) {
	if c == nil {
		c = codec.Default
	}
	var res Result
	if err := c.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode result with %s: %w", c.Name(), err)
	}
	return &res, nil
}
