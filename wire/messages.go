package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/lloyd/model"
)

// MessageType identifies the payload layout of a frame.
type MessageType uint8

const (
	// MsgHello is the worker's first frame after dialing.
	MsgHello MessageType = iota + 1
	// MsgPoints carries a worker's partition; sent once per run.
	MsgPoints
	// MsgCentroids carries the global centroid set; sent every iteration.
	MsgCentroids
	// MsgAssignments carries one cluster index per partition point.
	MsgAssignments
)

// String returns the name of the message type.
func (t MessageType) String() string {
	switch t {
	case MsgHello:
		return "hello"
	case MsgPoints:
		return "points"
	case MsgCentroids:
		return "centroids"
	case MsgAssignments:
		return "assignments"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

func (t MessageType) valid() bool {
	return t >= MsgHello && t <= MsgAssignments
}

// Hello is sent by a worker right after it connects.
type Hello struct {
	PID int `json:"pid"`
	K   int `json:"k"`
}

// Array messages (points, centroids, assignments) are streamed as one or more
// chunk frames. Every chunk starts with the stream total and its own record
// count; the receiver appends chunks until the total is reached. An empty
// array is a single chunk with total 0.
const (
	chunkHeaderSize = 8
	pairSize        = 16
	indexSize       = 4
)

// MinFrameSize is the smallest usable MaxFrameSize: one chunk header plus one
// coordinate pair, rounded up so a handshake always fits.
const MinFrameSize = 64

func appendChunkHeader(dst []byte, total, count int) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(total))
	return binary.LittleEndian.AppendUint32(dst, uint32(count))
}

func appendPair(dst []byte, x, y float64) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(x))
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(y))
}

// EncodePoints encodes one chunk of a point stream of total points.
// Cluster indices are not sent.
func EncodePoints(chunk []model.Point, total int) []byte {
	buf := make([]byte, 0, chunkHeaderSize+len(chunk)*pairSize)
	buf = appendChunkHeader(buf, total, len(chunk))
	for _, p := range chunk {
		buf = appendPair(buf, p.X, p.Y)
	}
	return buf
}

// EncodeCentroids encodes one chunk of a centroid stream.
func EncodeCentroids(chunk []model.Centroid, total int) []byte {
	buf := make([]byte, 0, chunkHeaderSize+len(chunk)*pairSize)
	buf = appendChunkHeader(buf, total, len(chunk))
	for _, c := range chunk {
		buf = appendPair(buf, c.X, c.Y)
	}
	return buf
}

// EncodeAssignments encodes one chunk of an assignment stream.
func EncodeAssignments(chunk []int32, total int) []byte {
	buf := make([]byte, 0, chunkHeaderSize+len(chunk)*indexSize)
	buf = appendChunkHeader(buf, total, len(chunk))
	for _, a := range chunk {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(a))
	}
	return buf
}

// readChunkHeader validates that payload holds exactly count records of size
// elem and that the chunk fits in the stream total.
func readChunkHeader(payload []byte, elem int) (total, count int, err error) {
	if len(payload) < chunkHeaderSize {
		return 0, 0, fmt.Errorf("%w: payload shorter than chunk header", ErrMalformed)
	}
	total = int(binary.LittleEndian.Uint32(payload))
	count = int(binary.LittleEndian.Uint32(payload[4:]))
	if len(payload)-chunkHeaderSize != count*elem {
		return 0, 0, fmt.Errorf("%w: count %d does not match payload of %d bytes", ErrMalformed, count, len(payload))
	}
	if count > total {
		return 0, 0, fmt.Errorf("%w: chunk of %d exceeds total %d", ErrMalformed, count, total)
	}
	return total, count, nil
}

func readPair(payload []byte, i int) (float64, float64) {
	off := chunkHeaderSize + i*pairSize
	x := math.Float64frombits(binary.LittleEndian.Uint64(payload[off:]))
	y := math.Float64frombits(binary.LittleEndian.Uint64(payload[off+8:]))
	return x, y
}

// DecodePoints decodes a points chunk into unassigned points and returns the stream total.
func DecodePoints(payload []byte) ([]model.Point, int, error) {
	total, count, err := readChunkHeader(payload, pairSize)
	if err != nil {
		return nil, 0, err
	}
	points := make([]model.Point, count)
	for i := range points {
		x, y := readPair(payload, i)
		points[i] = model.NewPoint(x, y)
	}
	return points, total, nil
}

// DecodeCentroids decodes a centroids chunk and returns the stream total.
func DecodeCentroids(payload []byte) ([]model.Centroid, int, error) {
	total, count, err := readChunkHeader(payload, pairSize)
	if err != nil {
		return nil, 0, err
	}
	centroids := make([]model.Centroid, count)
	for i := range centroids {
		x, y := readPair(payload, i)
		centroids[i] = model.Centroid{X: x, Y: y}
	}
	return centroids, total, nil
}

// DecodeAssignments decodes an assignments chunk and returns the stream total.
func DecodeAssignments(payload []byte) ([]int32, int, error) {
	total, count, err := readChunkHeader(payload, indexSize)
	if err != nil {
		return nil, 0, err
	}
	out := make([]int32, count)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(payload[chunkHeaderSize+i*indexSize:]))
	}
	return out, total, nil
}
