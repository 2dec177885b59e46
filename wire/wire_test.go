package wire

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/lloyd/codec"
	"github.com/hupe1980/lloyd/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipe(t *testing.T, optFns ...func(o *Options)) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return NewConn(a, optFns...), NewConn(b, optFns...)
}

// async runs fn in a goroutine and returns a channel with its error.
func async(fn func() error) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- fn() }()
	return ch
}

func gridPoints(n int) []model.Point {
	points := make([]model.Point, n)
	for i := range points {
		points[i] = model.NewPoint(float64(i%10), float64(i/10))
	}
	return points
}

func TestRoundTrip_AllCompressions(t *testing.T) {
	ctx := context.Background()

	for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(comp.String(), func(t *testing.T) {
			sender, receiver := pipe(t, func(o *Options) { o.Compression = comp })

			points := gridPoints(2000)
			centroids := []model.Centroid{{X: 0.5, Y: -1.25}, {X: 1e9, Y: -3}}
			assignments := make([]int32, 2000)
			for i := range assignments {
				assignments[i] = int32(i % 2)
			}

			done := async(func() error {
				if err := sender.SendHello(ctx, Hello{PID: 42, K: 2}); err != nil {
					return err
				}
				if err := sender.SendPoints(ctx, points); err != nil {
					return err
				}
				if err := sender.SendCentroids(ctx, centroids); err != nil {
					return err
				}
				return sender.SendAssignments(ctx, assignments)
			})

			h, err := receiver.RecvHello()
			require.NoError(t, err)
			assert.Equal(t, Hello{PID: 42, K: 2}, h)

			gotPoints, err := receiver.RecvPoints()
			require.NoError(t, err)
			assert.Equal(t, points, gotPoints)

			gotCentroids, err := receiver.RecvCentroids()
			require.NoError(t, err)
			assert.Equal(t, centroids, gotCentroids)

			gotAssignments, err := receiver.RecvAssignments()
			require.NoError(t, err)
			assert.Equal(t, assignments, gotAssignments)

			require.NoError(t, <-done)
			assert.Equal(t, sender.BytesSent(), receiver.BytesReceived())
		})
	}
}

func TestCompressionShrinksRepetitivePayload(t *testing.T) {
	raw := EncodeAssignments(make([]int32, 4096), 4096)

	for _, comp := range []Compression{CompressionLZ4, CompressionZSTD} {
		out, used := compress(raw, comp)
		assert.Equal(t, comp, used)
		assert.Less(t, len(out), len(raw))

		back, err := decompress(out, used, len(raw))
		require.NoError(t, err)
		assert.Equal(t, raw, back)
	}

	small, used := compress([]byte{1, 2, 3}, CompressionZSTD)
	assert.Equal(t, CompressionNone, used)
	assert.Equal(t, []byte{1, 2, 3}, small)
}

func TestEmptyMessages(t *testing.T) {
	ctx := context.Background()
	sender, receiver := pipe(t)

	done := async(func() error {
		if err := sender.SendPoints(ctx, nil); err != nil {
			return err
		}
		return sender.SendAssignments(ctx, nil)
	})

	points, err := receiver.RecvPoints()
	require.NoError(t, err)
	assert.Empty(t, points)

	assignments, err := receiver.RecvAssignments()
	require.NoError(t, err)
	assert.Empty(t, assignments)
	require.NoError(t, <-done)
}

func rawFrame(typ MessageType, comp Compression, payload []byte, rawLen int, sum uint32) []byte {
	hdr := make([]byte, headerSize)
	hdr[0] = byte(typ)
	hdr[1] = byte(comp)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(rawLen))
	binary.LittleEndian.PutUint32(hdr[12:16], sum)
	return append(hdr, payload...)
}

func readRaw(t *testing.T, data []byte, optFns ...func(o *Options)) error {
	t.Helper()
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	go func() {
		if len(data) > 0 {
			_, _ = a.Write(data)
		}
		_ = a.Close()
	}()

	_, _, err := NewConn(b, optFns...).ReadFrame()
	return err
}

func TestReadFrame_Rejects(t *testing.T) {
	payload := EncodeCentroids([]model.Centroid{{X: 1, Y: 2}}, 1)

	t.Run("checksum", func(t *testing.T) {
		err := readRaw(t, rawFrame(MsgCentroids, CompressionNone, payload, len(payload), 0xdeadbeef))
		assert.ErrorIs(t, err, ErrChecksum)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("truncated header", func(t *testing.T) {
		err := readRaw(t, []byte{byte(MsgCentroids), 0, 0})
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("truncated payload", func(t *testing.T) {
		frame := rawFrame(MsgCentroids, CompressionNone, payload, len(payload), 0)
		err := readRaw(t, frame[:len(frame)-3])
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("unknown type", func(t *testing.T) {
		err := readRaw(t, rawFrame(MessageType(99), CompressionNone, payload, len(payload), 0))
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("unknown compression", func(t *testing.T) {
		err := readRaw(t, rawFrame(MsgCentroids, Compression(7), payload, len(payload), 0))
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("too large", func(t *testing.T) {
		large := EncodeCentroids(make([]model.Centroid, 10), 10)
		err := readRaw(t, rawFrame(MsgCentroids, CompressionNone, large, len(large), 0),
			func(o *Options) { o.MaxFrameSize = MinFrameSize })
		assert.ErrorIs(t, err, ErrFrameTooLarge)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("clean eof", func(t *testing.T) {
		err := readRaw(t, nil)
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestUnexpectedMessage(t *testing.T) {
	ctx := context.Background()
	sender, receiver := pipe(t)

	done := async(func() error {
		return sender.SendCentroids(ctx, []model.Centroid{{X: 1, Y: 1}})
	})

	_, err := receiver.RecvAssignments()
	assert.ErrorIs(t, err, ErrUnexpectedMessage)
	require.NoError(t, <-done)
}

func TestDecode_CountMismatch(t *testing.T) {
	payload := EncodePoints(gridPoints(3), 3)

	_, _, err := DecodePoints(payload[:len(payload)-1])
	assert.ErrorIs(t, err, ErrMalformed)

	_, _, err = DecodeAssignments([]byte{1, 0})
	assert.ErrorIs(t, err, ErrMalformed)

	binary.LittleEndian.PutUint32(payload[4:], 4)
	_, _, err = DecodeCentroids(payload)
	assert.ErrorIs(t, err, ErrMalformed)

	_, _, err = DecodePoints(EncodePoints(gridPoints(3), 2))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestChunkedStreams(t *testing.T) {
	ctx := context.Background()

	for _, comp := range []Compression{CompressionNone, CompressionZSTD} {
		t.Run(comp.String(), func(t *testing.T) {
			sender, receiver := pipe(t, func(o *Options) {
				o.Compression = comp
				o.MaxFrameSize = 1024
			})

			points := gridPoints(1000)
			centroids := make([]model.Centroid, 300)
			for i := range centroids {
				centroids[i] = model.Centroid{X: float64(i), Y: -float64(i)}
			}
			assignments := make([]int32, 1000)
			for i := range assignments {
				assignments[i] = int32(i % 7)
			}

			done := async(func() error {
				if err := sender.SendPoints(ctx, points); err != nil {
					return err
				}
				if err := sender.SendCentroids(ctx, centroids); err != nil {
					return err
				}
				return sender.SendAssignments(ctx, assignments)
			})

			gotPoints, err := receiver.RecvPoints()
			require.NoError(t, err)
			assert.Equal(t, points, gotPoints)

			gotCentroids, err := receiver.RecvCentroids()
			require.NoError(t, err)
			assert.Equal(t, centroids, gotCentroids)

			gotAssignments, err := receiver.RecvAssignments()
			require.NoError(t, err)
			assert.Equal(t, assignments, gotAssignments)

			require.NoError(t, <-done)

			// 1000 points at 63 per frame need 16 frames.
			assert.Greater(t, sender.BytesSent(), int64(16*headerSize))
		})
	}
}

func TestRecvChunks_Rejects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		frames [][]byte
	}{
		{
			name: "total changes mid-stream",
			frames: [][]byte{
				EncodePoints(gridPoints(2), 4),
				EncodePoints(gridPoints(2), 5),
			},
		},
		{
			name: "overrun",
			frames: [][]byte{
				EncodePoints(gridPoints(3), 4),
				EncodePoints(gridPoints(3), 4),
			},
		},
		{
			name: "empty chunk",
			frames: [][]byte{
				EncodePoints(gridPoints(1), 4),
				EncodePoints(nil, 4),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, receiver := pipe(t)

			done := async(func() error {
				for _, f := range tt.frames {
					if err := sender.WriteFrame(ctx, MsgPoints, f); err != nil {
						return err
					}
				}
				return nil
			})

			_, err := receiver.RecvPoints()
			assert.ErrorIs(t, err, ErrMalformed)
			_ = receiver.Close()
			<-done
		})
	}
}

func TestWriteFrame_OversizeIsLocal(t *testing.T) {
	sender, _ := pipe(t, func(o *Options) { o.MaxFrameSize = MinFrameSize })

	err := sender.WriteFrame(context.Background(), MsgPoints, make([]byte, MinFrameSize+1))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.NotErrorIs(t, err, ErrMalformed)
	assert.Zero(t, sender.BytesSent())
}

func TestNewConn_ClampsFrameSize(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	assert.Equal(t, DefaultMaxFrameSize, NewConn(a).MaxFrameSize())
	assert.Equal(t, MinFrameSize, NewConn(b, func(o *Options) { o.MaxFrameSize = 1 }).MaxFrameSize())
}

type countingLimiter struct{ bytes atomic.Int64 }

func (l *countingLimiter) AcquireIO(_ context.Context, n int) error {
	l.bytes.Add(int64(n))
	return nil
}

func TestLimiterSeesEveryByte(t *testing.T) {
	ctx := context.Background()
	limiter := &countingLimiter{}
	sender, receiver := pipe(t, func(o *Options) {
		o.Limiter = limiter
		o.Codec = codec.JSON{}
	})

	done := async(func() error { return sender.SendPoints(ctx, gridPoints(10)) })
	_, err := receiver.RecvPoints()
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.Equal(t, sender.BytesSent(), limiter.bytes.Load())
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("snappy")
	assert.Error(t, err)
}
