package wire

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/hupe1980/lloyd/codec"
	"github.com/hupe1980/lloyd/model"
)

const headerSize = 16

// DefaultMaxFrameSize bounds a single frame (compressed and raw) to 256 MiB.
const DefaultMaxFrameSize = 256 << 20

// maxFrameLimit keeps frame lengths representable in the u32 header fields on every platform.
const maxFrameLimit = 1<<31 - 1

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Limiter paces bytes written to the connection. *resource.Controller implements it.
type Limiter interface {
	AcquireIO(ctx context.Context, bytes int) error
}

// Options configures a Conn.
type Options struct {
	// Compression applies to outgoing frames.
	Compression Compression

	// MaxFrameSize bounds every frame in both directions. Array messages are
	// split into chunks that fit. If 0, DefaultMaxFrameSize; values below
	// MinFrameSize are raised to it.
	MaxFrameSize int

	// Codec encodes the Hello frame. If nil, codec.Default.
	Codec codec.Codec

	// Limiter, if set, is consulted before every frame write.
	Limiter Limiter
}

// DefaultOptions are used when no option function overrides them.
var DefaultOptions = Options{
	Compression:  CompressionNone,
	MaxFrameSize: DefaultMaxFrameSize,
	Codec:        codec.Default,
}

// Conn is a framed, buffered stream connection. A Conn is not safe for concurrent
// writers or concurrent readers; one reader and one writer may run in parallel.
type Conn struct {
	c    net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
	opts Options

	sent     atomic.Int64
	received atomic.Int64
}

// NewConn wraps c.
func NewConn(c net.Conn, optFns ...func(o *Options)) *Conn {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	switch {
	case opts.MaxFrameSize <= 0:
		opts.MaxFrameSize = DefaultMaxFrameSize
	case opts.MaxFrameSize < MinFrameSize:
		opts.MaxFrameSize = MinFrameSize
	case opts.MaxFrameSize > maxFrameLimit:
		opts.MaxFrameSize = maxFrameLimit
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	return &Conn{
		c:    c,
		r:    bufio.NewReaderSize(c, 64<<10),
		w:    bufio.NewWriterSize(c, 64<<10),
		opts: opts,
	}
}

// WriteFrame writes one frame and flushes it.
func (c *Conn) WriteFrame(ctx context.Context, typ MessageType, raw []byte) error {
	if len(raw) > c.opts.MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(raw))
	}

	payload, used := compress(raw, c.opts.Compression)

	var hdr [headerSize]byte
	hdr[0] = byte(typ)
	hdr[1] = byte(used)
	// hdr[2:4] reserved
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(raw)))
	binary.LittleEndian.PutUint32(hdr[12:16], crc32.Checksum(raw, castagnoli))

	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.AcquireIO(ctx, headerSize+len(payload)); err != nil {
			return err
		}
	}

	if _, err := c.w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := c.w.Write(payload); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return err
	}

	c.sent.Add(int64(headerSize + len(payload)))
	return nil
}

// ReadFrame reads one frame and returns its type and raw payload.
// A clean EOF before the first header byte is returned as io.EOF.
func (c *Conn) ReadFrame() (MessageType, []byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return 0, nil, fmt.Errorf("%w: truncated header", ErrMalformed)
		}
		return 0, nil, err
	}

	typ := MessageType(hdr[0])
	comp := Compression(hdr[1])
	length := int(binary.LittleEndian.Uint32(hdr[4:8]))
	rawLen := int(binary.LittleEndian.Uint32(hdr[8:12]))
	sum := binary.LittleEndian.Uint32(hdr[12:16])

	if !typ.valid() {
		return 0, nil, fmt.Errorf("%w: unknown message type %d", ErrMalformed, uint8(typ))
	}
	if length > c.opts.MaxFrameSize || rawLen > c.opts.MaxFrameSize {
		return 0, nil, fmt.Errorf("%w: %w: %d bytes (raw %d)", ErrMalformed, ErrFrameTooLarge, length, rawLen)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, nil, fmt.Errorf("%w: truncated %s payload", ErrMalformed, typ)
		}
		return 0, nil, err
	}
	c.received.Add(int64(headerSize + length))

	raw, err := decompress(payload, comp, rawLen)
	if err != nil {
		return 0, nil, err
	}
	if crc32.Checksum(raw, castagnoli) != sum {
		return 0, nil, fmt.Errorf("%w: %s frame", ErrChecksum, typ)
	}

	return typ, raw, nil
}

// expect reads one frame and checks its type.
func (c *Conn) expect(want MessageType) ([]byte, error) {
	typ, raw, err := c.ReadFrame()
	if err != nil {
		return nil, err
	}
	if typ != want {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrUnexpectedMessage, want, typ)
	}
	return raw, nil
}

// SendHello writes the worker handshake.
func (c *Conn) SendHello(ctx context.Context, h Hello) error {
	raw, err := c.opts.Codec.Marshal(h)
	if err != nil {
		return fmt.Errorf("wire: encode hello: %w", err)
	}
	return c.WriteFrame(ctx, MsgHello, raw)
}

// MaxFrameSize returns the frame bound in effect.
func (c *Conn) MaxFrameSize() int { return c.opts.MaxFrameSize }

// chunkLen is the number of records of size elem that fit in one frame.
func (c *Conn) chunkLen(elem int) int {
	return (c.opts.MaxFrameSize - chunkHeaderSize) / elem
}

// sendChunks calls send for consecutive [lo, hi) windows of at most per
// records. At least one window is sent, so an empty array still arrives.
func sendChunks(total, per int, send func(lo, hi int) error) error {
	for lo := 0; ; {
		hi := min(lo+per, total)
		if err := send(lo, hi); err != nil {
			return err
		}
		if hi == total {
			return nil
		}
		lo = hi
	}
}

// maxPrealloc caps the capacity reserved from a peer-supplied total.
const maxPrealloc = 1 << 20

// recvChunks reads frames of type typ until the stream total announced by the
// first chunk has arrived.
func recvChunks[T any](c *Conn, typ MessageType, decode func([]byte) ([]T, int, error)) ([]T, error) {
	var out []T
	total := -1
	for {
		raw, err := c.expect(typ)
		if err != nil {
			return nil, err
		}
		chunk, t, err := decode(raw)
		if err != nil {
			return nil, err
		}

		if total < 0 {
			total = t
			out = make([]T, 0, min(total, maxPrealloc))
		} else if t != total {
			return nil, fmt.Errorf("%w: %s chunk announces total %d, stream has %d", ErrMalformed, typ, t, total)
		}
		if len(chunk) == 0 && total > 0 {
			return nil, fmt.Errorf("%w: empty %s chunk", ErrMalformed, typ)
		}
		if len(out)+len(chunk) > total {
			return nil, fmt.Errorf("%w: %s stream overruns total %d", ErrMalformed, typ, total)
		}

		out = append(out, chunk...)
		if len(out) == total {
			return out, nil
		}
	}
}

// SendPoints writes a partition.
func (c *Conn) SendPoints(ctx context.Context, points []model.Point) error {
	return sendChunks(len(points), c.chunkLen(pairSize), func(lo, hi int) error {
		return c.WriteFrame(ctx, MsgPoints, EncodePoints(points[lo:hi], len(points)))
	})
}

// SendCentroids writes a centroid set.
func (c *Conn) SendCentroids(ctx context.Context, centroids []model.Centroid) error {
	return sendChunks(len(centroids), c.chunkLen(pairSize), func(lo, hi int) error {
		return c.WriteFrame(ctx, MsgCentroids, EncodeCentroids(centroids[lo:hi], len(centroids)))
	})
}

// SendAssignments writes an assignment array.
func (c *Conn) SendAssignments(ctx context.Context, assignments []int32) error {
	return sendChunks(len(assignments), c.chunkLen(indexSize), func(lo, hi int) error {
		return c.WriteFrame(ctx, MsgAssignments, EncodeAssignments(assignments[lo:hi], len(assignments)))
	})
}

// RecvHello reads the worker handshake.
func (c *Conn) RecvHello() (Hello, error) {
	raw, err := c.expect(MsgHello)
	if err != nil {
		return Hello{}, err
	}
	var h Hello
	if err := c.opts.Codec.Unmarshal(raw, &h); err != nil {
		return Hello{}, fmt.Errorf("%w: hello: %w", ErrMalformed, err)
	}
	return h, nil
}

// RecvPoints reads a partition.
func (c *Conn) RecvPoints() ([]model.Point, error) {
	return recvChunks(c, MsgPoints, DecodePoints)
}

// RecvCentroids reads a centroid set.
func (c *Conn) RecvCentroids() ([]model.Centroid, error) {
	return recvChunks(c, MsgCentroids, DecodeCentroids)
}

// RecvAssignments reads an assignment array.
func (c *Conn) RecvAssignments() ([]int32, error) {
	return recvChunks(c, MsgAssignments, DecodeAssignments)
}

// SetDeadline sets the read and write deadline of the underlying connection.
func (c *Conn) SetDeadline(t time.Time) error { return c.c.SetDeadline(t) }

// BytesSent returns the number of bytes written so far.
func (c *Conn) BytesSent() int64 { return c.sent.Load() }

// BytesReceived returns the number of bytes read so far.
func (c *Conn) BytesReceived() int64 { return c.received.Load() }

// Close closes both directions of the connection.
func (c *Conn) Close() error { return c.c.Close() }
