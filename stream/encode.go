package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/arloliu/restructure/endian"
	"github.com/arloliu/restructure/internal/options"
	"github.com/arloliu/restructure/internal/pool"
)

var errStreamEnded = errors.New("encode stream already ended")

// EncodeStream is a buffered, append-only write cursor.
//
// Note: The EncodeStream is NOT thread-safe.
type EncodeStream struct {
	sink          io.Writer
	buf           *pool.ByteBuffer
	pooled        bool
	bufferSize    int
	fillThreshold int
	pos           int
	err           error
}

type encodeStreamConfig struct {
	bufferSize    int
	fillThreshold int
}

// EncodeStreamOption configures an EncodeStream.
type EncodeStreamOption = options.Option[*encodeStreamConfig]

// WithBufferSize sets the chunk size after which buffered writes are flushed
// to the sink. The default is pool.ChunkBufferDefaultSize.
func WithBufferSize(size int) EncodeStreamOption {
	return options.New(func(c *encodeStreamConfig) error {
		if size <= 0 {
			return fmt.Errorf("invalid buffer size: %d", size)
		}
		c.bufferSize = size

		return nil
	})
}

// WithFillThreshold sets the run length at or above which Fill bypasses the
// chunk buffer and writes straight to the sink. It defaults to the buffer size.
func WithFillThreshold(n int) EncodeStreamOption {
	return options.New(func(c *encodeStreamConfig) error {
		if n <= 0 {
			return fmt.Errorf("invalid fill threshold: %d", n)
		}
		c.fillThreshold = n

		return nil
	})
}

// NewEncodeStream creates a stream writing to sink.
//
// Returns:
//   - *EncodeStream: stream positioned at 0
//   - error: invalid option values
func NewEncodeStream(sink io.Writer, opts ...EncodeStreamOption) (*EncodeStream, error) {
	cfg := &encodeStreamConfig{bufferSize: pool.ChunkBufferDefaultSize}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.fillThreshold == 0 {
		cfg.fillThreshold = cfg.bufferSize
	}

	s := &EncodeStream{
		sink:          sink,
		bufferSize:    cfg.bufferSize,
		fillThreshold: cfg.fillThreshold,
	}

	if cfg.bufferSize == pool.ChunkBufferDefaultSize {
		s.buf = pool.GetChunkBuffer()
		s.pooled = true
	} else {
		s.buf = pool.NewByteBuffer(cfg.bufferSize)
	}

	return s, nil
}

// Pos returns the number of bytes written so far, buffered or flushed.
func (s *EncodeStream) Pos() int {
	return s.pos
}

// Err returns the first error reported by the sink, if any.
func (s *EncodeStream) Err() error {
	return s.err
}

// ensure flushes the active chunk when n more bytes would overflow it.
func (s *EncodeStream) ensure(n int) {
	if s.buf.Len()+n > s.bufferSize {
		s.flushChunk()
	}
}

// reserve returns an n byte region of the active chunk for in-place writes.
func (s *EncodeStream) reserve(n int) []byte {
	if s.buf == nil {
		if s.err == nil {
			s.err = errStreamEnded
		}

		return make([]byte, n)
	}

	s.ensure(n)
	s.pos += n

	return s.buf.Extend(n)
}

func (s *EncodeStream) flushChunk() {
	if s.buf == nil || s.buf.Len() == 0 {
		return
	}

	if s.err == nil {
		_, s.err = s.buf.WriteTo(s.sink)
	}
	s.buf.Reset()
}

func (s *EncodeStream) writeDirect(b []byte) {
	if s.buf == nil {
		if s.err == nil {
			s.err = errStreamEnded
		}

		return
	}

	s.flushChunk()
	if s.err == nil {
		_, s.err = s.sink.Write(b)
	}
	s.pos += len(b)
}

// WriteUint8 writes an unsigned 8-bit integer.
func (s *EncodeStream) WriteUint8(v uint8) {
	s.reserve(SizeInt8)[0] = v
}

// WriteInt8 writes a signed 8-bit integer.
func (s *EncodeStream) WriteInt8(v int8) {
	s.WriteUint8(uint8(v)) //nolint:gosec
}

// WriteUint16 writes an unsigned 16-bit integer in the given byte order.
func (s *EncodeStream) WriteUint16(engine endian.EndianEngine, v uint16) {
	engine.PutUint16(s.reserve(SizeInt16), v)
}

// WriteInt16 writes a signed 16-bit integer in the given byte order.
func (s *EncodeStream) WriteInt16(engine endian.EndianEngine, v int16) {
	s.WriteUint16(engine, uint16(v)) //nolint:gosec
}

// WriteUint24 writes the low 24 bits of v in the given byte order.
func (s *EncodeStream) WriteUint24(engine endian.EndianEngine, v uint32) {
	endian.PutUint24(engine, s.reserve(SizeInt24), v)
}

// WriteInt24 writes v as a 24-bit two's complement integer.
func (s *EncodeStream) WriteInt24(engine endian.EndianEngine, v int32) {
	if v < 0 {
		v += 0x1000000
	}
	s.WriteUint24(engine, uint32(v)) //nolint:gosec
}

// WriteUint32 writes an unsigned 32-bit integer in the given byte order.
func (s *EncodeStream) WriteUint32(engine endian.EndianEngine, v uint32) {
	engine.PutUint32(s.reserve(SizeInt32), v)
}

// WriteInt32 writes a signed 32-bit integer in the given byte order.
func (s *EncodeStream) WriteInt32(engine endian.EndianEngine, v int32) {
	s.WriteUint32(engine, uint32(v)) //nolint:gosec
}

// WriteFloat32 writes an IEEE 754 single precision float.
func (s *EncodeStream) WriteFloat32(engine endian.EndianEngine, v float32) {
	s.WriteUint32(engine, math.Float32bits(v))
}

// WriteFloat64 writes an IEEE 754 double precision float.
func (s *EncodeStream) WriteFloat64(engine endian.EndianEngine, v float64) {
	engine.PutUint64(s.reserve(SizeFloat64), math.Float64bits(v))
}

// WriteBuffer flushes the active chunk and writes b straight to the sink.
func (s *EncodeStream) WriteBuffer(b []byte) {
	s.writeDirect(b)
}

// WriteString encodes str with the named text encoding and writes it.
func (s *EncodeStream) WriteString(str string, enc string) error {
	b, err := EncodeText(str, enc)
	if err != nil {
		return err
	}
	s.WriteBuffer(b)

	return nil
}

// Fill writes n copies of b. Runs shorter than the fill threshold are
// buffered; longer runs go straight to the sink.
func (s *EncodeStream) Fill(b byte, n int) {
	if n <= 0 {
		return
	}

	if n < s.fillThreshold {
		region := s.reserve(n)
		for i := range region {
			region[i] = b
		}

		return
	}

	s.writeDirect(bytes.Repeat([]byte{b}, n))
}

// Flush writes the active chunk to the sink and reports the first sink error.
func (s *EncodeStream) Flush() error {
	s.flushChunk()
	return s.err
}

// End flushes pending bytes and releases the chunk buffer. The stream must
// not be written to afterwards.
func (s *EncodeStream) End() error {
	s.flushChunk()

	if s.buf != nil && s.pooled {
		pool.PutChunkBuffer(s.buf)
	}
	s.buf = nil

	return s.err
}
