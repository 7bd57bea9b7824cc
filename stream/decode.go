package stream

import (
	"fmt"
	"math"

	"github.com/arloliu/restructure/endian"
	"github.com/arloliu/restructure/errs"
)

// Fixed widths in bytes of the primitive numeric types.
const (
	SizeInt8    = 1
	SizeInt16   = 2
	SizeInt24   = 3
	SizeInt32   = 4
	SizeFloat32 = 4
	SizeFloat64 = 8
)

// DecodeStream is a read cursor over an immutable byte slice.
//
// Note: The DecodeStream is NOT thread-safe.
type DecodeStream struct {
	buf []byte
	pos int
}

// NewDecodeStream creates a cursor positioned at the start of buf.
// The slice is not copied and must not be modified while decoding.
func NewDecodeStream(buf []byte) *DecodeStream {
	return &DecodeStream{buf: buf}
}

// Pos returns the current absolute position.
func (s *DecodeStream) Pos() int {
	return s.pos
}

// SetPos moves the cursor to an absolute position. Out of range positions are
// accepted here and rejected by the next read.
func (s *DecodeStream) SetPos(pos int) {
	s.pos = pos
}

// Len returns the total length of the underlying buffer.
func (s *DecodeStream) Len() int {
	return len(s.buf)
}

// Bytes returns the whole underlying buffer.
func (s *DecodeStream) Bytes() []byte {
	return s.buf
}

// Remaining returns the number of bytes between the cursor and the buffer end.
func (s *DecodeStream) Remaining() int {
	if s.pos >= len(s.buf) {
		return 0
	}

	return len(s.buf) - s.pos
}

// next returns the n bytes at the cursor and advances past them.
func (s *DecodeStream) next(n int) ([]byte, error) {
	if n < 0 || s.pos < 0 || s.pos+n > len(s.buf) {
		return nil, fmt.Errorf("%w: read of %d bytes at %d (length %d)", errs.ErrOutOfBounds, n, s.pos, len(s.buf))
	}

	b := s.buf[s.pos : s.pos+n]
	s.pos += n

	return b, nil
}

// Skip advances the cursor by n bytes.
func (s *DecodeStream) Skip(n int) error {
	if n < 0 || s.pos < 0 || s.pos+n > len(s.buf) {
		return fmt.Errorf("%w: skip of %d bytes at %d (length %d)", errs.ErrOutOfBounds, n, s.pos, len(s.buf))
	}
	s.pos += n

	return nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func (s *DecodeStream) ReadUint8() (uint8, error) {
	b, err := s.next(SizeInt8)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadInt8 reads a signed 8-bit integer.
func (s *DecodeStream) ReadInt8() (int8, error) {
	v, err := s.ReadUint8()
	return int8(v), err //nolint:gosec
}

// ReadUint16 reads an unsigned 16-bit integer in the given byte order.
func (s *DecodeStream) ReadUint16(engine endian.EndianEngine) (uint16, error) {
	b, err := s.next(SizeInt16)
	if err != nil {
		return 0, err
	}

	return engine.Uint16(b), nil
}

// ReadInt16 reads a signed 16-bit integer in the given byte order.
func (s *DecodeStream) ReadInt16(engine endian.EndianEngine) (int16, error) {
	v, err := s.ReadUint16(engine)
	return int16(v), err //nolint:gosec
}

// ReadUint24 reads an unsigned 24-bit integer in the given byte order.
func (s *DecodeStream) ReadUint24(engine endian.EndianEngine) (uint32, error) {
	b, err := s.next(SizeInt24)
	if err != nil {
		return 0, err
	}

	return endian.Uint24(engine, b), nil
}

// ReadInt24 reads a signed 24-bit integer in the given byte order.
func (s *DecodeStream) ReadInt24(engine endian.EndianEngine) (int32, error) {
	b, err := s.next(SizeInt24)
	if err != nil {
		return 0, err
	}

	return endian.Int24(engine, b), nil
}

// ReadUint32 reads an unsigned 32-bit integer in the given byte order.
func (s *DecodeStream) ReadUint32(engine endian.EndianEngine) (uint32, error) {
	b, err := s.next(SizeInt32)
	if err != nil {
		return 0, err
	}

	return engine.Uint32(b), nil
}

// ReadInt32 reads a signed 32-bit integer in the given byte order.
func (s *DecodeStream) ReadInt32(engine endian.EndianEngine) (int32, error) {
	v, err := s.ReadUint32(engine)
	return int32(v), err //nolint:gosec
}

// ReadFloat32 reads an IEEE 754 single precision float in the given byte order.
func (s *DecodeStream) ReadFloat32(engine endian.EndianEngine) (float32, error) {
	v, err := s.ReadUint32(engine)
	return math.Float32frombits(v), err
}

// ReadFloat64 reads an IEEE 754 double precision float in the given byte order.
func (s *DecodeStream) ReadFloat64(engine endian.EndianEngine) (float64, error) {
	b, err := s.next(SizeFloat64)
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(engine.Uint64(b)), nil
}

// ReadBuffer returns the next n bytes. The result aliases the source buffer.
func (s *DecodeStream) ReadBuffer(n int) ([]byte, error) {
	return s.next(n)
}

// ReadString reads n bytes and decodes them with the named text encoding.
//
// The result is a string, or the raw []byte when the encoding cannot be
// resolved; an unknown encoding is never an error at this layer.
func (s *DecodeStream) ReadString(n int, enc string) (any, error) {
	b, err := s.next(n)
	if err != nil {
		return nil, err
	}

	if str, ok := DecodeText(b, enc); ok {
		return str, nil
	}

	raw := make([]byte, len(b))
	copy(raw, b)

	return raw, nil
}

// ScanNUL returns the number of bytes between the cursor and the next NUL
// byte, or the buffer end when there is none. The cursor does not move.
func (s *DecodeStream) ScanNUL() int {
	end := s.pos
	for end < len(s.buf) && s.buf[end] != 0x00 {
		end++
	}

	return end - s.pos
}
