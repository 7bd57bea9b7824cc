// Package endian provides byte order utilities for the restructure streams.
//
// EndianEngine combines binary.ByteOrder and binary.AppendByteOrder so a
// single value can drive both positional reads and appending writes. The
// package also fills the one gap of encoding/binary that binary layouts need:
// 24-bit integers, which are common in font tables (e.g. uint24 offsets in
// 'cmap' format 14 and CFF2 blend data).
//
// All functions in this package are safe for concurrent use.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// IsBigEndian reports whether engine stores the most significant byte first.
func IsBigEndian(engine EndianEngine) bool {
	return engine == binary.BigEndian
}

// Uint24 decodes an unsigned 24-bit integer from the first three bytes of b.
//
// The value is composed from a 16-bit read and an 8-bit read in the order
// dictated by engine. Panics if len(b) < 3, like binary.ByteOrder.
func Uint24(engine EndianEngine, b []byte) uint32 {
	_ = b[2] // bounds check hint to compiler

	if IsBigEndian(engine) {
		return uint32(engine.Uint16(b[0:2]))<<8 | uint32(b[2])
	}

	return uint32(engine.Uint16(b[0:2])) | uint32(b[2])<<16
}

// Int24 decodes a signed (two's complement) 24-bit integer from b.
func Int24(engine EndianEngine, b []byte) int32 {
	v := Uint24(engine, b)
	if v&0x800000 != 0 {
		return int32(v) - 0x1000000 //nolint:gosec
	}

	return int32(v) //nolint:gosec
}

// PutUint24 encodes the low 24 bits of v into b[0:3].
func PutUint24(engine EndianEngine, b []byte, v uint32) {
	_ = b[2] // bounds check hint to compiler

	if IsBigEndian(engine) {
		b[0] = byte(v >> 16)
		b[1] = byte(v >> 8)
		b[2] = byte(v)

		return
	}

	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// AppendUint24 appends the low 24 bits of v to b and returns the extended slice.
func AppendUint24(engine EndianEngine, b []byte, v uint32) []byte {
	var tmp [3]byte
	PutUint24(engine, tmp[:], v)

	return append(b, tmp[:]...)
}
