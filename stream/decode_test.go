package stream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/restructure/endian"
	"github.com/arloliu/restructure/errs"
)

func TestDecodeStream_Integers(t *testing.T) {
	be := endian.GetBigEndianEngine()
	le := endian.GetLittleEndianEngine()

	s := NewDecodeStream([]byte{
		0xab,       // uint8
		0xff,       // int8
		0xab, 0xcd, // uint16 be
		0xcd, 0xab, // uint16 le
		0xff, 0xab, 0x24, // int24 be
		0x24, 0xab, 0xff, // int24 le
		0xff, 0x00, 0x00, 0x01, // uint32 be
	})

	u8, err := s.ReadUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(0xab), u8)

	i8, err := s.ReadInt8()
	require.NoError(t, err)
	require.Equal(t, int8(-1), i8)

	u16, err := s.ReadUint16(be)
	require.NoError(t, err)
	require.Equal(t, uint16(0xabcd), u16)

	u16, err = s.ReadUint16(le)
	require.NoError(t, err)
	require.Equal(t, uint16(0xabcd), u16)

	i24, err := s.ReadInt24(be)
	require.NoError(t, err)
	require.Equal(t, int32(-21724), i24)

	i24, err = s.ReadInt24(le)
	require.NoError(t, err)
	require.Equal(t, int32(-21724), i24)

	u32, err := s.ReadUint32(be)
	require.NoError(t, err)
	require.Equal(t, uint32(0xff000001), u32)

	require.Equal(t, 16, s.Pos())
	require.Equal(t, 0, s.Remaining())
}

func TestDecodeStream_Floats(t *testing.T) {
	s := NewDecodeStream([]byte{
		0x43, 0xd4, 0x80, 0x00, // 425.0 be
		0x40, 0x09, 0x21, 0xfb, 0x54, 0x44, 0x2d, 0x18, // pi be
	})

	f32, err := s.ReadFloat32(endian.GetBigEndianEngine())
	require.NoError(t, err)
	require.InDelta(t, 425.0, f32, 1e-6)

	f64, err := s.ReadFloat64(endian.GetBigEndianEngine())
	require.NoError(t, err)
	require.InDelta(t, 3.141592653589793, f64, 1e-12)
}

func TestDecodeStream_OutOfBounds(t *testing.T) {
	s := NewDecodeStream([]byte{0x01})

	_, err := s.ReadUint16(endian.GetBigEndianEngine())
	require.ErrorIs(t, err, errs.ErrOutOfBounds)
	require.Equal(t, 0, s.Pos(), "failed read must not move the cursor")

	require.ErrorIs(t, s.Skip(2), errs.ErrOutOfBounds)
	require.NoError(t, s.Skip(1))

	_, err = s.ReadUint8()
	require.ErrorIs(t, err, errs.ErrOutOfBounds)

	s.SetPos(-1)
	_, err = s.ReadBuffer(1)
	require.ErrorIs(t, err, errs.ErrOutOfBounds)
}

func TestDecodeStream_ReadBuffer(t *testing.T) {
	s := NewDecodeStream([]byte("abcdef"))
	s.SetPos(2)

	b, err := s.ReadBuffer(3)
	require.NoError(t, err)
	require.Equal(t, []byte("cde"), b)
	require.Equal(t, 5, s.Pos())
}

func TestDecodeStream_ReadString(t *testing.T) {
	t.Run("utf8", func(t *testing.T) {
		s := NewDecodeStream([]byte("🍻"))
		v, err := s.ReadString(4, EncodingUTF8)
		require.NoError(t, err)
		require.Equal(t, "🍻", v)
	})

	t.Run("utf16le", func(t *testing.T) {
		s := NewDecodeStream([]byte{0x3d, 0xd8, 0x7b, 0xdf})
		v, err := s.ReadString(4, EncodingUTF16LE)
		require.NoError(t, err)
		require.Equal(t, "🍻", v)
	})

	t.Run("utf16be", func(t *testing.T) {
		s := NewDecodeStream([]byte{0xd8, 0x3d, 0xdf, 0x7b})
		v, err := s.ReadString(4, EncodingUTF16BE)
		require.NoError(t, err)
		require.Equal(t, "🍻", v)
	})

	t.Run("latin1", func(t *testing.T) {
		s := NewDecodeStream([]byte{0x63, 0x61, 0x66, 0xe9})
		v, err := s.ReadString(4, EncodingLatin1)
		require.NoError(t, err)
		require.Equal(t, "café", v)
	})

	t.Run("mac roman", func(t *testing.T) {
		s := NewDecodeStream([]byte{0x63, 0x61, 0x66, 0x8e})
		v, err := s.ReadString(4, "mac")
		require.NoError(t, err)
		require.Equal(t, "café", v)
	})

	t.Run("unknown encoding yields bytes", func(t *testing.T) {
		src := []byte{0x01, 0x02}
		s := NewDecodeStream(src)
		v, err := s.ReadString(2, "no-such-encoding")
		require.NoError(t, err)
		require.Equal(t, []byte{0x01, 0x02}, v)

		// the raw result is a copy
		v.([]byte)[0] = 0xff
		require.Equal(t, byte(0x01), src[0])
	})
}

func TestDecodeStream_ScanNUL(t *testing.T) {
	s := NewDecodeStream([]byte("ab\x00cd"))
	require.Equal(t, 2, s.ScanNUL())
	require.Equal(t, 0, s.Pos())

	s.SetPos(3)
	require.Equal(t, 2, s.ScanNUL())
}
