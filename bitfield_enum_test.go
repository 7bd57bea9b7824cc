package restructure

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/restructure/errs"
)

var duckFlags = []string{"Jack", "Kack", "Lack", "Mack", "Nack", "Oack", "Pack", "Quack"}

const (
	flagJack  = 1 << 0
	flagMack  = 1 << 3
	flagNack  = 1 << 4
	flagPack  = 1 << 6
	flagQuack = 1 << 7
)

func TestBitfield(t *testing.T) {
	bf := NewBitfield(Uint8, duckFlags)
	flags := map[string]bool{
		"Jack": true, "Kack": false, "Lack": false, "Mack": true,
		"Nack": true, "Oack": false, "Pack": true, "Quack": true,
	}

	t.Run("decode", func(t *testing.T) {
		data := []byte{flagJack | flagMack | flagPack | flagNack | flagQuack}
		require.Equal(t, flags, decodeWith(t, bf, data, nil))
	})

	t.Run("size", func(t *testing.T) {
		n, err := bf.Size(nil, nil)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("encode", func(t *testing.T) {
		require.Equal(t, []byte{0xd9}, encodeAll(t, bf, flags))
	})

	t.Run("encode from a record", func(t *testing.T) {
		require.Equal(t, []byte{flagMack | flagQuack}, encodeAll(t, bf, Record{"Mack": true, "Quack": true, "Jack": false}))
	})

	t.Run("reserved bits", func(t *testing.T) {
		bf := NewBitfield(Uint16BE, []string{"a", "", "c"})

		require.Equal(t, map[string]bool{"a": true, "c": true}, decodeWith(t, bf, []byte{0, 0b111}, nil))
		require.Equal(t, []byte{0, 0b100}, encodeAll(t, bf, map[string]bool{"c": true}))
	})

	t.Run("invalid value", func(t *testing.T) {
		require.ErrorIs(t, bf.Encode(newDiscardStream(t), 3, nil), errs.ErrInvalidValue)
	})
}

func TestEnum(t *testing.T) {
	enum := NewEnum(Uint8, []any{"foo", "bar", "baz"})

	t.Run("decode", func(t *testing.T) {
		data := []byte{1, 2, 0}
		got, err := Unmarshal(NewArray(enum, LenConst(3)), data)
		require.NoError(t, err)
		require.Equal(t, []any{"bar", "baz", "foo"}, got)
	})

	t.Run("out of range keeps the index", func(t *testing.T) {
		require.Equal(t, 5, decodeWith(t, enum, []byte{5}, nil))
	})

	t.Run("size", func(t *testing.T) {
		n, err := enum.Size("bar", nil)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("encode", func(t *testing.T) {
		require.Equal(t, []byte{1, 2, 0}, encodeAll(t, enum, "bar", "baz", "foo"))
	})

	t.Run("unknown option", func(t *testing.T) {
		require.ErrorIs(t, enum.Encode(newDiscardStream(t), "unknown", nil), errs.ErrUnknownOption)
	})

	t.Run("numeric options match any kind", func(t *testing.T) {
		enum := NewEnum(Uint16LE, []any{10, 20, 30})
		require.Equal(t, []byte{2, 0}, encodeAll(t, enum, int64(30)))
		require.Equal(t, []byte{1, 0}, encodeAll(t, enum, 20.0))
	})
}
