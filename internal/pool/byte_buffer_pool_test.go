package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(4)

	n, err := bb.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 3, bb.Len())
	require.Equal(t, []byte{1, 2, 3}, bb.Bytes())

	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.GreaterOrEqual(t, bb.Cap(), 4, "reset keeps capacity")
}

func TestByteBuffer_Extend(t *testing.T) {
	bb := NewByteBuffer(2)
	_, _ = bb.Write([]byte{0xaa})

	region := bb.Extend(4)
	require.Len(t, region, 4)
	copy(region, []byte{1, 2, 3, 4})

	require.Equal(t, []byte{0xaa, 1, 2, 3, 4}, bb.Bytes())
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("no-op with enough capacity", func(t *testing.T) {
		bb := NewByteBuffer(16)
		bb.Grow(8)
		require.Equal(t, 16, bb.Cap())
	})

	t.Run("small buffer grows by default size", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(1)
		require.Equal(t, ChunkBufferDefaultSize, bb.Cap())
	})

	t.Run("grows at least required bytes", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(ChunkBufferDefaultSize * 2)
		require.GreaterOrEqual(t, bb.Cap(), ChunkBufferDefaultSize*2)
	})

	t.Run("preserves content", func(t *testing.T) {
		bb := NewByteBuffer(1)
		_, _ = bb.Write([]byte{9})
		bb.Grow(100)
		require.Equal(t, []byte{9}, bb.Bytes())
	})
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(8)
	_, _ = bb.Write([]byte("sfnt"))

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	require.Equal(t, "sfnt", out.String())
}

func TestByteBufferPool(t *testing.T) {
	p := NewByteBufferPool(8, 32)

	bb := p.Get()
	require.NotNil(t, bb)
	require.Equal(t, 0, bb.Len())

	_, _ = bb.Write([]byte{1, 2, 3})
	p.Put(bb)

	again := p.Get()
	require.Equal(t, 0, again.Len(), "pooled buffers come back empty")

	// Oversized buffers are dropped, Put must not panic on them or on nil.
	p.Put(NewByteBuffer(64))
	p.Put(nil)
}

func TestChunkPool(t *testing.T) {
	bb := GetChunkBuffer()
	require.NotNil(t, bb)
	require.Equal(t, 0, bb.Len())
	PutChunkBuffer(bb)
}
