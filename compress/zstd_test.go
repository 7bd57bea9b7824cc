package compress

import (
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

func TestZstdCompressor_StandardFrames(t *testing.T) {
	input := glyphLikePayload(256)
	codec := NewZstdCompressor()

	encoder, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer encoder.Close()

	restored, err := codec.Decompress(encoder.EncodeAll(input, nil))
	require.NoError(t, err)
	require.Equal(t, input, restored)

	compressed, err := codec.Compress(input)
	require.NoError(t, err)

	decoder, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer decoder.Close()

	restored, err = decoder.DecodeAll(compressed, nil)
	require.NoError(t, err)
	require.Equal(t, input, restored)
}
