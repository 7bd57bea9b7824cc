package compress

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/restructure/format"
)

var allTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
	format.CompressionZlib,
}

// glyphLikePayload mimics repetitive table data: short records with shared prefixes.
func glyphLikePayload(n int) []byte {
	var buf bytes.Buffer
	for i := range n {
		buf.Write([]byte{0x00, 0x01, byte(i), byte(i >> 8), 0xff, 0xff, 0x00, 0x10})
	}

	return buf.Bytes()
}

func TestCreateCodec(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := CreateCodec(ct, "table")
		require.NoError(t, err, ct.String())
		require.NotNil(t, codec)
	}

	_, err := CreateCodec(format.CompressionType(0x7f), "table")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid table compression")
}

func TestGetCodec(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)
		require.Implements(t, (*Codec)(nil), codec)
	}

	_, err := GetCodec(format.CompressionType(0))
	require.Error(t, err)
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"small":      []byte("hello"),
		"repetitive": glyphLikePayload(512),
		"single":     {0x42},
	}

	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		for name, input := range inputs {
			t.Run(ct.String()+"/"+name, func(t *testing.T) {
				compressed, err := codec.Compress(input)
				require.NoError(t, err)

				restored, err := codec.Decompress(compressed)
				require.NoError(t, err)
				require.Equal(t, input, restored)
			})
		}
	}
}

func TestAllCodecs_CompressRepetitiveData(t *testing.T) {
	input := glyphLikePayload(2048)

	for _, ct := range allTypes {
		if ct == format.CompressionNone {
			continue
		}

		codec, err := GetCodec(ct)
		require.NoError(t, err)

		compressed, err := codec.Compress(input)
		require.NoError(t, err)
		require.Less(t, len(compressed), len(input), ct.String())
	}
}

func TestAllCodecs_EmptyDecompress(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		out, err := codec.Decompress(nil)
		require.NoError(t, err)
		require.Empty(t, out)
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	garbage := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03}

	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionZlib} {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		_, err = codec.Decompress(garbage)
		require.Error(t, err, ct.String())
	}
}

func TestNoOpCompressor_SharesMemory(t *testing.T) {
	input := []byte{1, 2, 3}
	codec := NewNoOpCompressor()

	out, err := codec.Compress(input)
	require.NoError(t, err)
	require.Same(t, &input[0], &out[0])
}

func TestLZ4Compressor_LargeExpansionRatio(t *testing.T) {
	// Highly compressible input forces Decompress to grow past the 4x initial guess.
	input := bytes.Repeat([]byte{0}, 64*1024)
	codec := NewLZ4Compressor()

	compressed, err := codec.Compress(input)
	require.NoError(t, err)
	require.Less(t, len(compressed)*4, len(input))

	restored, err := codec.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, input, restored)
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	input := glyphLikePayload(256)

	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errCh := make(chan error, 16)
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				compressed, err := codec.Compress(input)
				if err != nil {
					errCh <- err
					return
				}
				restored, err := codec.Decompress(compressed)
				if err != nil {
					errCh <- err
					return
				}
				if !bytes.Equal(input, restored) {
					errCh <- bytes.ErrTooLarge
				}
			}()
		}
		wg.Wait()
		close(errCh)

		for err := range errCh {
			require.NoError(t, err, ct.String())
		}
	}
}
