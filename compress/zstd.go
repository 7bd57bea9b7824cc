package compress

// ZstdCompressor provides Zstandard compression.
//
// cgo builds use the libzstd binding from valyala/gozstd; builds without cgo
// fall back to the pure Go klauspost/compress/zstd. Both produce standard zstd
// frames.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
