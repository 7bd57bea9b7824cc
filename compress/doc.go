// Package compress provides the codecs behind restructure's Compressed descriptor.
//
// Binary document and font formats frequently store a region compressed and
// prefixed with its compressed length (WOFF table data, PDF object streams,
// application-specific blobs). A Compressed descriptor pairs an inner type
// descriptor with one of these codecs: the inner value is encoded, compressed,
// and written; decoding reverses the process from a fresh stream.
//
// # Supported Algorithms
//
//   - None (format.CompressionNone): pass-through
//   - Zstd (format.CompressionZstd): valyala/gozstd in cgo builds,
//     klauspost/compress/zstd otherwise
//   - S2 (format.CompressionS2): klauspost/compress/s2 block format
//   - LZ4 (format.CompressionLZ4): pierrec/lz4 block format
//   - Zlib (format.CompressionZlib): klauspost/compress/zlib (RFC 1950)
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZlib)
//	if err != nil {
//	    return err
//	}
//	compressed, err := codec.Compress(data)
//
// # Thread Safety
//
// All built-in codecs are stateless values; pooled encoder state is managed
// internally with sync.Pool, so codecs are safe for concurrent use.
package compress
