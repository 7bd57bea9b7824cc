// Package stream provides the byte cursor pair that every restructure
// descriptor reads from and writes to.
//
// A DecodeStream is a positional view over an immutable byte slice: reads
// advance the position, and the position can be moved freely so pointer
// targets can be decoded out of line and the cursor restored afterwards.
//
// An EncodeStream is append-only. Small writes accumulate in a pooled chunk
// buffer that is flushed to the underlying io.Writer when it fills up, when a
// large raw buffer is written, or when End is called:
//
//	var out bytes.Buffer
//	es, _ := stream.NewEncodeStream(&out)
//	es.WriteUint16(endian.GetBigEndianEngine(), 0x0001)
//	es.Fill(0, 6)
//	if err := es.End(); err != nil {
//	    return err
//	}
//
// Write methods do not return errors. The first error reported by the sink is
// kept and returned by Flush and End, in the manner of bufio.Writer.
//
// # Text Encodings
//
// ascii, latin1 (alias binary), utf8, utf16le (alias ucs2) and utf16be are
// handled natively. Any other name is resolved through golang.org/x/text
// (WHATWG and IANA registries, plus "mac"/"macroman" for Mac OS Roman, which
// legacy font name tables use). Decoding with an unresolvable encoding yields
// the raw bytes; encoding with one fails with errs.ErrUnsupportedEncoding.
//
// Neither stream is safe for concurrent use.
package stream
