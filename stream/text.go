package stream

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/arloliu/restructure/errs"
)

// Native encoding names.
const (
	EncodingASCII   = "ascii"
	EncodingLatin1  = "latin1"
	EncodingBinary  = "binary"
	EncodingUTF8    = "utf8"
	EncodingUTF16LE = "utf16le"
	EncodingUCS2    = "ucs2"
	EncodingUTF16BE = "utf16be"
)

var (
	utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
)

// lookupEncoding resolves a non-native encoding name. ok is false when neither
// registry knows the name.
func lookupEncoding(name string) (encoding.Encoding, bool) {
	switch strings.ToLower(name) {
	case "mac", "macroman", "mac-roman", "x-mac-roman":
		return charmap.Macintosh, true
	}

	if enc, err := htmlindex.Get(name); err == nil && enc != nil {
		return enc, true
	}

	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, true
	}

	return nil, false
}

// IsKnownEncoding reports whether enc names a native encoding or one the
// WHATWG and IANA registries resolve.
func IsKnownEncoding(enc string) bool {
	switch enc {
	case EncodingASCII, EncodingLatin1, EncodingBinary, EncodingUTF8, "utf-8",
		EncodingUTF16LE, EncodingUCS2, "utf-16le", EncodingUTF16BE, "utf-16be":
		return true
	}

	_, ok := lookupEncoding(enc)

	return ok
}

// DecodeText converts raw bytes to a string. ok is false when the encoding
// cannot be resolved, in which case callers should keep the raw bytes.
func DecodeText(b []byte, enc string) (string, bool) {
	switch enc {
	case EncodingASCII:
		out := make([]byte, len(b))
		for i, c := range b {
			out[i] = c & 0x7f
		}

		return string(out), true
	case EncodingLatin1, EncodingBinary:
		runes := make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}

		return string(runes), true
	case EncodingUTF8, "utf-8":
		return strings.ToValidUTF8(string(b), string(utf8.RuneError)), true
	case EncodingUTF16LE, EncodingUCS2, "utf-16le":
		return decodeWith(utf16LE, evenLength(b))
	case EncodingUTF16BE, "utf-16be":
		return decodeWith(utf16BE, evenLength(b))
	}

	e, ok := lookupEncoding(enc)
	if !ok {
		return "", false
	}

	return decodeWith(e, b)
}

// EncodeText converts s to bytes in the given encoding.
//
// ascii and latin1 keep the low byte of each code point, so their output is
// always one byte per rune.
func EncodeText(s string, enc string) ([]byte, error) {
	switch enc {
	case EncodingASCII, EncodingLatin1, EncodingBinary:
		out := make([]byte, 0, len(s))
		for _, r := range s {
			out = append(out, byte(r))
		}

		return out, nil
	case EncodingUTF8, "utf-8":
		return []byte(s), nil
	case EncodingUTF16LE, EncodingUCS2, "utf-16le":
		return encodeWith(utf16LE, s, enc)
	case EncodingUTF16BE, "utf-16be":
		return encodeWith(utf16BE, s, enc)
	}

	e, ok := lookupEncoding(enc)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnsupportedEncoding, enc)
	}

	return encodeWith(e, s, enc)
}

// TextByteLength returns the number of bytes EncodeText produces for s.
func TextByteLength(s string, enc string) (int, error) {
	switch enc {
	case EncodingASCII, EncodingLatin1, EncodingBinary:
		return utf8.RuneCountInString(s), nil
	case EncodingUTF8, "utf-8":
		return len(s), nil
	}

	b, err := EncodeText(s, enc)
	if err != nil {
		return 0, err
	}

	return len(b), nil
}

// evenLength drops a dangling trailing byte from UTF-16 input.
func evenLength(b []byte) []byte {
	return b[:len(b)&^1]
}

func decodeWith(e encoding.Encoding, b []byte) (string, bool) {
	out, err := e.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}

	return string(out), true
}

func encodeWith(e encoding.Encoding, s string, name string) ([]byte, error) {
	out, err := e.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q cannot represent input: %w", errs.ErrUnsupportedEncoding, name, err)
	}

	return out, nil
}
