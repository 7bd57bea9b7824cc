package restructure

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/internal/options"
	"github.com/arloliu/restructure/stream"
)

// String is a text field. Without a length it is NUL terminated; with a
// constant length it is zero padded on encode.
type String struct {
	length   Length
	encoding string
	encodeFn func(Scope) string
}

var _ Type = (*String)(nil)

// StringOption configures a String.
type StringOption = options.Option[*String]

// WithEncoding sets the text encoding name. The default is "ascii".
func WithEncoding(name string) StringOption {
	return options.NoError(func(s *String) {
		s.encoding = name
	})
}

// WithEncodingFunc selects the text encoding from the enclosing scope, e.g.
// from a platform ID field. An empty result falls back to "ascii".
func WithEncodingFunc(fn func(Scope) string) StringOption {
	return options.NoError(func(s *String) {
		s.encodeFn = fn
	})
}

// NewString creates a string descriptor.
func NewString(length Length, opts ...StringOption) *String {
	str := &String{length: length, encoding: stream.EncodingASCII}
	_ = options.Apply(str, opts...)

	return str
}

func (t *String) resolveEncoding(scope Scope) string {
	if t.encodeFn == nil {
		return t.encoding
	}

	if enc := t.encodeFn(scope); enc != "" {
		return enc
	}

	return stream.EncodingASCII
}

func (t *String) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	var (
		n   int
		err error
	)

	if t.length.IsSet() {
		if n, err = t.length.Resolve(s, parent); err != nil {
			return nil, err
		}
	} else {
		n = s.ScanNUL()
	}

	enc := t.resolveEncoding(parent)
	v, err := s.ReadString(n, enc)
	if err != nil {
		return nil, err
	}

	if _, raw := v.([]byte); raw {
		Logger().Warn("unsupported text encoding, returning raw bytes",
			zap.String("encoding", enc), zap.Int("length", n))
	}

	if !t.length.IsSet() && s.Pos() < s.Len() {
		// consume the terminator
		_ = s.Skip(1)
	}

	return v, nil
}

func (t *String) encoded(value any, scope Scope) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return stream.EncodeText(v, t.resolveEncoding(scope))
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: string cannot encode %T", errs.ErrInvalidValue, value)
	}
}

// Size includes the length prefix or NUL terminator, and equals the declared
// length for constant length strings.
func (t *String) Size(value any, parent *EncodeContext) (int, error) {
	if value == nil {
		return t.length.static(parent)
	}

	b, err := t.encoded(value, parent)
	if err != nil {
		return 0, err
	}

	switch {
	case t.length.IsConst():
		if len(b) > t.length.n {
			return 0, fmt.Errorf("%w: %d byte string exceeds fixed length %d", errs.ErrSize, len(b), t.length.n)
		}

		return t.length.n, nil
	case !t.length.IsSet():
		return len(b) + 1, nil
	default:
		return len(b) + t.length.prefixWidth(), nil
	}
}

func (t *String) Encode(s *stream.EncodeStream, value any, parent *EncodeContext) error {
	b, err := t.encoded(value, parent)
	if err != nil {
		return err
	}

	switch {
	case t.length.IsPrefix():
		if err := t.length.prefix.encodeInt(s, len(b)); err != nil {
			return err
		}
		s.WriteBuffer(b)
	case t.length.IsConst():
		if len(b) > t.length.n {
			return fmt.Errorf("%w: %d byte string exceeds fixed length %d", errs.ErrSize, len(b), t.length.n)
		}
		s.WriteBuffer(b)
		s.Fill(0, t.length.n-len(b))
	case !t.length.IsSet():
		s.WriteBuffer(b)
		s.WriteUint8(0)
	default:
		s.WriteBuffer(b)
	}

	return nil
}
