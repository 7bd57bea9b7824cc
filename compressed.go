package restructure

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/restructure/compress"
	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/stream"
)

// Compressed wraps an inner type whose encoding is stored compressed, as in
// WOFF table data or flate streams of document formats. The length gives the
// compressed byte count.
//
// The inner type is decoded from its own stream in a fresh root scope, so
// pointers inside it are resolved against the decompressed bytes and field
// paths cannot reach enclosing records.
type Compressed struct {
	inner  Type
	length Length
	codec  compress.Codec
}

var _ Type = (*Compressed)(nil)

// NewCompressed creates a compressed region.
func NewCompressed(inner Type, length Length, codec compress.Codec) *Compressed {
	return &Compressed{inner: inner, length: length, codec: codec}
}

func (c *Compressed) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	n, err := c.length.Resolve(s, parent)
	if err != nil {
		return nil, err
	}

	raw, err := s.ReadBuffer(n)
	if err != nil {
		return nil, err
	}

	data, err := c.codec.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	Logger().Debug("decompressed region", zap.Int("compressed", n), zap.Int("size", len(data)))

	return c.inner.Decode(stream.NewDecodeStream(data), &DecodeContext{Length: len(data)})
}

// compressed encodes the inner value on its own and compresses the result.
func (c *Compressed) compressed(value any) ([]byte, error) {
	var buf bytes.Buffer
	es, err := stream.NewEncodeStream(&buf)
	if err != nil {
		return nil, err
	}

	if err := c.inner.Encode(es, value, &EncodeContext{}); err != nil {
		_ = es.End()
		return nil, err
	}
	if err := es.End(); err != nil {
		return nil, err
	}

	out, err := c.codec.Compress(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}

	if c.length.IsConst() && len(out) != c.length.n {
		return nil, fmt.Errorf("%w: compressed to %d bytes, declared %d", errs.ErrSize, len(out), c.length.n)
	}

	return out, nil
}

// Size compresses the value to measure it. It fails with errs.ErrSize
// without a value.
func (c *Compressed) Size(value any, _ *EncodeContext) (int, error) {
	if value == nil {
		return 0, fmt.Errorf("%w: compressed size depends on content", errs.ErrSize)
	}

	out, err := c.compressed(value)
	if err != nil {
		return 0, err
	}

	return len(out) + c.length.prefixWidth(), nil
}

func (c *Compressed) Encode(s *stream.EncodeStream, value any, _ *EncodeContext) error {
	out, err := c.compressed(value)
	if err != nil {
		return err
	}

	if c.length.IsPrefix() {
		if err := c.length.prefix.encodeInt(s, len(out)); err != nil {
			return err
		}
	}
	s.WriteBuffer(out)

	return nil
}
