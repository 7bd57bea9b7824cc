package restructure

import (
	"fmt"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/stream"
)

// Buffer is an opaque run of bytes. It decodes to a copied []byte.
type Buffer struct {
	length Length
}

var _ Type = (*Buffer)(nil)

// NewBuffer creates a byte buffer descriptor of the given length.
func NewBuffer(length Length) *Buffer {
	return &Buffer{length: length}
}

func (b *Buffer) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	n, err := b.length.Resolve(s, parent)
	if err != nil {
		return nil, err
	}

	raw, err := s.ReadBuffer(n)
	if err != nil {
		return nil, err
	}

	out := make([]byte, n)
	copy(out, raw)

	return out, nil
}

// Size includes the width of a length prefix.
func (b *Buffer) Size(value any, parent *EncodeContext) (int, error) {
	if value == nil {
		return b.length.static(parent)
	}

	buf, ok := value.([]byte)
	if !ok {
		return 0, fmt.Errorf("%w: buffer cannot size %T", errs.ErrInvalidValue, value)
	}

	return len(buf) + b.length.prefixWidth(), nil
}

func (b *Buffer) Encode(s *stream.EncodeStream, value any, _ *EncodeContext) error {
	buf, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("%w: buffer cannot encode %T", errs.ErrInvalidValue, value)
	}

	if b.length.IsPrefix() {
		if err := b.length.prefix.encodeInt(s, len(buf)); err != nil {
			return err
		}
	}
	s.WriteBuffer(buf)

	return nil
}
