package restructure

import (
	"fmt"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/stream"
)

// Boolean stores a bool as an underlying integer: nonzero decodes to true,
// and true encodes as 1.
type Boolean struct {
	typ Type
}

var _ Type = (*Boolean)(nil)

// NewBoolean creates a boolean over the given integer descriptor.
func NewBoolean(t Type) *Boolean {
	return &Boolean{typ: t}
}

func (b *Boolean) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	v, err := b.typ.Decode(s, parent)
	if err != nil {
		return nil, err
	}

	f, ok := toFloat(v)
	if !ok {
		return nil, fmt.Errorf("%w: boolean over non-numeric %T", errs.ErrInvalidValue, v)
	}

	return f != 0, nil
}

func (b *Boolean) Size(value any, parent *EncodeContext) (int, error) {
	return b.typ.Size(value, parent)
}

func (b *Boolean) Encode(s *stream.EncodeStream, value any, parent *EncodeContext) error {
	v, ok := value.(bool)
	if !ok {
		return fmt.Errorf("%w: boolean cannot encode %T", errs.ErrInvalidValue, value)
	}

	n := 0
	if v {
		n = 1
	}

	return b.typ.Encode(s, n, parent)
}
