package restructure

import (
	"fmt"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/stream"
)

// Enum maps an integer index onto a closed list of option values.
type Enum struct {
	typ     *Number
	options []any
}

var _ Type = (*Enum)(nil)

// NewEnum creates an enum over the integer descriptor t.
func NewEnum(t *Number, opts []any) *Enum {
	return &Enum{typ: t, options: opts}
}

// Decode returns the option at the stored index, or the raw index when it is
// out of range.
func (e *Enum) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	v, err := e.typ.Decode(s, parent)
	if err != nil {
		return nil, err
	}

	if i, ok := toInt(v); ok && i >= 0 && i < len(e.options) && e.options[i] != nil {
		return e.options[i], nil
	}

	return v, nil
}

func (e *Enum) Size(_ any, parent *EncodeContext) (int, error) {
	return e.typ.Size(nil, parent)
}

func (e *Enum) Encode(s *stream.EncodeStream, value any, parent *EncodeContext) error {
	for i, opt := range e.options {
		if valuesEqual(opt, value) {
			return e.typ.Encode(s, i, parent)
		}
	}

	return fmt.Errorf("%w: %v", errs.ErrUnknownOption, value)
}
