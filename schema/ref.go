package schema

import (
	"fmt"

	"github.com/arloliu/restructure"
	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/stream"
)

// lateRef stands in for a named type referenced from its own definition. It
// is bound once the definition is built.
type lateRef struct {
	name string
	t    restructure.Type
}

var _ restructure.Type = (*lateRef)(nil)

func (r *lateRef) target() (restructure.Type, error) {
	if r.t == nil {
		return nil, fmt.Errorf("%w: type %q is not built", errs.ErrSchema, r.name)
	}

	return r.t, nil
}

func (r *lateRef) Decode(s *stream.DecodeStream, parent *restructure.DecodeContext) (any, error) {
	t, err := r.target()
	if err != nil {
		return nil, err
	}

	return t.Decode(s, parent)
}

func (r *lateRef) Size(value any, parent *restructure.EncodeContext) (int, error) {
	t, err := r.target()
	if err != nil {
		return 0, err
	}

	return t.Size(value, parent)
}

func (r *lateRef) Encode(s *stream.EncodeStream, value any, parent *restructure.EncodeContext) error {
	t, err := r.target()
	if err != nil {
		return err
	}

	return t.Encode(s, value, parent)
}
