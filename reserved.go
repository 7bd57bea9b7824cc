package restructure

import (
	"github.com/arloliu/restructure/stream"
)

// Reserved is zero filled padding of count items of a statically sized type.
// It decodes to nothing, so struct fields of this type are omitted.
type Reserved struct {
	typ   Type
	count Length
}

var _ Type = (*Reserved)(nil)

// NewReserved creates count items of padding; an unset count means one item.
func NewReserved(t Type, count Length) *Reserved {
	if !count.IsSet() {
		count = LenConst(1)
	}

	return &Reserved{typ: t, count: count}
}

func (r *Reserved) byteLength(scope Scope) (int, error) {
	item, err := r.typ.Size(nil, nil)
	if err != nil {
		return 0, err
	}

	n, err := r.count.static(scope)
	if err != nil {
		return 0, err
	}

	return item * n, nil
}

func (r *Reserved) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	n, err := r.byteLength(parent)
	if err != nil {
		return nil, err
	}

	if err := s.Skip(n); err != nil {
		return nil, err
	}

	return absent, nil
}

func (r *Reserved) Size(_ any, parent *EncodeContext) (int, error) {
	return r.byteLength(parent)
}

func (r *Reserved) Encode(s *stream.EncodeStream, _ any, parent *EncodeContext) error {
	n, err := r.byteLength(parent)
	if err != nil {
		return err
	}
	s.Fill(0, n)

	return nil
}
