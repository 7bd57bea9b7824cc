package restructure

import (
	"fmt"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/stream"
)

// Bitfield maps an integer onto named flags, flag i occupying bit i. Empty
// names reserve a bit and are skipped.
type Bitfield struct {
	typ   *Number
	flags []string
}

var _ Type = (*Bitfield)(nil)

// NewBitfield creates a bitfield over the integer descriptor t.
func NewBitfield(t *Number, flags []string) *Bitfield {
	return &Bitfield{typ: t, flags: flags}
}

// Decode returns a map[string]bool holding every named flag.
func (b *Bitfield) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	v, err := b.typ.Decode(s, parent)
	if err != nil {
		return nil, err
	}

	bits, _ := toInt(v)
	result := make(map[string]bool, len(b.flags))
	for i, flag := range b.flags {
		if flag == "" {
			continue
		}
		result[flag] = bits&(1<<i) != 0
	}

	return result, nil
}

func (b *Bitfield) Size(_ any, parent *EncodeContext) (int, error) {
	return b.typ.Size(nil, parent)
}

// Encode accepts a map[string]bool or a Record of bools; missing flags are
// cleared.
func (b *Bitfield) Encode(s *stream.EncodeStream, value any, parent *EncodeContext) error {
	isSet, err := flagReader(value)
	if err != nil {
		return err
	}

	bits := 0
	for i, flag := range b.flags {
		if flag != "" && isSet(flag) {
			bits |= 1 << i
		}
	}

	return b.typ.Encode(s, bits, parent)
}

func flagReader(value any) (func(string) bool, error) {
	switch m := value.(type) {
	case map[string]bool:
		return func(k string) bool { return m[k] }, nil
	case Record:
		return recordFlag(m), nil
	case map[string]any:
		return recordFlag(m), nil
	default:
		return nil, fmt.Errorf("%w: bitfield cannot encode %T", errs.ErrInvalidValue, value)
	}
}

func recordFlag(m map[string]any) func(string) bool {
	return func(k string) bool {
		v, _ := m[k].(bool)
		return v
	}
}
