package restructure

import (
	"github.com/arloliu/restructure/internal/options"
	"github.com/arloliu/restructure/stream"
)

// Optional wraps a type that is only present when its condition holds. A
// disabled optional decodes to nothing, sizes to 0 and writes nothing.
type Optional struct {
	typ  Type
	cond func(Scope) bool
}

var _ Type = (*Optional)(nil)

// OptionalOption configures an Optional.
type OptionalOption = options.Option[*Optional]

// WithCondition sets a constant condition.
func WithCondition(present bool) OptionalOption {
	return options.NoError(func(o *Optional) {
		o.cond = func(Scope) bool { return present }
	})
}

// WithConditionFunc evaluates the condition against the enclosing scope,
// which during decode holds the fields decoded so far.
func WithConditionFunc(fn func(Scope) bool) OptionalOption {
	return options.NoError(func(o *Optional) {
		o.cond = fn
	})
}

// NewOptional creates an optional field; it is present by default.
func NewOptional(t Type, opts ...OptionalOption) *Optional {
	o := &Optional{typ: t}
	_ = options.Apply(o, opts...)

	return o
}

func (o *Optional) present(scope Scope) bool {
	return o.cond == nil || o.cond(scope)
}

func (o *Optional) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	if !o.present(parent) {
		return absent, nil
	}

	return o.typ.Decode(s, parent)
}

func (o *Optional) Size(value any, parent *EncodeContext) (int, error) {
	if !o.present(parent) {
		return 0, nil
	}

	return o.typ.Size(value, parent)
}

func (o *Optional) Encode(s *stream.EncodeStream, value any, parent *EncodeContext) error {
	if !o.present(parent) {
		return nil
	}

	return o.typ.Encode(s, value, parent)
}
