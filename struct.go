package restructure

import (
	"fmt"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/internal/options"
	"github.com/arloliu/restructure/stream"
)

// Field is one named member of a struct. Exactly one of Type or Compute is
// set; computed fields are derived during decode and ignored by size and
// encode.
type Field struct {
	Name    string
	Type    Type
	Compute func(ctx *DecodeContext) any
}

// F is shorthand for a typed field.
func F(name string, t Type) Field {
	return Field{Name: name, Type: t}
}

// Computed is shorthand for a field derived from the fields decoded before it.
func Computed(name string, fn func(ctx *DecodeContext) any) Field {
	return Field{Name: name, Compute: fn}
}

type structConfig struct {
	process    func(rec Record, ctx *DecodeContext) error
	preEncode  func(rec Record) error
	header     []Field
	versionKey string
}

// StructOption configures a Struct or VersionedStruct.
type StructOption = options.Option[*structConfig]

// WithProcess runs fn on the completed record after decode.
func WithProcess(fn func(rec Record, ctx *DecodeContext) error) StructOption {
	return options.NoError(func(c *structConfig) {
		c.process = fn
	})
}

// WithPreEncode runs fn on the record before it is sized and encoded, e.g.
// to derive count fields from the arrays they describe.
func WithPreEncode(fn func(rec Record) error) StructOption {
	return options.NoError(func(c *structConfig) {
		c.preEncode = fn
	})
}

func newStructConfig(opts []StructOption) structConfig {
	cfg := structConfig{versionKey: "version"}
	_ = options.Apply(&cfg, opts...)

	return cfg
}

// Struct is an ordered list of named fields decoded into a Record.
type Struct struct {
	fields []Field
	cfg    structConfig
}

var _ Type = (*Struct)(nil)

// NewStruct creates a struct descriptor.
func NewStruct(fields []Field, opts ...StructOption) *Struct {
	return &Struct{fields: fields, cfg: newStructConfig(opts)}
}

// Fields returns the field list.
func (t *Struct) Fields() []Field {
	return t.fields
}

func (t *Struct) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	return t.DecodeLength(s, parent, 0)
}

// DecodeLength decodes with a declared byte length, which bounds arrays that
// run to the end of the struct.
func (t *Struct) DecodeLength(s *stream.DecodeStream, parent *DecodeContext, length int) (Record, error) {
	ctx := newDecodeScope(s, parent, length)
	if err := decodeFields(s, ctx, t.fields); err != nil {
		return nil, err
	}

	if t.cfg.process != nil {
		if err := t.cfg.process(ctx.Value, ctx); err != nil {
			return nil, err
		}
	}

	return ctx.Value, nil
}

func newDecodeScope(s *stream.DecodeStream, parent *DecodeContext, length int) *DecodeContext {
	return &DecodeContext{
		Parent:      parent,
		Value:       Record{},
		StartOffset: s.Pos(),
		Length:      length,
	}
}

func decodeFields(s *stream.DecodeStream, ctx *DecodeContext, fields []Field) error {
	for _, f := range fields {
		var (
			v   any
			err error
		)

		switch {
		case f.Compute != nil:
			v = f.Compute(ctx)
		case f.Type != nil:
			if v, err = f.Type.Decode(s, ctx); err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
		default:
			continue
		}

		if !isAbsent(v) {
			ctx.Value[f.Name] = v
		}
		ctx.CurrentOffset = s.Pos() - ctx.StartOffset
	}

	return nil
}

func (t *Struct) Size(value any, parent *EncodeContext) (int, error) {
	rec, ok := asRecord(value)
	if !ok {
		return 0, fmt.Errorf("%w: struct cannot size %T", errs.ErrInvalidValue, value)
	}

	return t.measure(&EncodeContext{Parent: parent, Value: rec}, true)
}

// measure sizes the fields of ctx.Value. Pointer targets anchored at ctx are
// added only when includePointers is set.
func (t *Struct) measure(ctx *EncodeContext, includePointers bool) (int, error) {
	total, err := measureFields(ctx, t.fields)
	if err != nil {
		return 0, err
	}

	if includePointers {
		total += ctx.PointerSize
	}

	return total, nil
}

func measureFields(ctx *EncodeContext, fields []Field) (int, error) {
	total := 0
	for _, f := range fields {
		if f.Type == nil {
			continue
		}

		v, err := fieldValue(ctx.Value, f.Name)
		if err != nil {
			return 0, err
		}

		n, err := f.Type.Size(v, ctx)
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", f.Name, err)
		}
		total += n
	}

	return total, nil
}

func fieldValue(rec Record, name string) (any, error) {
	if rec == nil {
		return nil, nil
	}

	return rec.Get(name)
}

func (t *Struct) Encode(s *stream.EncodeStream, value any, parent *EncodeContext) error {
	rec, err := encodableRecord(value, t.cfg.preEncode)
	if err != nil {
		return err
	}

	ctx := &EncodeContext{Parent: parent, Value: rec, StartOffset: s.Pos()}
	n, err := t.measure(ctx, false)
	if err != nil {
		return err
	}
	ctx.PointerSize = 0
	ctx.PointerOffset = s.Pos() + n

	if err := encodeFields(s, ctx, t.fields); err != nil {
		return err
	}

	return ctx.flush(s)
}

func encodableRecord(value any, preEncode func(Record) error) (Record, error) {
	rec, ok := asRecord(value)
	if !ok || rec == nil {
		return nil, fmt.Errorf("%w: struct cannot encode %T", errs.ErrInvalidValue, value)
	}

	if preEncode != nil {
		if err := preEncode(rec); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

func encodeFields(s *stream.EncodeStream, ctx *EncodeContext, fields []Field) error {
	for _, f := range fields {
		if f.Type == nil {
			continue
		}

		v, err := fieldValue(ctx.Value, f.Name)
		if err != nil {
			return err
		}

		if err := f.Type.Encode(s, v, ctx); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}

	return nil
}
