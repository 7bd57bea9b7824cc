package restructure

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/internal/options"
	"github.com/arloliu/restructure/stream"
)

// PointerType selects the anchor a stored offset is measured from.
type PointerType uint8

const (
	// PointerLocal is relative to the start of the enclosing struct.
	PointerLocal PointerType = iota
	// PointerImmediate is relative to the offset field itself.
	PointerImmediate
	// PointerParent is relative to the start of the struct enclosing the
	// enclosing struct.
	PointerParent
	// PointerGlobal is relative to the start of the outermost struct.
	PointerGlobal
)

func (t PointerType) String() string {
	switch t {
	case PointerLocal:
		return "local"
	case PointerImmediate:
		return "immediate"
	case PointerParent:
		return "parent"
	case PointerGlobal:
		return "global"
	default:
		return fmt.Sprintf("PointerType(%d)", uint8(t))
	}
}

// VoidPointer carries its own target type. It is the value a Pointer without
// a target type encodes.
type VoidPointer struct {
	Type  Type
	Value any
}

// Pointer is an offset stored inline that refers to a target encoded
// elsewhere. Decode follows the offset; encode writes the offset and defers
// the target to the pointer area of the anchoring scope.
type Pointer struct {
	offset     *Number
	target     Type
	ptrType    PointerType
	relativeTo string
	nullValue  int
	allowNull  bool
	lazy       bool
}

var _ Type = (*Pointer)(nil)

// PointerOption configures a Pointer.
type PointerOption = options.Option[*Pointer]

// WithPointerType sets the anchor kind. The default is PointerLocal.
func WithPointerType(t PointerType) PointerOption {
	return options.NoError(func(p *Pointer) {
		p.ptrType = t
	})
}

// WithRelativeTo adds the numeric value at a dotted path of the enclosing
// scope to the anchor, e.g. "parent.dataOffset". While decoding only fields
// decoded before the pointer are visible, so the path must name an earlier
// field or one of a parent scope; an unresolved path is an error.
func WithRelativeTo(path string) PointerOption {
	return options.NoError(func(p *Pointer) {
		p.relativeTo = path
	})
}

// WithNullValue sets the stored offset that means null. The default is 0.
func WithNullValue(v int) PointerOption {
	return options.NoError(func(p *Pointer) {
		p.nullValue = v
	})
}

// WithAllowNull controls whether the null offset decodes to nil. It is
// enabled by default.
func WithAllowNull(allow bool) PointerOption {
	return options.NoError(func(p *Pointer) {
		p.allowNull = allow
	})
}

// WithLazy makes decode return a *Lazy that dereferences on first use.
func WithLazy() PointerOption {
	return options.NoError(func(p *Pointer) {
		p.lazy = true
	})
}

// NewPointer creates a pointer whose offset is stored as offset. A nil
// target makes a void pointer: decode yields the absolute target position
// and encode requires a VoidPointer value.
func NewPointer(offset *Number, target Type, opts ...PointerOption) *Pointer {
	p := &Pointer{offset: offset, target: target, allowNull: true}
	_ = options.Apply(p, opts...)

	return p
}

func (p *Pointer) relativeOffset(scope Scope) (int, error) {
	if p.relativeTo == "" {
		return 0, nil
	}

	v, ok := scope.Lookup(p.relativeTo)
	if !ok {
		return 0, fmt.Errorf("%w: relative path %q not found", errs.ErrNoContext, p.relativeTo)
	}

	n, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("%w: relative path %q holds %T", errs.ErrInvalidValue, p.relativeTo, v)
	}

	return n, nil
}

func (p *Pointer) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	raw, err := p.offset.Decode(s, parent)
	if err != nil {
		return nil, err
	}

	offset, _ := toInt(raw)
	if p.allowNull && offset == p.nullValue {
		return nil, nil
	}

	var base int
	switch p.ptrType {
	case PointerLocal:
		base = parent.startOffset()
	case PointerImmediate:
		base = s.Pos() - p.offset.width()
	case PointerParent:
		if parent != nil {
			base = parent.Parent.startOffset()
		}
	case PointerGlobal:
		base = parent.Root().startOffset()
	}
	rel, err := p.relativeOffset(parent)
	if err != nil {
		return nil, err
	}

	target := base + rel + offset
	if p.target == nil {
		return target, nil
	}

	deref := func() (any, error) {
		pos := s.Pos()
		defer s.SetPos(pos)

		Logger().Debug("pointer dereference",
			zap.Stringer("type", p.ptrType), zap.Int("offset", offset), zap.Int("target", target))
		s.SetPos(target)

		v, err := p.target.Decode(s, parent)
		if err != nil {
			return nil, fmt.Errorf("pointer target at %d: %w", target, err)
		}

		return storable(v), nil
	}

	if p.lazy {
		return NewLazy(deref), nil
	}

	return deref()
}

// anchor returns the scope whose pointer area receives the target.
func (p *Pointer) anchor(ctx *EncodeContext) *EncodeContext {
	switch p.ptrType {
	case PointerParent:
		if ctx == nil {
			return nil
		}

		return ctx.Parent
	case PointerGlobal:
		return ctx.Root()
	default:
		return ctx
	}
}

// targetOf unwraps void pointers into their own type and value.
func (p *Pointer) targetOf(value any) (Type, any, error) {
	if p.target != nil {
		return p.target, value, nil
	}

	switch vp := value.(type) {
	case VoidPointer:
		return vp.Type, vp.Value, nil
	case *VoidPointer:
		if vp != nil {
			return vp.Type, vp.Value, nil
		}
	}

	return nil, nil, fmt.Errorf("%w: got %T", errs.ErrType, value)
}

// Size returns the offset width and reserves the target size in the anchor
// scope's pointer area.
func (p *Pointer) Size(value any, parent *EncodeContext) (int, error) {
	value, err := unwrapLazy(value)
	if err != nil {
		return 0, err
	}

	if value != nil {
		t, v, err := p.targetOf(value)
		if err != nil {
			return 0, err
		}

		if scope := p.anchor(parent); scope != nil {
			n, err := t.Size(v, parent)
			if err != nil {
				return 0, fmt.Errorf("pointer target: %w", err)
			}
			scope.PointerSize += n
		}
	}

	return p.offset.width(), nil
}

func (p *Pointer) Encode(s *stream.EncodeStream, value any, parent *EncodeContext) error {
	value, err := unwrapLazy(value)
	if err != nil {
		return err
	}

	if value == nil {
		return p.offset.encodeInt(s, p.nullValue)
	}

	scope := p.anchor(parent)
	if scope == nil {
		return fmt.Errorf("%w: %s pointer", errs.ErrNoContext, p.ptrType)
	}

	var base int
	switch p.ptrType {
	case PointerImmediate:
		base = s.Pos()
	default:
		base = scope.StartOffset
	}
	rel, err := p.relativeOffset(parent)
	if err != nil {
		return err
	}
	base += rel

	t, v, err := p.targetOf(value)
	if err != nil {
		return err
	}

	if err := p.offset.encodeInt(s, scope.PointerOffset-base); err != nil {
		return fmt.Errorf("pointer offset: %w", err)
	}

	n, err := t.Size(v, parent)
	if err != nil {
		return fmt.Errorf("pointer target: %w", err)
	}
	scope.enqueue(t, v, parent)
	scope.PointerOffset += n

	return nil
}
