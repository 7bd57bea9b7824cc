package restructure

import (
	"fmt"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/internal/options"
	"github.com/arloliu/restructure/stream"
)

// Array is a homogeneous sequence. Its extent is an item count, a byte length
// (WithByteLength), a count stored in a length prefix, or, when no length is
// given, everything up to the end of the enclosing struct or buffer.
type Array struct {
	item    Type
	length  Length
	byBytes bool
}

var _ Type = (*Array)(nil)

// ArrayOption configures an Array or LazyArrayType.
type ArrayOption = options.Option[*Array]

// WithByteLength interprets the length as a number of bytes rather than
// items. Decoding stops at the first item boundary at or after the target.
func WithByteLength() ArrayOption {
	return options.NoError(func(a *Array) {
		a.byBytes = true
	})
}

// NewArray creates an array of item.
func NewArray(item Type, length Length, opts ...ArrayOption) *Array {
	a := &Array{item: item, length: length}
	_ = options.Apply(a, opts...)

	return a
}

func (a *Array) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	pos := s.Pos()
	ctx := parent

	var (
		length int
		err    error
	)
	if a.length.IsSet() {
		if length, err = a.length.Resolve(s, parent); err != nil {
			return nil, err
		}
	}

	if a.length.IsPrefix() {
		ctx = &DecodeContext{Parent: parent, StartOffset: pos, Length: length}
	}

	if a.length.IsSet() && !a.byBytes {
		// length may come off the wire; never reserve more than the input can hold.
		result := make([]any, 0, min(length, s.Remaining()))
		for range length {
			v, err := a.item.Decode(s, ctx)
			if err != nil {
				return nil, err
			}
			result = append(result, storable(v))
		}

		return result, nil
	}

	var target int
	switch {
	case a.length.IsSet():
		target = s.Pos() + length
	case parent != nil && parent.Length > 0:
		target = parent.StartOffset + parent.Length
	default:
		target = s.Len()
	}

	var result []any
	for s.Pos() < target {
		before := s.Pos()
		v, err := a.item.Decode(s, ctx)
		if err != nil {
			return nil, err
		}
		if s.Pos() == before {
			return nil, fmt.Errorf("%w: array item consumed no bytes", errs.ErrSize)
		}
		result = append(result, storable(v))
	}

	if result == nil {
		result = []any{}
	}

	return result, nil
}

// storable maps a skipped item to nil so that array indices are preserved.
func storable(v any) any {
	if isAbsent(v) {
		return nil
	}

	return v
}

// Size of a length-prefixed array includes the pointer targets it flushes
// right after its items.
func (a *Array) Size(value any, parent *EncodeContext) (int, error) {
	if value == nil {
		return a.staticSize(parent)
	}

	items, err := toSlice(value)
	if err != nil {
		return 0, err
	}

	if !a.length.IsPrefix() {
		n, _, err := a.measureItems(items, parent)
		return n, err
	}

	n, ptrs, err := a.measureItems(items, &EncodeContext{Parent: parent})
	if err != nil {
		return 0, err
	}

	return a.length.prefixWidth() + n + ptrs, nil
}

func (a *Array) staticSize(scope Scope) (int, error) {
	if a.byBytes && !a.length.IsPrefix() {
		return a.length.static(scope)
	}

	item, err := a.item.Size(nil, nil)
	if err != nil {
		return 0, err
	}

	n, err := a.length.static(scope)
	if err != nil {
		return 0, err
	}

	return item * n, nil
}

// measureItems returns the byte length of the items and the pointer data
// they reserved in ctx.
func (a *Array) measureItems(items []any, ctx *EncodeContext) (int, int, error) {
	total := 0
	for _, item := range items {
		n, err := a.item.Size(item, ctx)
		if err != nil {
			return 0, 0, err
		}
		total += n
	}

	if ctx == nil {
		return total, 0, nil
	}

	return total, ctx.PointerSize, nil
}

func (a *Array) Encode(s *stream.EncodeStream, value any, parent *EncodeContext) error {
	items, err := toSlice(value)
	if err != nil {
		return err
	}

	if !a.length.IsPrefix() {
		for _, item := range items {
			if err := a.item.Encode(s, item, parent); err != nil {
				return err
			}
		}

		return nil
	}

	ctx := &EncodeContext{Parent: parent, StartOffset: s.Pos()}
	n, _, err := a.measureItems(items, ctx)
	if err != nil {
		return err
	}
	ctx.PointerSize = 0
	ctx.PointerOffset = s.Pos() + a.length.prefixWidth() + n

	count := len(items)
	if a.byBytes {
		count = n
	}
	if err := a.length.prefix.encodeInt(s, count); err != nil {
		return err
	}

	for _, item := range items {
		if err := a.item.Encode(s, item, ctx); err != nil {
			return err
		}
	}

	return ctx.flush(s)
}
