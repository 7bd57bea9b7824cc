package restructure

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/stream"
)

// LazyArrayType is an array of statically sized items that decodes to a
// *LazyArray. Only the total span is computed up front; items are decoded on
// first access.
type LazyArrayType struct {
	Array
}

var _ Type = (*LazyArrayType)(nil)

// NewLazyArray creates a lazy array of item. The length is required.
func NewLazyArray(item Type, length Length, opts ...ArrayOption) *LazyArrayType {
	return &LazyArrayType{Array: *NewArray(item, length, opts...)}
}

func (t *LazyArrayType) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	pos := s.Pos()
	length, err := t.length.Resolve(s, parent)
	if err != nil {
		return nil, err
	}

	ctx := parent
	if t.length.IsPrefix() {
		ctx = &DecodeContext{Parent: parent, StartOffset: pos, Length: length}
	}

	itemSize, err := t.item.Size(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("lazy array item: %w", err)
	}

	span := length * itemSize
	if t.byBytes {
		span = length
		if itemSize == 0 {
			return nil, fmt.Errorf("%w: lazy array of zero sized items", errs.ErrSize)
		}
		length /= itemSize
	}

	result := &LazyArray{
		item:     t.item,
		length:   length,
		itemSize: itemSize,
		s:        s,
		ctx:      ctx,
		base:     s.Pos(),
		cache:    make(map[int]any),
	}

	if err := s.Skip(span); err != nil {
		return nil, err
	}

	return result, nil
}

// LazyArray is a decoded array whose items are materialized on demand. Each
// item is decoded at most once.
//
// Note: a LazyArray shares the source DecodeStream and is NOT thread-safe.
type LazyArray struct {
	item     Type
	length   int
	itemSize int
	s        *stream.DecodeStream
	ctx      *DecodeContext
	base     int
	cache    map[int]any
}

// Len returns the number of items.
func (l *LazyArray) Len() int {
	return l.length
}

// Get returns the item at index i. ok is false for an out of range index,
// which is not an error. The source cursor position is left unchanged.
func (l *LazyArray) Get(i int) (value any, ok bool, err error) {
	if i < 0 || i >= l.length {
		return nil, false, nil
	}

	if v, cached := l.cache[i]; cached {
		return v, true, nil
	}

	pos := l.s.Pos()
	defer l.s.SetPos(pos)

	l.s.SetPos(l.base + l.itemSize*i)
	v, err := l.item.Decode(l.s, l.ctx)
	if err != nil {
		return nil, false, err
	}
	v = storable(v)

	Logger().Debug("lazy array item materialized", zap.Int("index", i), zap.Int("offset", l.base+l.itemSize*i))
	l.cache[i] = v

	return v, true, nil
}

// ToSlice materializes every item.
func (l *LazyArray) ToSlice() ([]any, error) {
	out := make([]any, 0, l.length)
	for i := range l.length {
		v, _, err := l.Get(i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}
