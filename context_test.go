package restructure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/stream"
)

func TestDecodeContext_Lookup(t *testing.T) {
	root := &DecodeContext{Value: Record{"numTables": 3, "head": Record{"flags": 9}}}
	mid := &DecodeContext{Parent: root, Value: Record{"count": 2}}
	leaf := &DecodeContext{Parent: mid, Value: Record{"lazy": NewLazy(func() (any, error) { return 5, nil })}}

	tests := []struct {
		path  string
		want  any
		found bool
	}{
		{path: "lazy", want: 5, found: true},
		{path: "parent.count", want: 2, found: true},
		{path: "parent.parent.numTables", want: 3, found: true},
		{path: "parent.parent.head.flags", want: 9, found: true},
		{path: "parent.parent.parent.numTables"},
		{path: "missing"},
		{path: "parent.count.deeper"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, found := leaf.Lookup(tt.path)
			require.Equal(t, tt.found, found)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("nil context", func(t *testing.T) {
		var ctx *DecodeContext
		_, found := ctx.Lookup("x")
		require.False(t, found)
		require.Nil(t, ctx.Root())
	})

	t.Run("root", func(t *testing.T) {
		require.Same(t, root, leaf.Root())
		require.Same(t, root, root.Root())
	})
}

func TestEncodeContext_Lookup(t *testing.T) {
	root := &EncodeContext{Value: Record{"version": 1}}
	leaf := &EncodeContext{Parent: root, Value: Record{"len": 4}}

	v, ok := leaf.Lookup("len")
	require.True(t, ok)
	require.Equal(t, 4, v)

	v, ok = leaf.Lookup("parent.version")
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = root.Lookup("parent.version")
	require.False(t, ok)

	require.Same(t, root, leaf.Root())

	var nilCtx *EncodeContext
	_, ok = nilCtx.Lookup("len")
	require.False(t, ok)
}

func TestEncodeContext_FlushDrainsNestedTargets(t *testing.T) {
	ctx := &EncodeContext{PointerOffset: 1}
	inner := NewPointer(Uint8, Uint8)
	outer := NewPointer(Uint8, inner)

	data := encodeAll(t, typeFunc(func(s *stream.EncodeStream, value any, _ *EncodeContext) error {
		if err := outer.Encode(s, value, ctx); err != nil {
			return err
		}

		return ctx.flush(s)
	}), 42)

	// outer offset, inner offset queued by the flushed outer target, inner target
	require.Equal(t, []byte{1, 2, 42}, data)
	require.Len(t, ctx.Pointers, 2)
}

// typeFunc adapts an encode function to Type for tests.
type typeFunc func(s *stream.EncodeStream, value any, parent *EncodeContext) error

func (f typeFunc) Decode(*stream.DecodeStream, *DecodeContext) (any, error) { return nil, nil }
func (f typeFunc) Size(any, *EncodeContext) (int, error) { return 0, nil }
func (f typeFunc) Encode(s *stream.EncodeStream, value any, parent *EncodeContext) error {
	return f(s, value, parent)
}

func TestRecord_Get(t *testing.T) {
	errLoad := errors.New("load failed")
	rec := Record{
		"plain": 1,
		"lazy":  NewLazy(func() (any, error) { return "target", nil }),
		"bad":   NewLazy(func() (any, error) { return nil, errLoad }),
	}

	v, err := rec.Get("plain")
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = rec.Get("lazy")
	require.NoError(t, err)
	require.Equal(t, "target", v)

	v, err = rec.Get("missing")
	require.NoError(t, err)
	require.Nil(t, v)

	_, err = rec.Get("bad")
	require.ErrorIs(t, err, errLoad)
}

func TestRecord_Resolve(t *testing.T) {
	lazy := func(v any) *Lazy {
		return NewLazy(func() (any, error) { return v, nil })
	}

	rec := Record{
		"a":     lazy(1),
		"inner": Record{"b": lazy("two")},
		"list":  []any{lazy(3), Record{"c": lazy(4)}},
		"nil":   nil,
	}

	got, err := rec.Resolve()
	require.NoError(t, err)
	require.Equal(t, Record{
		"a":     1,
		"inner": Record{"b": "two"},
		"list":  []any{3, Record{"c": 4}},
		"nil":   nil,
	}, got)

	t.Run("error names the field", func(t *testing.T) {
		errLoad := errors.New("load failed")
		_, err := Record{"x": NewLazy(func() (any, error) { return nil, errLoad })}.Resolve()
		require.ErrorIs(t, err, errLoad)
		require.Contains(t, err.Error(), `field "x"`)
	})
}

func TestLazy_CachesResult(t *testing.T) {
	calls := 0
	l := NewLazy(func() (any, error) {
		calls++
		return calls, nil
	})

	for range 3 {
		v, err := l.Value()
		require.NoError(t, err)
		require.Equal(t, 1, v)
	}
	require.Equal(t, 1, calls)
}

func TestLength_Resolve(t *testing.T) {
	sc := scope(Record{"count": 3, "name": "x", "neg": -1, "f": 2.0})

	tests := []struct {
		name    string
		length  Length
		data    []byte
		scope   Scope
		want    int
		wantErr error
	}{
		{name: "constant", length: LenConst(4), want: 4},
		{name: "field", length: LenField("count"), scope: sc, want: 3},
		{name: "float field", length: LenField("f"), scope: sc, want: 2},
		{name: "missing field", length: LenField("other"), scope: sc, wantErr: errs.ErrSize},
		{name: "field without scope", length: LenField("count"), wantErr: errs.ErrSize},
		{name: "non-numeric field", length: LenField("name"), scope: sc, wantErr: errs.ErrSize},
		{name: "negative field", length: LenField("neg"), scope: sc, wantErr: errs.ErrSize},
		{
			name: "function",
			length: LenFunc(func(s Scope) int {
				v, _ := s.Lookup("count")
				n, _ := v.(int)
				return n * 2
			}),
			scope: sc,
			want:  6,
		},
		{
			name: "function without scope",
			length: LenFunc(func(s Scope) int {
				_, ok := s.Lookup("count")
				if ok {
					return 1
				}
				return 0
			}),
			want: 0,
		},
		{name: "prefix", length: LenPrefix(Uint16BE), data: []byte{0, 5}, want: 5},
		{name: "prefix without stream", length: LenPrefix(Uint8), wantErr: errs.ErrSize},
		{name: "prefix short", length: LenPrefix(Uint16BE), data: []byte{1}, wantErr: errs.ErrOutOfBounds},
		{name: "unset", length: Length{}, wantErr: errs.ErrSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s *stream.DecodeStream
			if tt.data != nil {
				s = stream.NewDecodeStream(tt.data)
			}

			got, err := tt.length.Resolve(s, tt.scope)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMarshal(t *testing.T) {
	st := personStruct()

	data, err := Marshal(st, Record{"name": "devon", "age": 21})
	require.NoError(t, err)
	require.Equal(t, []byte("\x05devon\x15"), data)

	got, err := Unmarshal(st, data)
	require.NoError(t, err)
	require.Equal(t, Record{"name": "devon", "age": 21}, got)

	_, err = Marshal(st, "nope")
	require.ErrorIs(t, err, errs.ErrInvalidValue)

	t.Run("skipped root decodes to nil", func(t *testing.T) {
		got, err := Unmarshal(NewReserved(Uint8, LenConst(2)), []byte{0, 0})
		require.NoError(t, err)
		require.Nil(t, got)
	})
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	v := decodeWith(t, NewString(LenConst(2), WithEncoding("x-no-such-charset")), []byte("hi"), nil)
	require.Equal(t, []byte("hi"), v)

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	require.Equal(t, "x-no-such-charset", warns[0].ContextMap()["encoding"])

	_ = decodeWith(t, NewPointer(Uint8, Uint8), []byte{1, 7}, scope(nil))
	require.NotEmpty(t, logs.FilterMessage("pointer dereference").All())

	t.Run("nil logger disables logging", func(t *testing.T) {
		SetLogger(nil)
		require.NotNil(t, Logger())
	})
}
