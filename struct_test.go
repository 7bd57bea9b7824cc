package restructure

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/stream"
)

func personStruct(opts ...StructOption) *Struct {
	return NewStruct([]Field{
		F("name", NewString(LenPrefix(Uint8))),
		F("age", Uint8),
	}, opts...)
}

func TestStruct_Decode(t *testing.T) {
	t.Run("into a record", func(t *testing.T) {
		got := decodeWith(t, personStruct(), []byte("\x05devon\x15"), nil)
		require.Equal(t, Record{"name": "devon", "age": 21}, got)
	})

	t.Run("process hook", func(t *testing.T) {
		st := personStruct(WithProcess(func(rec Record, _ *DecodeContext) error {
			rec["canDrink"] = rec["age"].(int) >= 21
			return nil
		}))

		got := decodeWith(t, st, []byte("\x05devon\x20"), nil)
		require.Equal(t, Record{"name": "devon", "age": 32, "canDrink": true}, got)
	})

	t.Run("process hook error", func(t *testing.T) {
		errProcess := errors.New("rejected")
		st := personStruct(WithProcess(func(Record, *DecodeContext) error { return errProcess }))

		_, err := Unmarshal(st, []byte("\x05devon\x20"))
		require.ErrorIs(t, err, errProcess)
	})

	t.Run("computed fields", func(t *testing.T) {
		st := NewStruct([]Field{
			F("name", NewString(LenPrefix(Uint8))),
			F("age", Uint8),
			Computed("canDrink", func(ctx *DecodeContext) any {
				return ctx.Value["age"].(int) >= 21
			}),
			Computed("offset", func(ctx *DecodeContext) any {
				return ctx.CurrentOffset
			}),
		})

		got := decodeWith(t, st, []byte("\x05devon\x20"), nil)
		require.Equal(t, Record{"name": "devon", "age": 32, "canDrink": true, "offset": 7}, got)
	})

	t.Run("declared length bounds trailing array", func(t *testing.T) {
		st := NewStruct([]Field{
			F("count", Uint8),
			F("items", NewArray(Uint8, Length{})),
		})

		rec, err := st.DecodeLength(stream.NewDecodeStream([]byte{9, 1, 2, 3, 4}), nil, 3)
		require.NoError(t, err)
		require.Equal(t, Record{"count": 9, "items": []any{1, 2}}, rec)
	})

	t.Run("field errors name the field", func(t *testing.T) {
		_, err := Unmarshal(personStruct(), []byte("\x05dev"))
		require.ErrorIs(t, err, errs.ErrOutOfBounds)
		require.Contains(t, err.Error(), `field "name"`)
	})
}

func TestStruct_Size(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		n, err := personStruct().Size(Record{"name": "devon", "age": 21}, nil)
		require.NoError(t, err)
		require.Equal(t, 7, n)
	})

	t.Run("with pointers", func(t *testing.T) {
		st := NewStruct([]Field{
			F("name", NewString(LenPrefix(Uint8))),
			F("age", Uint8),
			F("ptr", NewPointer(Uint8, NewString(LenPrefix(Uint8)))),
		})

		n, err := st.Size(Record{"name": "devon", "age": 21, "ptr": "hello"}, nil)
		require.NoError(t, err)
		require.Equal(t, 14, n)
	})

	t.Run("no value with static fields", func(t *testing.T) {
		st := NewStruct([]Field{
			F("name", NewString(LenConst(4))),
			F("age", Uint8),
		})

		n, err := st.Size(nil, nil)
		require.NoError(t, err)
		require.Equal(t, 5, n)
	})

	t.Run("no value with dynamic fields", func(t *testing.T) {
		_, err := personStruct().Size(nil, nil)
		require.ErrorIs(t, err, errs.ErrSize)
	})

	t.Run("plain map", func(t *testing.T) {
		n, err := personStruct().Size(map[string]any{"name": "devon", "age": 21}, nil)
		require.NoError(t, err)
		require.Equal(t, 7, n)
	})
}

func TestStruct_Encode(t *testing.T) {
	t.Run("to bytes", func(t *testing.T) {
		require.Equal(t, []byte("\x05devon\x15"), encodeAll(t, personStruct(), Record{"name": "devon", "age": 21}))
	})

	t.Run("preEncode hook", func(t *testing.T) {
		st := NewStruct([]Field{
			F("nameLength", Uint8),
			F("name", NewString(LenField("nameLength"))),
			F("age", Uint8),
		}, WithPreEncode(func(rec Record) error {
			rec["nameLength"] = len(rec["name"].(string))
			return nil
		}))

		require.Equal(t, []byte("\x05devon\x15"), encodeAll(t, st, Record{"name": "devon", "age": 21}))
	})

	t.Run("pointer data after structure", func(t *testing.T) {
		st := NewStruct([]Field{
			F("name", NewString(LenPrefix(Uint8))),
			F("age", Uint8),
			F("ptr", NewPointer(Uint8, NewString(LenPrefix(Uint8)))),
		})

		data := encodeAll(t, st, Record{"name": "devon", "age": 21, "ptr": "hello"})
		require.Equal(t, []byte("\x05devon\x15\x08\x05hello"), data)
		require.Equal(t, Record{"name": "devon", "age": 21, "ptr": "hello"}, decodeWith(t, st, data, nil))
	})

	t.Run("computed fields are not encoded", func(t *testing.T) {
		st := NewStruct([]Field{
			F("age", Uint8),
			Computed("double", func(ctx *DecodeContext) any { return ctx.Value["age"].(int) * 2 }),
		})
		require.Equal(t, []byte{3}, encodeAll(t, st, Record{"age": 3, "double": 6}))
	})

	t.Run("invalid value", func(t *testing.T) {
		s := newDiscardStream(t)
		require.ErrorIs(t, personStruct().Encode(s, nil, nil), errs.ErrInvalidValue)
		require.ErrorIs(t, personStruct().Encode(s, []int{1}, nil), errs.ErrInvalidValue)
	})

	t.Run("multiple values in one stream", func(t *testing.T) {
		st := NewStruct([]Field{
			F("ptr", NewPointer(Uint8, Uint8)),
		})

		var buf bytes.Buffer
		s, err := stream.NewEncodeStream(&buf)
		require.NoError(t, err)
		require.NoError(t, st.Encode(s, Record{"ptr": 7}, nil))
		require.NoError(t, st.Encode(s, Record{"ptr": 9}, nil))
		require.NoError(t, s.End())

		// offsets are relative to each struct's own start
		require.Equal(t, []byte{1, 7, 1, 9}, buf.Bytes())
	})
}

func TestStruct_NestedPointerScopes(t *testing.T) {
	inner := NewStruct([]Field{
		F("local", NewPointer(Uint8, Uint8)),
		F("up", NewPointer(Uint8, Uint8, WithPointerType(PointerParent))),
	})
	outer := NewStruct([]Field{
		F("a", Uint8),
		F("inner", inner),
		F("top", NewPointer(Uint8, Uint8, WithPointerType(PointerGlobal))),
	})

	value := Record{
		"a":     1,
		"inner": Record{"local": 2, "up": 3},
		"top":   4,
	}

	data := encodeAll(t, outer, value)
	// a | inner.local inner.up | inner area: 2 | top | outer area: 3 4
	require.Equal(t, []byte{1, 2, 5, 2, 6, 3, 4}, data)

	n, err := outer.Size(value, nil)
	require.NoError(t, err)
	require.Len(t, data, n)

	require.Equal(t, value, decodeWith(t, outer, data, nil))
}
