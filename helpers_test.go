package restructure

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/restructure/stream"
)

// encodeAll encodes values back to back into one stream.
func encodeAll(t *testing.T, typ Type, values ...any) []byte {
	t.Helper()

	var buf bytes.Buffer
	s, err := stream.NewEncodeStream(&buf)
	require.NoError(t, err)

	for _, v := range values {
		require.NoError(t, typ.Encode(s, v, nil))
	}
	require.NoError(t, s.End())

	return buf.Bytes()
}

func newDiscardStream(t *testing.T) *stream.EncodeStream {
	t.Helper()

	s, err := stream.NewEncodeStream(io.Discard)
	require.NoError(t, err)

	return s
}

func decodeWith(t *testing.T, typ Type, data []byte, parent *DecodeContext) any {
	t.Helper()

	v, err := typ.Decode(stream.NewDecodeStream(data), parent)
	require.NoError(t, err)

	return v
}

// scope builds a decode context holding fields, as an enclosing struct would.
func scope(fields Record) *DecodeContext {
	return &DecodeContext{Value: fields}
}

// countingType counts Decode calls of the wrapped type.
type countingType struct {
	Type
	decodes int
}

func (c *countingType) Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error) {
	c.decodes++
	return c.Type.Decode(s, parent)
}
