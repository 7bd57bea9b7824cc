package restructure

import (
	"github.com/arloliu/restructure/internal/pool"
	"github.com/arloliu/restructure/stream"
)

// Marshal encodes value with t into a new byte slice.
func Marshal(t Type, value any) ([]byte, error) {
	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)

	s, err := stream.NewEncodeStream(buf)
	if err != nil {
		return nil, err
	}

	if err := t.Encode(s, value, nil); err != nil {
		_ = s.End()
		return nil, err
	}
	if err := s.End(); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}

// Unmarshal decodes data with t. Lazy values in the result keep a reference
// to data.
func Unmarshal(t Type, data []byte) (any, error) {
	v, err := t.Decode(stream.NewDecodeStream(data), nil)
	if err != nil {
		return nil, err
	}

	return storable(v), nil
}
