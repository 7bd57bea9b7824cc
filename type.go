package restructure

import (
	"github.com/arloliu/restructure/stream"
)

// Type describes how one region of a binary layout is decoded, sized and
// encoded.
//
// Implementations are immutable after construction and may be shared by
// concurrent calls as long as each call uses its own streams and contexts.
type Type interface {
	// Decode consumes bytes at the cursor and returns the decoded value.
	Decode(s *stream.DecodeStream, parent *DecodeContext) (any, error)

	// Size returns the exact number of bytes Encode writes for value in the
	// given context. A nil value asks for the static size, which fails with
	// errs.ErrSize for dynamically sized descriptors.
	Size(value any, parent *EncodeContext) (int, error)

	// Encode writes value at the cursor, deferring pointer targets into the
	// enclosing context's pointer queue.
	Encode(s *stream.EncodeStream, value any, parent *EncodeContext) error
}

// absentValue marks a decode result that must not be stored, such as a
// disabled optional field or reserved padding.
type absentValue struct{}

var absent = absentValue{}

func isAbsent(v any) bool {
	_, ok := v.(absentValue)
	return ok
}
