package restructure

import (
	"fmt"

	"github.com/arloliu/restructure/errs"
	"github.com/arloliu/restructure/stream"
)

type lengthKind uint8

const (
	lengthUnset lengthKind = iota
	lengthConst
	lengthField
	lengthFunc
	lengthPrefix
)

// Length specifies the extent of a variable sized descriptor. The zero value
// means "unspecified", which each descriptor interprets in its own way.
type Length struct {
	kind   lengthKind
	n      int
	path   string
	fn     func(Scope) int
	prefix *Number
}

// LenConst is a literal length.
func LenConst(n int) Length {
	return Length{kind: lengthConst, n: n}
}

// LenField reads the length from a field path of the enclosing scope,
// e.g. "count" or "parent.numTables".
func LenField(path string) Length {
	return Length{kind: lengthField, path: path}
}

// LenFunc computes the length from the enclosing scope.
func LenFunc(fn func(Scope) int) Length {
	return Length{kind: lengthFunc, fn: fn}
}

// LenPrefix reads the length as a number stored immediately before the data.
func LenPrefix(n *Number) Length {
	return Length{kind: lengthPrefix, prefix: n}
}

// IsSet reports whether a length was specified.
func (l Length) IsSet() bool {
	return l.kind != lengthUnset
}

// IsPrefix reports whether the length is stored in the stream.
func (l Length) IsPrefix() bool {
	return l.kind == lengthPrefix
}

// IsConst reports whether the length is a literal.
func (l Length) IsConst() bool {
	return l.kind == lengthConst
}

// prefixWidth returns the byte width of the length prefix, 0 for other kinds.
func (l Length) prefixWidth() int {
	if l.kind != lengthPrefix {
		return 0
	}

	return l.prefix.width()
}

// Resolve turns the length into a count. A prefix length is consumed from s;
// it fails with errs.ErrSize when s is nil.
func (l Length) Resolve(s *stream.DecodeStream, scope Scope) (int, error) {
	var (
		v   any
		ok  bool
		src string
	)

	switch l.kind {
	case lengthConst:
		v, ok, src = l.n, true, "constant"
	case lengthField:
		src = fmt.Sprintf("field %q", l.path)
		if scope != nil {
			v, ok = scope.Lookup(l.path)
		}
	case lengthFunc:
		if scope == nil {
			scope = (*DecodeContext)(nil)
		}
		v, ok, src = l.fn(scope), true, "function"
	case lengthPrefix:
		src = "prefix"
		if s == nil {
			return 0, fmt.Errorf("%w: length prefix needs a stream", errs.ErrSize)
		}
		decoded, err := l.prefix.Decode(s, nil)
		if err != nil {
			return 0, err
		}
		v, ok = decoded, true
	default:
		return 0, fmt.Errorf("%w: length is not specified", errs.ErrSize)
	}

	if !ok {
		return 0, fmt.Errorf("%w: %s is not available", errs.ErrSize, src)
	}

	n, isNum := toInt(v)
	if !isNum {
		return 0, fmt.Errorf("%w: %s resolved to non-numeric %T", errs.ErrSize, src, v)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s resolved to negative length %d", errs.ErrSize, src, n)
	}

	return n, nil
}

// static resolves the length without a stream, for Size calls.
func (l Length) static(scope Scope) (int, error) {
	return l.Resolve(nil, scope)
}
