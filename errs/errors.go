// Package errs defines the sentinel errors returned by restructure.
//
// Errors are always wrapped with context using fmt.Errorf and %w, so callers
// should test for them with errors.Is:
//
//	if errors.Is(err, errs.ErrUnknownVersion) {
//	    // fall back to a default record interpretation
//	}
package errs

import "errors"

var (
	// ErrSize is returned when a length or total size cannot be determined,
	// e.g. Size is called without a value on a dynamically sized descriptor.
	ErrSize = errors.New("not a fixed size")

	// ErrUnknownVersion is returned when a versioned struct discriminant has no
	// entry in its version table.
	ErrUnknownVersion = errors.New("unknown version")

	// ErrUnknownOption is returned when an enum is asked to encode a value that
	// is not one of its options.
	ErrUnknownOption = errors.New("unknown option in enum")

	// ErrType is returned when a pointer without a target type is given a value
	// that is not a VoidPointer.
	ErrType = errors.New("must be a VoidPointer")

	// ErrOutOfBounds is returned when a read or a seek leaves the source buffer.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrUnsupportedEncoding is returned when a string is encoded with a text
	// encoding that cannot be resolved.
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")

	// ErrNoContext is returned when a pointer is encoded outside of any struct
	// or array scope that could hold its target.
	ErrNoContext = errors.New("no enclosing pointer scope")

	// ErrInvalidValue is returned when a value has the wrong Go type for the
	// descriptor encoding it.
	ErrInvalidValue = errors.New("invalid value")

	// ErrVersionKeyConflict is returned when a versioned struct is encoded or
	// sized through a nested versioned struct that stores its discriminant
	// under the same record key, so the outer discriminant is not recoverable.
	ErrVersionKeyConflict = errors.New("nested versioned struct shares the version key")

	// ErrSchema is returned when a YAML schema document cannot be compiled.
	ErrSchema = errors.New("invalid schema")
)
