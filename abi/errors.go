package abi

import "github.com/cockroachdb/errors"

var (
	// ErrArgumentIndex is returned when an argument slot outside the frame's
	// declared argument count is requested.
	ErrArgumentIndex = errors.New("argument index out of range")
	// ErrArgumentCount is returned when a frame is requested with a negative
	// argument count or more than MaxArgs arguments.
	ErrArgumentCount = errors.New("invalid argument count")
	// ErrOutOfMemory is returned when an Allocator cannot satisfy a request.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrNullPointer is returned when a by-reference Datum holds address zero.
	ErrNullPointer = errors.New("by-reference datum is a null pointer")
	// ErrUnsupportedVarlena is returned for compressed or external (toasted)
	// variable-length values, which this layer cannot expand.
	ErrUnsupportedVarlena = errors.New("unsupported varlena format")
	// ErrMalformedVarlena is returned when a varlena header is inconsistent.
	ErrMalformedVarlena = errors.New("malformed varlena header")
	// ErrVarlenaTooLarge is returned when a value exceeds the 1 GB varlena limit.
	ErrVarlenaTooLarge = errors.New("value exceeds maximum varlena size")
	// ErrKindMismatch is returned when a Value is read as a different kind.
	ErrKindMismatch = errors.New("value kind mismatch")
)
