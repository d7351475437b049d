package pdml

import "errors"

// Sentinel errors returned by the decoder. Wrapped errors carry the field
// name or input offset; match with errors.Is.
var (
	// ErrNoName reports a proto or field tag without the mandatory name
	// attribute.
	ErrNoName = errors.New("pdml: tag missing mandatory name attribute")

	// ErrNoValue reports a field carrying none of the show, value and
	// showname attributes, leaving nothing to represent it with.
	ErrNoValue = errors.New("pdml: field has no readable value")

	// ErrBadTimestamp reports a general-information timestamp that does not
	// decode as "<seconds>.<nanoseconds>". A corrupt timestamp indicates a
	// corrupt report, so this is fatal rather than skipped.
	ErrBadTimestamp = errors.New("pdml: malformed capture timestamp")

	// ErrNoLayer reports a field that should attach to an existing layer
	// while the packet has none. This is an internal invariant violation.
	ErrNoLayer = errors.New("pdml: no layer to attach metadata to")
)
