package tshark

import "errors"

// Sentinel errors for session and builder failures. Wrapped errors carry
// paths or diagnostic text; match with errors.Is.
var (
	// ErrNotFound reports that no tshark executable could be resolved.
	ErrNotFound = errors.New("tshark: executable not found")

	// ErrNoInput reports a builder with no input source at all.
	ErrNoInput = errors.New("tshark: no input source configured")

	// ErrMultipleInputs reports more than one input without live capture.
	// tshark only honours the last -r option, so this is refused up front.
	ErrMultipleInputs = errors.New("tshark: multiple inputs require live capture")

	// ErrProcessFailed reports that the tshark process terminated after
	// writing a diagnostic line to stderr, e.g. a bad filter expression or
	// an unwritable output path. The wrapped message carries the line.
	ErrProcessFailed = errors.New("tshark: process reported an error")

	// ErrNoVersion reports --version output with no parsable version in it.
	ErrNoVersion = errors.New("tshark: unable to parse version from output")
)
