package core

import "errors"

// Error kinds shared by every package. Wrap them with fmt.Errorf("...: %w", err)
// and test with errors.Is.
var (
	// ErrInvalidState marks an operation invoked before its prerequisites,
	// e.g. sampling lights before BuildLightStructs.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidGeometry marks malformed meshes or degenerate frames.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrNumericDegenerate marks a zero or non-finite density where a
	// positive one was required.
	ErrNumericDegenerate = errors.New("numeric degenerate")
)
