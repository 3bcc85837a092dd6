package pattern

import "errors"

// Use errors.Is() to check for these errors in calling code.
var (
	// ErrPatternNotFound is returned when no pattern matches a name or id.
	ErrPatternNotFound = errors.New("pattern: not found")

	// ErrUnknownDirective is returned for a "~" token with no known meaning.
	ErrUnknownDirective = errors.New("pattern: unknown directive")

	// ErrMalformedDirective is returned when a known directive is badly formed,
	// such as "~pattern:name" without a step list.
	ErrMalformedDirective = errors.New("pattern: malformed directive")

	// ErrEmptyPattern is returned when playing a pattern with no steps.
	ErrEmptyPattern = errors.New("pattern: no steps")

	// ErrLockedPattern is returned when saving over a built-in pattern.
	ErrLockedPattern = errors.New("pattern: built-in patterns cannot be changed")

	// ErrInvalidPattern is returned when a pattern to save has no name or steps.
	ErrInvalidPattern = errors.New("pattern: invalid pattern")

	// ErrClosed is returned by Play after Close.
	ErrClosed = errors.New("pattern: service closed")
)
