package filament

import "errors"

var (
	// ErrTooFewNodes indicates a filament with less than two nodes.
	ErrTooFewNodes = errors.New("filament: body needs at least two nodes")

	// ErrInconsistentBody indicates rest lengths that do not match the nodes.
	ErrInconsistentBody = errors.New("filament: rest lengths do not match nodes")

	// ErrDegenerateSegment indicates a segment with a non-positive rest length.
	ErrDegenerateSegment = errors.New("filament: degenerate segment")

	// ErrNodeOutOfRange indicates a node index outside of the body.
	ErrNodeOutOfRange = errors.New("filament: node index out of range")
)
