package stack

import "errors"

var (
	// ErrConfig reports invalid stack configuration: unknown path types,
	// non-positive sample sizes, mismatched sizes across parts, bad signs,
	// or an empty path. The caller must fix the parameters; there is no
	// retry.
	ErrConfig = errors.New("invalid stack configuration")

	// ErrState reports an operation that is invalid for the path's current
	// lifecycle state, such as reading the aggregate before Analyze or
	// adding parts after it.
	ErrState = errors.New("invalid operation for stack state")
)
