package cli

import "errors"

var (
	ErrInvalidConfig = errors.New("utoolkit: invalid configuration")
	ErrTasksFailed   = errors.New("utoolkit: tasks failed")
)

// errTransient is returned by the first attempt of every --fail-every task.
var errTransient = errors.New("transient failure")
