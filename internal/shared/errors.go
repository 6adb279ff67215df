package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrUnknownDriver = fmt.Errorf("unknown store driver")

	// Record errors
	ErrUserNotFound = fmt.Errorf("user not found")
	ErrInvalidRole  = fmt.Errorf("invalid role")
	ErrInvalidPatch = fmt.Errorf("invalid patch")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
