package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrGraphOperation is returned for graph operations the traversal graph refuses to
	// perform, such as scanning all vertices or edges without ids.
	ErrGraphOperation = errors.New("graph operation not supported")

	// ErrInvalidState is returned when reading a property value that is not present.
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidID       = errors.New("invalid element id")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("authentication required")
)
