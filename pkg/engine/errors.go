package engine

import "errors"

// Errors returned to clients as {"message": ...} with status 500.
var (
	// ErrObjectRequired is returned when an administrative operation that
	// needs a JSON object body receives anything else.
	ErrObjectRequired = errors.New("a json object is required")

	// ErrTenantRequired is returned when a tenant-scoped operation is
	// invoked without a tenant path segment.
	ErrTenantRequired = errors.New("a tenant is required")

	// ErrBodyTooLarge is returned when a request body exceeds the limit.
	ErrBodyTooLarge = errors.New("request body exceeds maximum allowed size")
)
