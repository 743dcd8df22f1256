package shared

import "errors"

var (
	// ErrConflict is returned when a unique constraint is violated,
	// e.g. a duplicate username or email at registration.
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized covers bad credentials and invalid, malformed or
	// expired tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned for unknown resources and expired task handles.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when a request body fails field validation.
	ErrValidation = errors.New("validation error")

	// Upstream provider errors. Callers use these to decide whether a
	// retry makes sense: rate-limited means back off, timeout means the
	// provider was unreachable or slow, upstream is everything else.
	ErrRateLimited = errors.New("rate limited by upstream provider")
	ErrTimeout     = errors.New("upstream request timed out")
	ErrUpstream    = errors.New("upstream provider error")
)
