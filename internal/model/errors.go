package model

import "errors"

// Sentinel failure kinds returned by the repository and service layers.
// Callers match them with errors.Is; lower layers wrap them with context.
var (
	// ErrAlreadyExists is returned when a create would duplicate a unique identifier.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is returned when an entity is required to exist and does not.
	ErrNotFound = errors.New("entity was not found")

	// ErrBadCredentials is returned when a presented password does not match.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrTokenInvalid is returned for malformed tokens or bad signatures.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired is returned when the token expiry is not after now.
	ErrTokenExpired = errors.New("token expired")

	// ErrCache wraps serialization and transport failures of the cache layer.
	ErrCache = errors.New("cache failure")

	// ErrLimitExceeded is returned when a per-user quota is reached.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrInvalidInput is returned for requests the service cannot act on.
	ErrInvalidInput = errors.New("invalid input")
)
