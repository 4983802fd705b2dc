package services

import "errors"

// Sentinel errors handlers translate into HTTP statuses. Repo-boundary
// failures arrive already tagged with the repos sentinels; these cover the
// cases only the service layer can decide.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidArgument = errors.New("invalid argument")
)
