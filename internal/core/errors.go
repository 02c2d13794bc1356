package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist. pgx's
// ErrNoRows is mapped onto it at the service boundary.
var ErrNotFound = errors.New("not found")

// ValidationError marks malformed caller input. It is raised before any
// external call and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DeploymentFailure is a terminal platform-side failure: the platform
// reports the deployment as failed or crashed. LogExcerpt carries the tail
// of the instance logs when they could be fetched.
type DeploymentFailure struct {
	Status     string
	LogExcerpt string
}

func (e *DeploymentFailure) Error() string {
	if e.LogExcerpt == "" {
		return fmt.Sprintf("deployment %s", e.Status)
	}
	return fmt.Sprintf("deployment %s\n%s", e.Status, e.LogExcerpt)
}
