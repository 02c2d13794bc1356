package paas

import (
	"errors"
	"fmt"
	"strings"
)

// TransientError marks a platform failure worth retrying: the platform's
// cooldown between mutating calls, a rate limit, or an ambiguous 4xx the
// platform is known to emit under load.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient platform error: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classifyAPIError wraps platform API failures. Cooldown and rate-limit
// messages, and the platform's ambiguous 400 responses, become transient;
// everything else passes through as-is.
func classifyAPIError(op string, status int, message string) error {
	lower := strings.ToLower(message)

	cooldown := strings.Contains(lower, "too recently updated") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate limited")
	ambiguous := status == 400 || strings.Contains(lower, "problem processing request")

	err := fmt.Errorf("status %d: %s", status, message)
	if cooldown || ambiguous {
		return &TransientError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
