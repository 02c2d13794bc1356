package platform

import (
	"strings"

	"github.com/google/uuid"
)

const serviceNamePrefix = "openclaw-"

func NewID() string {
	return uuid.New().String()
}

// NewGatewayToken generates the per-instance gateway auth token.
func NewGatewayToken() string {
	return uuid.New().String()
}

// ServiceName derives the deterministic platform service name for a user.
// The same user always maps to the same name, which lets an interrupted
// deploy be cleaned up by name on the next attempt.
func ServiceName(userID string) string {
	return serviceNamePrefix + strings.ToLower(userID)
}
