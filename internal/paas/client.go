// Package paas abstracts the container platform hosting gateway instances.
// Two adapters satisfy the same semantics: a Railway API client and a local
// Docker daemon client.
package paas

import (
	"context"
	"errors"
	"time"
)

// Deployment status values reported by LatestDeployment. Adapters map
// platform-native states onto these.
const (
	DeployStatusSuccess   = "SUCCESS"
	DeployStatusFailed    = "FAILED"
	DeployStatusCrashed   = "CRASHED"
	DeployStatusBuilding  = "BUILDING"
	DeployStatusDeploying = "DEPLOYING"
)

// Deployment describes the most recent deployment of a service.
type Deployment struct {
	ID     string
	Status string
	URL    string
}

// LogLine is one log entry from a deployment.
type LogLine struct {
	Timestamp time.Time
	Severity  string
	Message   string
}

// ExecResult holds the result of running a command inside an instance.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ErrExecUnsupported is returned by adapters whose platform has no
// remote-exec control-plane API. Callers with a fallback chain skip to the
// next tier.
var ErrExecUnsupported = errors.New("remote exec not supported by this platform")

// Client is the container platform abstraction. Any call may fail with a
// *TransientError (cooldown, rate limit, ambiguous 4xx), which callers
// retry through Retry; all other errors are final.
type Client interface {
	// CreateService creates a service running the given image with the given
	// environment and returns its platform service ID. The platform deploys
	// it on its own schedule.
	CreateService(ctx context.Context, name, image string, env map[string]string) (string, error)

	// UpdateStartCommand overrides the service's container start command.
	UpdateStartCommand(ctx context.Context, serviceID, cmd string) error

	DeleteService(ctx context.Context, serviceID string) error

	// FindServiceByName resolves a service ID from its name. Returns "" with
	// a nil error when no such service exists.
	FindServiceByName(ctx context.Context, name string) (string, error)

	// LatestDeployment returns the newest deployment of the service, or nil
	// when none exists yet.
	LatestDeployment(ctx context.Context, serviceID string) (*Deployment, error)

	RestartDeployment(ctx context.Context, deploymentID string) error
	RedeployService(ctx context.Context, serviceID string) error
	RemoveDeployment(ctx context.Context, deploymentID string) error

	Logs(ctx context.Context, deploymentID string, tail int) ([]LogLine, error)

	// Exec runs a command inside the service's running instance. Returns
	// ErrExecUnsupported when the platform has no such API.
	Exec(ctx context.Context, serviceID string, cmd []string) (*ExecResult, error)

	// InternalHost returns the hostname under which other services on the
	// platform's private network reach the named service.
	InternalHost(serviceName string) string
}
