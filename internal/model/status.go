package model

// Instance lifecycle status constants.
const (
	StatusDeploying  = "deploying"
	StatusRunning    = "running"
	StatusStopped    = "stopped"
	StatusRestarting = "restarting"
	StatusError      = "error"
	StatusDeleted    = "deleted"
)

// Lifecycle actions recorded in the deployment log.
const (
	ActionDeploy  = "deploy"
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
)

// Deployment log entry statuses.
const (
	LogInProgress = "in_progress"
	LogSuccess    = "success"
	LogFailed     = "failed"
	LogQueued     = "queued"
)
