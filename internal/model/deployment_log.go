package model

import "time"

// DeploymentLog is an append-only audit record of a lifecycle action.
// Entries are never updated or deleted.
type DeploymentLog struct {
	ID         string    `json:"id" db:"id"`
	InstanceID string    `json:"instance_id" db:"instance_id"`
	Action     string    `json:"action" db:"action"`
	Status     string    `json:"status" db:"status"`
	Message    string    `json:"message" db:"message"`
	Error      *string   `json:"error,omitempty" db:"error"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
