package model

import "time"

// Instance is a user's private deployed gateway process. There is at most
// one live instance per user; a fresh deploy replaces any prior one.
type Instance struct {
	ID              string     `json:"id" db:"id"`
	UserID          string     `json:"user_id" db:"user_id"`
	ServiceID       *string    `json:"service_id,omitempty" db:"service_id"`
	ServiceName     string     `json:"service_name" db:"service_name"`
	Port            int        `json:"port" db:"port"`
	Status          string     `json:"status" db:"status"`
	ServiceURL      *string    `json:"service_url,omitempty" db:"service_url"`
	AccessURL       *string    `json:"access_url,omitempty" db:"access_url"`
	LastHealthCheck *time.Time `json:"last_health_check,omitempty" db:"last_health_check"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
