package core

import (
	"context"
	"fmt"

	"github.com/openclaw/clawhost/internal/model"
	"github.com/openclaw/clawhost/internal/platform"
)

// DeploymentLogService writes the append-only lifecycle audit trail.
// There are deliberately no update or delete operations.
type DeploymentLogService struct {
	db DB
}

func NewDeploymentLogService(db DB) *DeploymentLogService {
	return &DeploymentLogService{db: db}
}

func (s *DeploymentLogService) Append(ctx context.Context, instanceID, action, status, message string, errMsg *string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO deployment_logs (id, instance_id, action, status, message, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		platform.NewID(), instanceID, action, status, message, errMsg,
	)
	if err != nil {
		return fmt.Errorf("append deployment log: %w", err)
	}
	return nil
}

func (s *DeploymentLogService) ListByInstance(ctx context.Context, instanceID string, limit int) ([]model.DeploymentLog, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, instance_id, action, status, message, error, created_at
		 FROM deployment_logs WHERE instance_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		instanceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list deployment logs: %w", err)
	}
	defer rows.Close()

	var logs []model.DeploymentLog
	for rows.Next() {
		var l model.DeploymentLog
		if err := rows.Scan(&l.ID, &l.InstanceID, &l.Action, &l.Status, &l.Message, &l.Error, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deployment log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deployment logs: %w", err)
	}
	return logs, nil
}
