package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openclaw/clawhost/internal/model"
)

const instanceColumns = `id, user_id, service_id, service_name, port, status, service_url, access_url, last_health_check, created_at, updated_at`

type InstanceService struct {
	db DB
}

func NewInstanceService(db DB) *InstanceService {
	return &InstanceService{db: db}
}

func (s *InstanceService) Create(ctx context.Context, inst *model.Instance) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO instances (id, user_id, service_id, service_name, port, status, service_url, access_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inst.ID, inst.UserID, inst.ServiceID, inst.ServiceName, inst.Port,
		inst.Status, inst.ServiceURL, inst.AccessURL, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert instance: %w", err)
	}
	return nil
}

func (s *InstanceService) GetByID(ctx context.Context, id string) (*model.Instance, error) {
	return s.get(ctx, `SELECT `+instanceColumns+` FROM instances WHERE id = $1`, id)
}

func (s *InstanceService) GetByUser(ctx context.Context, userID string) (*model.Instance, error) {
	return s.get(ctx, `SELECT `+instanceColumns+` FROM instances WHERE user_id = $1`, userID)
}

func (s *InstanceService) get(ctx context.Context, query, arg string) (*model.Instance, error) {
	var inst model.Instance
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&inst.ID, &inst.UserID, &inst.ServiceID, &inst.ServiceName, &inst.Port,
		&inst.Status, &inst.ServiceURL, &inst.AccessURL, &inst.LastHealthCheck,
		&inst.CreatedAt, &inst.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return &inst, nil
}

// ListActive returns instances the health sweeper should look at: anything
// not stopped, since deploying/restarting/error states can still converge.
func (s *InstanceService) ListActive(ctx context.Context) ([]model.Instance, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+instanceColumns+` FROM instances WHERE status NOT IN ($1, $2)`,
		model.StatusStopped, model.StatusDeleted,
	)
	if err != nil {
		return nil, fmt.Errorf("list active instances: %w", err)
	}
	defer rows.Close()

	var instances []model.Instance
	for rows.Next() {
		var inst model.Instance
		if err := rows.Scan(
			&inst.ID, &inst.UserID, &inst.ServiceID, &inst.ServiceName, &inst.Port,
			&inst.Status, &inst.ServiceURL, &inst.AccessURL, &inst.LastHealthCheck,
			&inst.CreatedAt, &inst.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return instances, nil
}

// SetServiceID persists the platform service ID. Recorded as soon as the
// platform call returns so a crash mid-deploy can self-heal from the row.
func (s *InstanceService) SetServiceID(ctx context.Context, id, serviceID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE instances SET service_id = $1, updated_at = now() WHERE id = $2`,
		serviceID, id,
	)
	if err != nil {
		return fmt.Errorf("set instance %s service id: %w", id, err)
	}
	return nil
}

func (s *InstanceService) SetStatus(ctx context.Context, id, status string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE instances SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("set instance %s status to %s: %w", id, status, err)
	}
	return nil
}

// SetDeployed records the post-create state of a deploy in one write.
func (s *InstanceService) SetDeployed(ctx context.Context, id, serviceID, status string, serviceURL *string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE instances SET service_id = $1, status = $2, service_url = $3, access_url = NULL, updated_at = now()
		 WHERE id = $4`,
		serviceID, status, serviceURL, id,
	)
	if err != nil {
		return fmt.Errorf("set instance %s deployed: %w", id, err)
	}
	return nil
}

// SetHealth updates the health-check timestamp and the derived status. The
// timestamp moves on every check, pass or fail, so the poller's liveness is
// visible in the row.
func (s *InstanceService) SetHealth(ctx context.Context, id string, healthy bool, accessURL *string) error {
	status := model.StatusError
	if healthy {
		status = model.StatusRunning
	}
	_, err := s.db.Exec(ctx,
		`UPDATE instances SET status = $1, last_health_check = $2, access_url = COALESCE($3, access_url), updated_at = now()
		 WHERE id = $4`,
		status, time.Now(), accessURL, id,
	)
	if err != nil {
		return fmt.Errorf("set instance %s health: %w", id, err)
	}
	return nil
}

func (s *InstanceService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM instances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete instance %s: %w", id, err)
	}
	return nil
}

// NextPort allocates the instance's logical slot from a sequence. It is a
// uniqueness token, not necessarily a bindable network port.
func (s *InstanceService) NextPort(ctx context.Context) (int, error) {
	var port int
	err := s.db.QueryRow(ctx, `SELECT nextval('instance_port_seq')`).Scan(&port)
	if err != nil {
		return 0, fmt.Errorf("next instance port: %w", err)
	}
	return port, nil
}
