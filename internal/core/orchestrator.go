package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openclaw/clawhost/internal/model"
	"github.com/openclaw/clawhost/internal/openclaw"
	"github.com/openclaw/clawhost/internal/paas"
	"github.com/openclaw/clawhost/internal/platform"
)

// OrchestratorOptions configures instance deployment.
type OrchestratorOptions struct {
	GatewayImage string
	GatewayCmd   string
	Retry        paas.RetryPolicy
}

// Orchestrator owns the per-user instance lifecycle: deploy, start, stop,
// restart, health. All lifecycle mutations for one user are serialized
// through a per-user lock; health checks are read-mostly and run without it.
type Orchestrator struct {
	instances *InstanceService
	logs      *DeploymentLogService
	platform  paas.Client
	opts      OrchestratorOptions
	locks     *userLocks
	logger    zerolog.Logger
}

func NewOrchestrator(instances *InstanceService, logs *DeploymentLogService, client paas.Client, opts OrchestratorOptions, logger zerolog.Logger) *Orchestrator {
	if opts.Retry == (paas.RetryPolicy{}) {
		opts.Retry = paas.DefaultRetryPolicy()
	}
	return &Orchestrator{
		instances: instances,
		logs:      logs,
		platform:  client,
		opts:      opts,
		locks:     newUserLocks(),
		logger:    logger,
	}
}

// Deploy provisions a fresh instance for the user. Any existing instance and
// any orphaned platform service under the deterministic name are removed
// first, best-effort. Returns as soon as the platform has accepted the
// service; the platform's build pipeline promotes it to running via health
// checks.
func (o *Orchestrator) Deploy(ctx context.Context, userID string, cfg *model.UserConfiguration) (*model.Instance, error) {
	unlock := o.locks.Lock(userID)
	defer unlock()

	serviceName := platform.ServiceName(userID)

	o.cleanupExisting(ctx, userID)
	o.cleanupOrphan(ctx, serviceName)

	port, err := o.instances.NextPort(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inst := &model.Instance{
		ID:          platform.NewID(),
		UserID:      userID,
		ServiceName: serviceName,
		Port:        port,
		Status:      model.StatusDeploying,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := o.instances.Create(ctx, inst); err != nil {
		return nil, err
	}

	o.appendLog(ctx, inst.ID, model.ActionDeploy, model.LogInProgress, "creating platform service", nil)

	if err := o.createService(ctx, inst, cfg); err != nil {
		if stErr := o.instances.SetStatus(ctx, inst.ID, model.StatusError); stErr != nil {
			o.logger.Error().Err(stErr).Str("instance_id", inst.ID).Msg("failed to mark instance errored")
		}
		msg := err.Error()
		o.appendLog(ctx, inst.ID, model.ActionDeploy, model.LogFailed, "deployment failed", &msg)
		return nil, fmt.Errorf("deploy instance for user %s: %w", userID, err)
	}

	return o.instances.GetByID(ctx, inst.ID)
}

// cleanupExisting deletes the user's previous instance and its platform
// service. Failures are warnings: a stale service must not block a fresh
// deploy, the orphan sweep picks it up next time.
func (o *Orchestrator) cleanupExisting(ctx context.Context, userID string) {
	existing, err := o.instances.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return
	}
	if err != nil {
		o.logger.Warn().Err(err).Str("user_id", userID).Msg("lookup of existing instance failed, continuing")
		return
	}

	o.logger.Info().Str("user_id", userID).Str("instance_id", existing.ID).Msg("cleaning up existing instance")

	if existing.ServiceID != nil && *existing.ServiceID != "" {
		if err := o.platform.DeleteService(ctx, *existing.ServiceID); err != nil {
			o.logger.Warn().Err(err).Str("service_id", *existing.ServiceID).Msg("existing service cleanup failed, continuing")
		}
	}
	if err := o.instances.Delete(ctx, existing.ID); err != nil {
		o.logger.Warn().Err(err).Str("instance_id", existing.ID).Msg("existing instance row cleanup failed, continuing")
	}
}

// cleanupOrphan removes a platform service left behind by a previously
// interrupted deploy, found by the deterministic service name.
func (o *Orchestrator) cleanupOrphan(ctx context.Context, serviceName string) {
	serviceID, err := o.platform.FindServiceByName(ctx, serviceName)
	if err != nil {
		o.logger.Warn().Err(err).Str("service_name", serviceName).Msg("orphan lookup failed, continuing")
		return
	}
	if serviceID == "" {
		return
	}
	o.logger.Info().Str("service_name", serviceName).Str("service_id", serviceID).Msg("deleting orphaned platform service")
	if err := o.platform.DeleteService(ctx, serviceID); err != nil {
		o.logger.Warn().Err(err).Str("service_id", serviceID).Msg("orphan cleanup failed, continuing")
	}
}

func (o *Orchestrator) createService(ctx context.Context, inst *model.Instance, cfg *model.UserConfiguration) error {
	gatewayToken := platform.NewGatewayToken()

	doc := openclaw.GenerateConfig(cfg, gatewayToken)
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal gateway config: %w", err)
	}

	env := openclaw.BuildSecrets(cfg)
	env[openclaw.EnvConfig] = string(docJSON)
	env[openclaw.EnvGatewayToken] = gatewayToken
	env[openclaw.EnvSidecarB64] = openclaw.SidecarScriptB64()

	if err := openclaw.ValidateEnv(cfg, env); err != nil {
		return err
	}

	var serviceID string
	err = o.opts.Retry.Do(ctx, o.logger, "create service", func(ctx context.Context) error {
		var err error
		serviceID, err = o.platform.CreateService(ctx, inst.ServiceName, o.opts.GatewayImage, env)
		return err
	})
	if err != nil {
		return err
	}

	// Persist the service ID right away: if anything below fails, the row
	// still points at the real service and the next deploy can clean it up.
	if err := o.instances.SetServiceID(ctx, inst.ID, serviceID); err != nil {
		o.logger.Warn().Err(err).Str("instance_id", inst.ID).Msg("failed to persist service id, continuing")
	}

	startCmd := openclaw.BuildStartCommand(o.opts.GatewayCmd)
	err = o.opts.Retry.Do(ctx, o.logger, "update start command", func(ctx context.Context) error {
		return o.platform.UpdateStartCommand(ctx, serviceID, startCmd)
	})
	if err != nil {
		// The default image command still boots the gateway; only pairing
		// automation degrades, so this is not fatal.
		o.logger.Warn().Err(err).Str("service_id", serviceID).Msg("start command override failed, continuing with image default")
	}

	serviceURL := fmt.Sprintf("http://%s:%d", o.platform.InternalHost(inst.ServiceName), openclaw.GatewayPort)
	if err := o.instances.SetDeployed(ctx, inst.ID, serviceID, model.StatusDeploying, &serviceURL); err != nil {
		return err
	}

	o.appendLog(ctx, inst.ID, model.ActionDeploy, model.LogQueued, "deployment queued (platform-managed)", nil)
	return nil
}

// Start resumes a stopped instance. Starting an already-running instance is
// a no-op. Errors propagate to the caller: this is an explicit user action.
func (o *Orchestrator) Start(ctx context.Context, instanceID string) error {
	inst, err := o.instances.GetByID(ctx, instanceID)
	if err != nil {
		return err
	}
	unlock := o.locks.Lock(inst.UserID)
	defer unlock()

	if inst.Status == model.StatusRunning {
		return nil
	}

	serviceID, err := o.ensureServiceID(ctx, inst)
	if err != nil {
		return err
	}

	err = o.opts.Retry.Do(ctx, o.logger, "start instance", func(ctx context.Context) error {
		return o.platform.RedeployService(ctx, serviceID)
	})
	if err != nil {
		return err
	}

	if err := o.instances.SetStatus(ctx, inst.ID, model.StatusRunning); err != nil {
		return err
	}
	o.appendLog(ctx, inst.ID, model.ActionStart, model.LogSuccess, "instance started", nil)
	return nil
}

// Stop halts the instance's active deployment. Stopping an already-stopped
// instance is a no-op.
func (o *Orchestrator) Stop(ctx context.Context, instanceID string) error {
	inst, err := o.instances.GetByID(ctx, instanceID)
	if err != nil {
		return err
	}
	unlock := o.locks.Lock(inst.UserID)
	defer unlock()

	if inst.Status == model.StatusStopped {
		return nil
	}

	serviceID, err := o.ensureServiceID(ctx, inst)
	if err != nil {
		return err
	}

	dep, err := o.platform.LatestDeployment(ctx, serviceID)
	if err != nil {
		return err
	}
	if dep == nil {
		return fmt.Errorf("no active deployment for instance %s: %w", inst.ID, ErrNotFound)
	}

	err = o.opts.Retry.Do(ctx, o.logger, "stop instance", func(ctx context.Context) error {
		return o.platform.RemoveDeployment(ctx, dep.ID)
	})
	if err != nil {
		return err
	}

	if err := o.instances.SetStatus(ctx, inst.ID, model.StatusStopped); err != nil {
		return err
	}
	o.appendLog(ctx, inst.ID, model.ActionStop, model.LogSuccess, "instance stopped", nil)
	return nil
}

// Restart restarts the last successful deployment, or redeploys from
// scratch when none succeeded. The instance always leaves the restarting
// state: running on success, error on failure.
func (o *Orchestrator) Restart(ctx context.Context, instanceID string) error {
	inst, err := o.instances.GetByID(ctx, instanceID)
	if err != nil {
		return err
	}
	unlock := o.locks.Lock(inst.UserID)
	defer unlock()

	if err := o.instances.SetStatus(ctx, inst.ID, model.StatusRestarting); err != nil {
		return err
	}

	if err := o.restartDeployment(ctx, inst); err != nil {
		if stErr := o.instances.SetStatus(ctx, inst.ID, model.StatusError); stErr != nil {
			o.logger.Error().Err(stErr).Str("instance_id", inst.ID).Msg("failed to mark instance errored")
		}
		msg := err.Error()
		o.appendLog(ctx, inst.ID, model.ActionRestart, model.LogFailed, "restart failed", &msg)
		return err
	}

	if err := o.instances.SetStatus(ctx, inst.ID, model.StatusRunning); err != nil {
		return err
	}
	o.appendLog(ctx, inst.ID, model.ActionRestart, model.LogSuccess, "instance restarted", nil)
	return nil
}

func (o *Orchestrator) restartDeployment(ctx context.Context, inst *model.Instance) error {
	serviceID, err := o.ensureServiceID(ctx, inst)
	if err != nil {
		return err
	}

	dep, err := o.platform.LatestDeployment(ctx, serviceID)
	if err != nil {
		return err
	}

	return o.opts.Retry.Do(ctx, o.logger, "restart instance", func(ctx context.Context) error {
		if dep != nil && dep.Status == paas.DeployStatusSuccess {
			return o.platform.RestartDeployment(ctx, dep.ID)
		}
		return o.platform.RedeployService(ctx, serviceID)
	})
}

// HealthCheck polls the platform for the instance's deployment state and
// maps it onto the lifecycle status. The health-check timestamp is advanced
// even when the check fails, so a wedged poller is distinguishable from a
// wedged instance.
func (o *Orchestrator) HealthCheck(ctx context.Context, instanceID string) (bool, error) {
	inst, err := o.instances.GetByID(ctx, instanceID)
	if err != nil {
		return false, err
	}

	serviceID, err := o.ensureServiceID(ctx, inst)
	if err != nil {
		o.recordHealth(ctx, inst.ID, false, nil)
		return false, err
	}

	dep, err := o.platform.LatestDeployment(ctx, serviceID)
	if err != nil {
		o.recordHealth(ctx, inst.ID, false, nil)
		return false, err
	}

	healthy := dep != nil && dep.Status == paas.DeployStatusSuccess
	var accessURL *string
	if dep != nil && dep.URL != "" {
		accessURL = &dep.URL
	}
	o.recordHealth(ctx, inst.ID, healthy, accessURL)

	if dep != nil && (dep.Status == paas.DeployStatusFailed || dep.Status == paas.DeployStatusCrashed) {
		return false, &DeploymentFailure{Status: dep.Status, LogExcerpt: o.logExcerpt(ctx, dep.ID)}
	}
	return healthy, nil
}

func (o *Orchestrator) recordHealth(ctx context.Context, instanceID string, healthy bool, accessURL *string) {
	if err := o.instances.SetHealth(ctx, instanceID, healthy, accessURL); err != nil {
		o.logger.Error().Err(err).Str("instance_id", instanceID).Msg("failed to record health check")
	}
}

func (o *Orchestrator) logExcerpt(ctx context.Context, deploymentID string) string {
	lines, err := o.platform.Logs(ctx, deploymentID, 30)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "[%s] %s\n", l.Severity, l.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Logs fetches the tail of the instance's deployment logs.
func (o *Orchestrator) Logs(ctx context.Context, instanceID string, tail int) (string, error) {
	inst, err := o.instances.GetByID(ctx, instanceID)
	if err != nil {
		return "", err
	}

	serviceID, err := o.ensureServiceID(ctx, inst)
	if err != nil {
		return "", err
	}

	dep, err := o.platform.LatestDeployment(ctx, serviceID)
	if err != nil {
		return "", err
	}
	if dep == nil {
		return "No deployments found.", nil
	}

	lines, err := o.platform.Logs(ctx, dep.ID, tail)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "[%s] [%s] %s\n", l.Timestamp.Format(time.RFC3339), l.Severity, l.Message)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// ensureServiceID resolves the platform service ID, falling back to a
// by-name lookup when the row predates the ID being persisted. The resolved
// ID is written back so the lookup happens once.
func (o *Orchestrator) ensureServiceID(ctx context.Context, inst *model.Instance) (string, error) {
	if inst.ServiceID != nil && *inst.ServiceID != "" {
		return *inst.ServiceID, nil
	}
	if inst.ServiceName == "" {
		return "", fmt.Errorf("instance %s has no service name", inst.ID)
	}

	serviceID, err := o.platform.FindServiceByName(ctx, inst.ServiceName)
	if err != nil {
		return "", err
	}
	if serviceID == "" {
		return "", fmt.Errorf("platform service %s not found: %w", inst.ServiceName, ErrNotFound)
	}

	if err := o.instances.SetServiceID(ctx, inst.ID, serviceID); err != nil {
		o.logger.Warn().Err(err).Str("instance_id", inst.ID).Msg("failed to persist resolved service id")
	}
	inst.ServiceID = &serviceID
	return serviceID, nil
}

func (o *Orchestrator) appendLog(ctx context.Context, instanceID, action, status, message string, errMsg *string) {
	if err := o.logs.Append(ctx, instanceID, action, status, message, errMsg); err != nil {
		o.logger.Error().Err(err).Str("instance_id", instanceID).Msg("failed to append deployment log")
	}
}
