// Package pairing resolves channel-pairing approvals against a running
// instance. Direct network access to an instance is unreliable, so the
// resolver walks a prioritized fallback chain: the in-instance sidecar
// first, then the platform's remote-exec API, then an operator-configured
// exec template, and finally literal instructions for a human. Handing the
// command to a human is a valid resolution, not a failure.
package pairing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openclaw/clawhost/internal/core"
	"github.com/openclaw/clawhost/internal/model"
	"github.com/openclaw/clawhost/internal/openclaw"
	"github.com/openclaw/clawhost/internal/paas"
)

// Resolution method names reported in Result.Method.
const (
	MethodSidecar      = "sidecar"
	MethodPlatformExec = "platform_exec"
	MethodTemplateExec = "template_exec"
	MethodManual       = "manual"
)

// ErrCodeAutomationUnavailable marks a result where no automated tier and
// no manual surface could be produced for the instance.
const ErrCodeAutomationUnavailable = "automation_unavailable"

const (
	sidecarTimeout      = 8 * time.Second
	platformExecTimeout = 30 * time.Second
	templateExecTimeout = 30 * time.Second
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)

var supportedChannels = map[string]struct{}{
	"telegram": {},
	"whatsapp": {},
	"discord":  {},
	"slack":    {},
	"signal":   {},
}

// Result is the outcome of an approve or list resolution.
type Result struct {
	Success      bool     `json:"success"`
	Method       string   `json:"method,omitempty"`
	Message      string   `json:"message,omitempty"`
	Output       string   `json:"output,omitempty"`
	Raw          string   `json:"raw,omitempty"`
	Requests     []string `json:"requests,omitempty"`
	CLICommand   string   `json:"cli_command,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
	ErrorCode    string   `json:"error_code,omitempty"`
}

type Resolver struct {
	instances    *core.InstanceService
	platform     paas.Client
	execTemplate string
	gatewayCmd   string
	httpClient   *http.Client
	logger       zerolog.Logger
}

func NewResolver(instances *core.InstanceService, client paas.Client, execTemplate, gatewayCmd string, logger zerolog.Logger) *Resolver {
	if gatewayCmd == "" {
		gatewayCmd = "openclaw"
	}
	return &Resolver{
		instances:    instances,
		platform:     client,
		execTemplate: execTemplate,
		gatewayCmd:   gatewayCmd,
		httpClient:   &http.Client{},
		logger:       logger,
	}
}

// strategy is one tier of the fallback chain. Each runs under its own
// timeout; any error or unsuccessful result falls through to the next.
type strategy struct {
	name      string
	timeout   time.Duration
	available bool
	run       func(ctx context.Context) (*Result, error)
}

// Approve validates the pairing code and channel, then resolves the
// approval through the fallback chain.
func (r *Resolver) Approve(ctx context.Context, instanceID, channel, code string) (*Result, error) {
	channel = strings.ToLower(strings.TrimSpace(channel))
	code = strings.TrimSpace(code)

	if _, ok := supportedChannels[channel]; !ok {
		return nil, &core.ValidationError{Field: "channel", Reason: "unsupported channel"}
	}
	if !codePattern.MatchString(code) {
		return nil, &core.ValidationError{Field: "code", Reason: "pairing code must be 2-32 characters of [A-Za-z0-9_-]"}
	}

	inst, err := r.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	command := fmt.Sprintf("%s pairing approve %s %s", r.gatewayCmd, channel, code)

	strategies := []strategy{
		{
			name:      MethodSidecar,
			timeout:   sidecarTimeout,
			available: inst.ServiceName != "",
			run: func(ctx context.Context) (*Result, error) {
				return r.sidecarApprove(ctx, inst, channel, code)
			},
		},
		{
			name:      MethodPlatformExec,
			timeout:   platformExecTimeout,
			available: hasServiceID(inst),
			run: func(ctx context.Context) (*Result, error) {
				return r.platformExec(ctx, inst, []string{r.gatewayCmd, "pairing", "approve", channel, code})
			},
		},
		{
			name:      MethodTemplateExec,
			timeout:   templateExecTimeout,
			available: r.execTemplate != "",
			run: func(ctx context.Context) (*Result, error) {
				return r.templateExec(ctx, inst, command, channel, code)
			},
		},
	}

	return r.resolve(ctx, inst, strategies, &Result{
		Success:      true,
		Method:       MethodManual,
		Message:      "Copy and run this command in the platform terminal",
		CLICommand:   command,
		Instructions: terminalInstructions(command),
	}), nil
}

// List returns pending pairing requests for a channel, walking the same
// ordered chain for the read-only command. The terminal tier hands back the
// list command itself.
func (r *Resolver) List(ctx context.Context, instanceID, channel string) (*Result, error) {
	channel = strings.ToLower(strings.TrimSpace(channel))
	if _, ok := supportedChannels[channel]; !ok {
		return nil, &core.ValidationError{Field: "channel", Reason: "unsupported channel"}
	}

	inst, err := r.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	command := fmt.Sprintf("%s pairing list %s", r.gatewayCmd, channel)

	strategies := []strategy{
		{
			name:      MethodSidecar,
			timeout:   sidecarTimeout,
			available: inst.ServiceName != "",
			run: func(ctx context.Context) (*Result, error) {
				return r.sidecarList(ctx, inst, channel)
			},
		},
		{
			name:      MethodPlatformExec,
			timeout:   platformExecTimeout,
			available: hasServiceID(inst),
			run: func(ctx context.Context) (*Result, error) {
				return r.platformExec(ctx, inst, []string{r.gatewayCmd, "pairing", "list", channel})
			},
		},
		{
			name:      MethodTemplateExec,
			timeout:   templateExecTimeout,
			available: r.execTemplate != "",
			run: func(ctx context.Context) (*Result, error) {
				return r.templateExec(ctx, inst, command, channel, "")
			},
		},
	}

	return r.resolve(ctx, inst, strategies, &Result{
		Success:      true,
		Method:       MethodManual,
		Message:      "Run this command in the platform terminal to see pending requests",
		Requests:     []string{},
		CLICommand:   command,
		Instructions: terminalInstructions(command),
	}), nil
}

// resolve walks the chain in order; the first successful tier wins. When
// the instance offers nothing to address at all, a structured
// automation-unavailable result is returned instead of a silent success.
func (r *Resolver) resolve(ctx context.Context, inst *model.Instance, strategies []strategy, manual *Result) *Result {
	if inst.ServiceName == "" && !hasServiceID(inst) {
		return &Result{
			Success:      false,
			ErrorCode:    ErrCodeAutomationUnavailable,
			Message:      "instance has no platform service to run pairing against",
			CLICommand:   manual.CLICommand,
			Instructions: manual.Instructions,
		}
	}

	for _, s := range strategies {
		if !s.available {
			continue
		}
		sctx, cancel := context.WithTimeout(ctx, s.timeout)
		res, err := s.run(sctx)
		cancel()
		if err != nil {
			r.logger.Debug().Str("strategy", s.name).Str("instance_id", inst.ID).Err(err).
				Msg("pairing strategy failed, falling through")
			continue
		}
		if res != nil && res.Success {
			res.Method = s.name
			return res
		}
		r.logger.Debug().Str("strategy", s.name).Str("instance_id", inst.ID).
			Msg("pairing strategy unsuccessful, falling through")
	}

	return manual
}

func (r *Resolver) sidecarURL(inst *model.Instance, path string) string {
	host := r.platform.InternalHost(inst.ServiceName)
	return fmt.Sprintf("http://%s:%d%s", host, openclaw.SidecarPort, path)
}

func (r *Resolver) sidecarApprove(ctx context.Context, inst *model.Instance, channel, code string) (*Result, error) {
	body, err := json.Marshal(map[string]string{"channel": channel, "code": code})
	if err != nil {
		return nil, fmt.Errorf("marshal approve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.sidecarURL(inst, "/pairing/approve"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create approve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sidecar approve: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Output  string `json:"output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode sidecar response: %w", err)
	}

	return &Result{
		Success: payload.Success,
		Message: payload.Message,
		Output:  payload.Output,
	}, nil
}

func (r *Resolver) sidecarList(ctx context.Context, inst *model.Instance, channel string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.sidecarURL(inst, "/pairing/list/"+channel), nil)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sidecar list: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Success  bool     `json:"success"`
		Raw      string   `json:"raw"`
		Requests []string `json:"requests"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode sidecar response: %w", err)
	}

	if payload.Requests == nil {
		payload.Requests = []string{}
	}
	return &Result{
		Success:  payload.Success,
		Raw:      payload.Raw,
		Requests: payload.Requests,
	}, nil
}

func (r *Resolver) platformExec(ctx context.Context, inst *model.Instance, cmd []string) (*Result, error) {
	res, err := r.platform.Exec(ctx, *inst.ServiceID, cmd)
	if err != nil {
		if errors.Is(err, paas.ErrExecUnsupported) {
			return nil, err
		}
		return nil, fmt.Errorf("platform exec: %w", err)
	}

	result := &Result{
		Success: res.ExitCode == 0,
		Output:  res.Stdout,
		Raw:     res.Stdout,
	}
	if !result.Success {
		result.Message = strings.TrimSpace(res.Stderr)
	}
	return result, nil
}

// templateExec runs the operator-configured shell template. The pairing
// code, identifiers, and assembled command are escaped during substitution;
// only the template text itself is trusted.
func (r *Resolver) templateExec(ctx context.Context, inst *model.Instance, command, channel, code string) (*Result, error) {
	serviceID := ""
	if inst.ServiceID != nil {
		serviceID = *inst.ServiceID
	}

	rendered, err := renderTemplate(r.execTemplate, map[string]string{
		"service_id":   serviceID,
		"service_name": inst.ServiceName,
		"command":      command,
		"channel":      channel,
		"code":         code,
	})
	if err != nil {
		return nil, err
	}

	out, err := exec.CommandContext(ctx, "sh", "-c", rendered).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("exec template: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return &Result{Success: true, Output: string(out), Raw: string(out)}, nil
}

func hasServiceID(inst *model.Instance) bool {
	return inst.ServiceID != nil && *inst.ServiceID != ""
}

func terminalInstructions(command string) []string {
	return []string{
		"1. Open the platform dashboard",
		"2. Open your OpenClaw service and go to Deployments",
		"3. Click the active deployment and open its Terminal",
		"4. Paste and run: " + command,
	}
}
