package handler

import (
	"context"
	"net/http"
	"strconv"

	mw "github.com/openclaw/clawhost/internal/api/middleware"
	"github.com/openclaw/clawhost/internal/api/request"
	"github.com/openclaw/clawhost/internal/api/response"
	"github.com/openclaw/clawhost/internal/core"
)

const defaultLogTail = 100

// Instance exposes the caller's gateway instance. Every route operates on
// the single instance owned by the authenticated user.
type Instance struct {
	svc          *core.InstanceService
	logs         *core.DeploymentLogService
	orchestrator *core.Orchestrator
}

func NewInstance(svc *core.InstanceService, logs *core.DeploymentLogService, orchestrator *core.Orchestrator) *Instance {
	return &Instance{svc: svc, logs: logs, orchestrator: orchestrator}
}

// Deploy provisions a fresh instance from the submitted configuration,
// replacing any previous one the user had.
func (h *Instance) Deploy(w http.ResponseWriter, r *http.Request) {
	var req request.DeployInstance
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inst, err := h.orchestrator.Deploy(r.Context(), mw.UserID(r.Context()), req.UserConfiguration())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, inst)
}

func (h *Instance) Get(w http.ResponseWriter, r *http.Request) {
	inst, err := h.svc.GetByUser(r.Context(), mw.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, inst)
}

func (h *Instance) Start(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.orchestrator.Start)
}

func (h *Instance) Stop(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.orchestrator.Stop)
}

func (h *Instance) Restart(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.orchestrator.Restart)
}

func (h *Instance) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, instanceID string) error) {
	inst, err := h.svc.GetByUser(r.Context(), mw.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := op(r.Context(), inst.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	inst, err = h.svc.GetByID(r.Context(), inst.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, inst)
}

// Health runs an on-demand health check and returns the refreshed instance
// alongside the verdict.
func (h *Instance) Health(w http.ResponseWriter, r *http.Request) {
	inst, err := h.svc.GetByUser(r.Context(), mw.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	healthy, err := h.orchestrator.HealthCheck(r.Context(), inst.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	inst, err = h.svc.GetByID(r.Context(), inst.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"healthy":  healthy,
		"instance": inst,
	})
}

func (h *Instance) Logs(w http.ResponseWriter, r *http.Request) {
	inst, err := h.svc.GetByUser(r.Context(), mw.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	tail := defaultLogTail
	if s := r.URL.Query().Get("tail"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 1000 {
			response.WriteError(w, http.StatusBadRequest, "tail must be an integer between 1 and 1000")
			return
		}
		tail = n
	}

	logs, err := h.orchestrator.Logs(r.Context(), inst.ID, tail)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"logs": logs})
}

// Deployments returns the instance's lifecycle audit trail, newest first.
func (h *Instance) Deployments(w http.ResponseWriter, r *http.Request) {
	inst, err := h.svc.GetByUser(r.Context(), mw.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entries, err := h.logs.ListByInstance(r.Context(), inst.ID, 50)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, entries)
}
