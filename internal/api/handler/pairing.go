package handler

import (
	"net/http"

	mw "github.com/openclaw/clawhost/internal/api/middleware"
	"github.com/openclaw/clawhost/internal/api/request"
	"github.com/openclaw/clawhost/internal/api/response"
	"github.com/openclaw/clawhost/internal/core"
	"github.com/openclaw/clawhost/internal/pairing"
)

type Pairing struct {
	svc      *core.InstanceService
	resolver *pairing.Resolver
}

func NewPairing(svc *core.InstanceService, resolver *pairing.Resolver) *Pairing {
	return &Pairing{svc: svc, resolver: resolver}
}

// Approve resolves a channel pairing approval for the caller's instance.
// A result with success=false and an error_code is still a 200; only
// malformed input or a missing instance is an HTTP error.
func (h *Pairing) Approve(w http.ResponseWriter, r *http.Request) {
	var req request.ApprovePairing
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inst, err := h.svc.GetByUser(r.Context(), mw.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := h.resolver.Approve(r.Context(), inst.ID, req.Channel, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, res)
}

func (h *Pairing) List(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		response.WriteError(w, http.StatusBadRequest, "missing channel query parameter")
		return
	}

	inst, err := h.svc.GetByUser(r.Context(), mw.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := h.resolver.List(r.Context(), inst.ID, channel)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, res)
}
