package handler

import (
	"errors"
	"net/http"

	"github.com/openclaw/clawhost/internal/api/response"
	"github.com/openclaw/clawhost/internal/core"
)

// writeServiceError maps core errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case core.IsValidation(err):
		response.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, err.Error())
	default:
		var df *core.DeploymentFailure
		if errors.As(err, &df) {
			response.WriteError(w, http.StatusBadGateway, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
