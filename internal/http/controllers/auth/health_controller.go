package auth

import (
	"net/http"

	"github.com/dropDatabas3/agentgate/internal/http/helpers"

	svc "github.com/dropDatabas3/agentgate/internal/http/services/auth"
)

// HealthController publica GET /auth/health.
type HealthController struct {
	service svc.HealthService
}

// NewHealthController creates the controller.
func NewHealthController(s svc.HealthService) *HealthController {
	return &HealthController{service: s}
}

// Health responde el estado operacional del servicio.
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		helpers.WriteError(w, helpers.ErrMethodNotAllowed)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, c.service.Check(r.Context()))
}
