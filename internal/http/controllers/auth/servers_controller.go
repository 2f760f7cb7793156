package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/agentgate/internal/http/helpers"
	"github.com/dropDatabas3/agentgate/internal/metrics"
	"github.com/dropDatabas3/agentgate/internal/observability/logger"
	"github.com/dropDatabas3/agentgate/internal/store"

	dto "github.com/dropDatabas3/agentgate/internal/http/dto/auth"
	svc "github.com/dropDatabas3/agentgate/internal/http/services/auth"
)

const maxRegisterBodySize = 64 * 1024 // 64KB

// Headers con credencial admin para registrar fuera de dev mode.
const (
	headerAdminClientID     = "X-Admin-Client-Id"
	headerAdminClientSecret = "X-Admin-Client-Secret"
)

// ServersController maneja registración y listado de servers.
type ServersController struct {
	service svc.RegistryService
	guard   *svc.AdminGuard
	devMode bool
}

// NewServersController creates the controller.
func NewServersController(s svc.RegistryService, guard *svc.AdminGuard, devMode bool) *ServersController {
	return &ServersController{service: s, guard: guard, devMode: devMode}
}

// Register maneja POST /servers/register.
func (c *ServersController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("servers.register"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		helpers.WriteError(w, helpers.ErrMethodNotAllowed)
		return
	}

	// Fuera de dev mode la registración exige credencial admin por header.
	actor := "dev-mode"
	if !c.devMode {
		id := r.Header.Get(headerAdminClientID)
		secret := r.Header.Get(headerAdminClientSecret)
		if err := c.guard.Verify(id, secret); err != nil {
			log.Warn("admin guard rejected registration", logger.Err(err))
			metrics.Registrations.WithLabelValues("forbidden").Inc()
			helpers.WriteError(w, helpers.ErrForbidden.WithDetail("admin credentials required"))
			return
		}
		actor = id
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRegisterBodySize)
	defer r.Body.Close()

	var req dto.RegisterServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}

	resp, err := c.service.Register(ctx, svc.RegisterRequest{
		ServerID: req.ServerID,
		Name:     req.Name,
		Scopes:   req.Scopes,
		Actor:    actor,
	})
	if err != nil {
		c.writeRegisterError(w, ctx, err)
		return
	}

	metrics.Registrations.WithLabelValues("created").Inc()
	helpers.WriteJSON(w, http.StatusCreated, resp)
}

// List maneja GET /servers. Nunca expone secrets.
func (c *ServersController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		helpers.WriteError(w, helpers.ErrMethodNotAllowed)
		return
	}

	resp, err := c.service.List(ctx)
	if err != nil {
		logger.From(ctx).Error("failed to list servers", logger.Err(err))
		helpers.WriteError(w, helpers.ErrInternalServerError)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

func (c *ServersController) writeRegisterError(w http.ResponseWriter, ctx context.Context, err error) {
	var conflict *store.ConflictError
	switch {
	case errors.As(err, &conflict):
		metrics.Registrations.WithLabelValues("conflict").Inc()
		helpers.WriteJSON(w, http.StatusConflict, dto.RegisterConflictResponse{
			Error:    "server already registered",
			ClientID: conflict.Existing.ClientID,
			Scopes:   conflict.Existing.Scopes,
		})
	case errors.Is(err, svc.ErrRegisterInvalidServerID):
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("serverId is required"))
	case errors.Is(err, svc.ErrRegisterInvalidScope):
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("invalid scope name"))
	default:
		logger.From(ctx).Error("server registration failed", logger.Err(err))
		metrics.Registrations.WithLabelValues("error").Inc()
		helpers.WriteError(w, helpers.ErrInternalServerError)
	}
}
