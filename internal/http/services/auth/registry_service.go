package auth

import (
	"context"
	"errors"
	"sort"

	dto "github.com/dropDatabas3/agentgate/internal/http/dto/auth"
	"github.com/dropDatabas3/agentgate/internal/observability/logger"
	"github.com/dropDatabas3/agentgate/internal/store"
	"github.com/dropDatabas3/agentgate/internal/validation"
)

// RegistryService maneja registración y listado de servers (MCP clients).
type RegistryService interface {
	Register(ctx context.Context, req RegisterRequest) (*dto.RegisterServerResponse, error)
	List(ctx context.Context) (*dto.ListServersResponse, error)
}

// RegisterRequest son los datos ya autenticados de una registración.
type RegisterRequest struct {
	ServerID string
	Name     string
	Scopes   []string
	// Actor identifica quién registró: "dev-mode" o el client_id admin.
	Actor string
}

var (
	// ErrRegisterInvalidServerID: server_id vacío o malformado.
	ErrRegisterInvalidServerID = errors.New("invalid server_id")
	// ErrRegisterInvalidScope: algún scope no cumple la gramática de nombres.
	ErrRegisterInvalidScope = errors.New("invalid scope name")
)

type registryService struct {
	registry *store.Registry
}

// NewRegistryService builds the registry service.
func NewRegistryService(registry *store.Registry) RegistryService {
	return &registryService{registry: registry}
}

func (s *registryService) Register(ctx context.Context, req RegisterRequest) (*dto.RegisterServerResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("registry.register"))

	if req.ServerID == "" {
		return nil, ErrRegisterInvalidServerID
	}
	for _, sc := range req.Scopes {
		if !validation.ValidScopeName(sc) {
			log.Warn("rejected scope name", logger.ServerID(req.ServerID), logger.Scope(sc))
			return nil, ErrRegisterInvalidScope
		}
	}

	created, err := s.registry.Register(ctx, store.RegisterInput{
		ServerID:     req.ServerID,
		Name:         req.Name,
		Scopes:       req.Scopes,
		RegisteredBy: req.Actor,
	})
	if err != nil {
		return nil, err
	}

	return &dto.RegisterServerResponse{
		ServerID:     created.ServerID,
		ClientID:     created.ClientID,
		ClientSecret: created.Secret,
		Scopes:       created.Scopes,
	}, nil
}

func (s *registryService) List(ctx context.Context) (*dto.ListServersResponse, error) {
	servers, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ServerSummary, 0, len(servers))
	for _, sc := range servers {
		out = append(out, dto.ServerSummary{
			ServerID:     sc.ServerID,
			Name:         sc.Name,
			Scopes:       sc.Scopes,
			CreatedAt:    sc.CreatedAt,
			RegisteredBy: sc.RegisteredBy,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServerID < out[j].ServerID })

	return &dto.ListServersResponse{Servers: out}, nil
}
