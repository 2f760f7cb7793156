package auth

import (
	"context"

	dto "github.com/dropDatabas3/agentgate/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
	"github.com/dropDatabas3/agentgate/internal/store"
)

// HealthService arma el estado operacional del servicio.
type HealthService interface {
	Check(ctx context.Context) *dto.HealthResponse
}

type healthService struct {
	source   *jwtx.KeySource
	registry *store.Registry
}

// NewHealthService builds the health service.
func NewHealthService(source *jwtx.KeySource, registry *store.Registry) HealthService {
	return &healthService{source: source, registry: registry}
}

// Check siempre responde "healthy": el health endpoint reporta estado,
// no gatea liveness. keysLoaded == 0 es visible, no fatal.
func (s *healthService) Check(ctx context.Context) *dto.HealthResponse {
	return &dto.HealthResponse{
		Status:            "healthy",
		KeysLoaded:        len(s.source.VerificationKeys().Keys),
		ServersRegistered: s.registry.Count(ctx),
		DatabaseConnected: s.registry.PrimaryConnected(ctx),
		StorageType:       s.registry.StorageType(ctx),
	}
}
