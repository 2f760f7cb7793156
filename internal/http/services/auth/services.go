package auth

import (
	"github.com/dropDatabas3/agentgate/internal/cache"
	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
	"github.com/dropDatabas3/agentgate/internal/store"
)

// Deps contiene las dependencias para crear los services de autorización.
type Deps struct {
	Registry  *store.Registry
	Issuer    *jwtx.Issuer
	KeySource *jwtx.KeySource
	Cache     cache.Cache
	Guard     *AdminGuard
	// DevMode habilita registración sin credencial admin.
	DevMode bool
}

// Services agrupa todos los services del dominio de autorización.
type Services struct {
	Token    TokenService
	Registry RegistryService
	JWKS     JWKSService
	Health   HealthService
	Guard    *AdminGuard
	DevMode  bool
}

// NewServices crea el agregador de services.
func NewServices(d Deps) Services {
	return Services{
		Token:    NewTokenService(d.Registry, d.Issuer),
		Registry: NewRegistryService(d.Registry),
		JWKS:     NewJWKSService(d.KeySource, d.Cache),
		Health:   NewHealthService(d.KeySource, d.Registry),
		Guard:    d.Guard,
		DevMode:  d.DevMode,
	}
}
