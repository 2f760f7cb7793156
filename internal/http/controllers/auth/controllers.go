package auth

import (
	svc "github.com/dropDatabas3/agentgate/internal/http/services/auth"
)

// Controllers agrupa todos los controllers del dominio de autorización.
type Controllers struct {
	Token   *TokenController
	JWKS    *JWKSController
	Servers *ServersController
	Health  *HealthController
}

// NewControllers crea el agregador de controllers.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Token:   NewTokenController(s.Token),
		JWKS:    NewJWKSController(s.JWKS),
		Servers: NewServersController(s.Registry, s.Guard, s.DevMode),
		Health:  NewHealthController(s.Health),
	}
}
