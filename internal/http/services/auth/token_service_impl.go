package auth

import (
	"context"
	"strings"

	dto "github.com/dropDatabas3/agentgate/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
	"github.com/dropDatabas3/agentgate/internal/metrics"
	"github.com/dropDatabas3/agentgate/internal/observability/logger"
	"github.com/dropDatabas3/agentgate/internal/store"
	"github.com/dropDatabas3/agentgate/internal/validation"
	"go.uber.org/zap"
)

// tokenService implementa TokenService sobre el registry y el issuer.
type tokenService struct {
	registry *store.Registry
	issuer   *jwtx.Issuer
}

// NewTokenService builds the token service.
func NewTokenService(registry *store.Registry, issuer *jwtx.Issuer) TokenService {
	return &tokenService{registry: registry, issuer: issuer}
}

func (s *tokenService) ExchangeClientCredentials(ctx context.Context, req ClientCredentialsRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Op("oauth.token.clientcreds"),
	)

	// 1) Grant type gate. Cualquier otro grant se rechaza antes de tocar credenciales.
	if req.GrantType != "client_credentials" {
		metrics.TokenErrors.WithLabelValues("unsupported_grant_type").Inc()
		return nil, ErrTokenUnsupportedGrantType
	}

	// 2) Ambas credenciales presentes.
	if req.ClientID == "" || req.ClientSecret == "" {
		metrics.TokenErrors.WithLabelValues("invalid_client").Inc()
		return nil, ErrTokenInvalidClient
	}

	// 3) Audience es obligatorio en este servidor: cada token va dirigido a un server.
	if req.Audience == "" {
		metrics.TokenErrors.WithLabelValues("invalid_request").Inc()
		return nil, ErrTokenMissingAudience
	}

	// 4) Verificación de credenciales. Una sola salida para cualquier fallo:
	// no se distingue "cliente desconocido" de "secret incorrecto".
	clientID, granted, err := s.registry.VerifyCredentials(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		log.Warn("client authentication failed", logger.ClientID(req.ClientID))
		metrics.TokenErrors.WithLabelValues("invalid_client").Inc()
		return nil, ErrTokenInvalidClient
	}

	// 5-6) Scopes pedidos ∩ scopes registrados, preservando el orden del request.
	requested := validation.ParseScopeParam(req.Scope)
	authorized := validation.IntersectScopes(requested, granted)

	// 7) Pidió scopes y ninguno está autorizado.
	if len(requested) > 0 && len(authorized) == 0 {
		log.Warn("no requested scope is authorized",
			logger.ClientID(clientID),
			zap.Strings("requested", requested),
		)
		metrics.TokenErrors.WithLabelValues("invalid_scope").Inc()
		return nil, ErrTokenInvalidScope
	}

	// 8-9) Firmar. Si no hay clave de firma configurada es un problema nuestro, no del cliente.
	token, expiresAt, err := s.issuer.IssueAccess(clientID, req.Audience, authorized)
	if err != nil {
		log.Error("token signing failed", zap.Error(err), logger.ClientID(clientID))
		metrics.TokenErrors.WithLabelValues("server_error").Inc()
		return nil, ErrTokenServerError
	}

	log.Info("access token issued",
		logger.ClientID(clientID),
		logger.Audience(req.Audience),
		zap.Strings("scopes", authorized),
		zap.Time("expires_at", expiresAt),
	)
	metrics.TokensIssued.Inc()

	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(jwtx.AccessTokenTTL.Seconds()),
		Scope:       strings.Join(authorized, " "),
	}, nil
}
