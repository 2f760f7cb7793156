package middlewares

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/agentgate/internal/http/helpers"
	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
	"github.com/dropDatabas3/agentgate/internal/metrics"
	"github.com/dropDatabas3/agentgate/internal/observability/logger"
)

// RequireScopes valida Authorization: Bearer <JWT> contra el key set y
// exige todos los scopes dados. La causa específica de la falla se loguea;
// al caller solo le llega un 401/403 opaco.
func RequireScopes(verifier *jwtx.Verifier, scopes ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.From(r.Context()).With(logger.Layer("middleware"), logger.Op("auth.bearer"))

			info, err := verifier.VerifyBearer(r.Header.Get("Authorization"), scopes)
			if err != nil {
				var scopeErr *jwtx.InsufficientScopeError
				switch {
				case errors.As(err, &scopeErr):
					metrics.VerifyFailures.WithLabelValues("insufficient_scope").Inc()
					log.Warn("bearer rejected: insufficient scope", logger.Scope(scopeErr.Scope))
					w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+scopeErr.Scope+`"`)
					helpers.WriteError(w, helpers.ErrInsufficientScope.WithDetail("missing scope: "+scopeErr.Scope))
				case errors.Is(err, jwtx.ErrMissingBearer):
					metrics.VerifyFailures.WithLabelValues("missing_header").Inc()
					w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
					helpers.WriteError(w, helpers.ErrUnauthorized)
				case errors.Is(err, jwtx.ErrTokenExpired):
					metrics.VerifyFailures.WithLabelValues("expired").Inc()
					log.Warn("bearer rejected: token expired")
					w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
					helpers.WriteError(w, helpers.ErrUnauthorized)
				case errors.Is(err, jwtx.ErrKeyNotFound):
					metrics.VerifyFailures.WithLabelValues("key_not_found").Inc()
					log.Warn("bearer rejected: unknown kid")
					w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
					helpers.WriteError(w, helpers.ErrUnauthorized)
				case errors.Is(err, jwtx.ErrNoKeys):
					metrics.VerifyFailures.WithLabelValues("no_keys").Inc()
					log.Error("bearer rejected: no verification keys available")
					helpers.WriteError(w, helpers.ErrUnauthorized)
				default:
					metrics.VerifyFailures.WithLabelValues("invalid").Inc()
					log.Warn("bearer rejected: invalid signature or issuer", logger.Err(err))
					w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
					helpers.WriteError(w, helpers.ErrUnauthorized)
				}
				return
			}

			ctx := WithToken(r.Context(), info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
