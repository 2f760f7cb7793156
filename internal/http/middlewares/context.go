package middlewares

import (
	"context"

	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
)

type ctxKey string

const (
	// ctxTokenKey guarda el TokenInfo del bearer verificado
	ctxTokenKey ctxKey = "token"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithToken inyecta el TokenInfo verificado en el contexto.
func WithToken(ctx context.Context, info *jwtx.TokenInfo) context.Context {
	return context.WithValue(ctx, ctxTokenKey, info)
}

// GetToken obtiene el TokenInfo del contexto.
// Retorna nil si el bearer no fue verificado (middleware no aplicado).
func GetToken(ctx context.Context) *jwtx.TokenInfo {
	if v := ctx.Value(ctxTokenKey); v != nil {
		if info, ok := v.(*jwtx.TokenInfo); ok {
			return info
		}
	}
	return nil
}

// setRequestID inyecta el request ID en el contexto (interno).
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
