package auth

import (
	"context"
	"time"

	"github.com/dropDatabas3/agentgate/internal/cache"
	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
)

// jwksCacheTTL acota el recálculo del documento JWKS. Los archivos de
// clave pueden rotar en disco; 15s de staleness es aceptable.
const jwksCacheTTL = 15 * time.Second

const jwksCacheKey = "jwks:document"

// JWKSService publica el set de claves de verificación como JSON.
type JWKSService interface {
	Document(ctx context.Context) []byte
}

type jwksService struct {
	source *jwtx.KeySource
	cache  cache.Cache
}

// NewJWKSService builds the JWKS service. cache may be nil.
func NewJWKSService(source *jwtx.KeySource, c cache.Cache) JWKSService {
	return &jwksService{source: source, cache: c}
}

// Document devuelve el JWKS público serializado. Nunca falla: sin claves
// configuradas el documento es {"keys":[]}.
func (s *jwksService) Document(_ context.Context) []byte {
	if s.cache != nil {
		if data, ok := s.cache.Get(jwksCacheKey); ok {
			return data
		}
	}
	data := s.source.VerificationKeys().PublicJSON()
	if s.cache != nil {
		s.cache.Set(jwksCacheKey, data, jwksCacheTTL)
	}
	return data
}
