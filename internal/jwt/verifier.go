package jwt

import (
	"errors"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/agentgate/internal/validation"
)

// Errores de verificación. Se devuelven como sentinels para que el
// controller/middleware mapee a un 401/403 opaco; el detalle solo se loguea.
var (
	ErrMissingBearer = errors.New("jwt: missing or invalid authorization header")
	ErrNoKeys        = errors.New("jwt: no verification keys available")
	ErrTokenInvalid  = errors.New("jwt: invalid signature or issuer")
	ErrTokenExpired  = errors.New("jwt: token expired")
)

// InsufficientScopeError nombra el primer scope requerido ausente.
type InsufficientScopeError struct {
	Scope string
}

func (e *InsufficientScopeError) Error() string {
	return "jwt: insufficient scope: missing " + e.Scope
}

// TokenInfo es el resultado de una verificación exitosa.
type TokenInfo struct {
	ClientID string
	Scopes   []string
}

// Verifier valida bearer tokens contra el set de claves de verificación.
// Es el único camino de verificación: el gate admin y cualquier resource
// server usan el mismo algoritmo, parametrizado solo por requiredScopes.
type Verifier struct {
	Iss    string
	Source *KeySource
}

// NewVerifier crea el Verifier.
func NewVerifier(iss string, src *KeySource) *Verifier {
	return &Verifier{Iss: iss, Source: src}
}

// VerifyBearer valida el header Authorization completo ("Bearer <jwt>") y
// exige que el token contenga todos los requiredScopes.
func (v *Verifier) VerifyBearer(authHeader string, requiredScopes []string) (*TokenInfo, error) {
	const prefix = "Bearer "
	if authHeader == "" || !strings.HasPrefix(authHeader, prefix) {
		return nil, ErrMissingBearer
	}
	raw := strings.TrimSpace(authHeader[len(prefix):])

	set := v.Source.VerificationKeys()
	if set == nil || len(set.Keys) == 0 {
		return nil, ErrNoKeys
	}

	keyfunc := func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrKeyNotFound
		}
		k, err := ByKid(set, kid)
		if err != nil {
			return nil, err
		}
		return k.PublicKey()
	}

	tok, err := jwtv5.Parse(raw, keyfunc,
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer(v.Iss),
		jwtv5.WithExpirationRequired(),
	)
	switch {
	case err == nil && tok.Valid:
		// sigue abajo
	case errors.Is(err, ErrKeyNotFound):
		return nil, ErrKeyNotFound
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrTokenInvalid
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	info := &TokenInfo{
		ClientID: claimString(claims, "client_id"),
		Scopes:   claimStringSlice(claims, "scopes"),
	}
	if info.ClientID == "" {
		info.ClientID = claimString(claims, "sub")
	}

	for _, want := range requiredScopes {
		if !validation.HasScope(info.Scopes, want) {
			return nil, &InsufficientScopeError{Scope: want}
		}
	}
	return info, nil
}

func claimString(claims jwtv5.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func claimStringSlice(claims jwtv5.MapClaims, key string) []string {
	switch arr := claims[key].(type) {
	case []string:
		return arr
	case []any:
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
