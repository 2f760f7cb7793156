package jwt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/dropDatabas3/agentgate/internal/observability/logger"
)

// OwnerLabel es el agent_id reservado de la clave de firma del servicio.
const OwnerLabel = "token-service"

// Sufijos de archivos de clave en el directorio de fallback.
const (
	PrivateKeySuffix = ".private.jwk.json"
	PublicKeySuffix  = ".public.jwk.json"
	JWKSSuffix       = ".jwks.json"
)

// Errores de resolución de claves.
var (
	// ErrSigningKeyNotConfigured: ni env ni directorio dieron una clave de
	// firma usable. Condición 500-class, nunca panic.
	ErrSigningKeyNotConfigured = errors.New("jwt: signing key not configured")

	// ErrKeyNotFound: ningún miembro del key set tiene el kid pedido.
	ErrKeyNotFound = errors.New("jwt: key not found for kid")
)

// KeySourceConfig configura el origen de claves.
type KeySourceConfig struct {
	// PrivateKeyJSON es el JWK privado en JSON (TOKEN_SERVICE_PRIVATE_KEY).
	PrivateKeyJSON string
	// PublicKeyJSON es el JWK público en JSON (TOKEN_SERVICE_PUBLIC_KEY).
	PublicKeyJSON string
	// Dir es el directorio de archivos de clave de fallback (KEYS_DIR).
	Dir string
}

// KeySource resuelve la clave de firma activa y el set de claves de
// verificación con fallback en dos niveles: env primero (deploys con
// filesystem efímero), archivos en disco después (desarrollo local).
// Nunca escribe claves; es read-only en runtime.
type KeySource struct {
	cfg KeySourceConfig
}

// NewKeySource crea un KeySource con la configuración dada.
func NewKeySource(cfg KeySourceConfig) *KeySource {
	if cfg.Dir == "" {
		cfg.Dir = "keys"
	}
	return &KeySource{cfg: cfg}
}

// SigningKey resuelve la clave privada activa.
// Orden: (1) env JWK; si no parsea, log y fall-through. (2) scan del
// directorio por *.private.jwk.json, primera clave con agent_id ==
// OwnerLabel. Sin resultado → ErrSigningKeyNotConfigured.
func (s *KeySource) SigningKey() (*JWK, error) {
	if raw := strings.TrimSpace(s.cfg.PrivateKeyJSON); raw != "" {
		k, err := ParseJWK([]byte(raw))
		if err == nil && k.IsPrivate() {
			return k, nil
		}
		logger.L().Warn("env private key unusable, falling back to key dir",
			logger.Component("keysource"), logger.Err(err))
	}

	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return nil, ErrSigningKeyNotConfigured
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), PrivateKeySuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.cfg.Dir, e.Name()))
		if err != nil {
			continue
		}
		k, err := ParseJWK(data)
		if err != nil || !k.IsPrivate() {
			continue
		}
		if k.AgentID == OwnerLabel {
			return k, nil
		}
	}
	return nil, ErrSigningKeyNotConfigured
}

// VerificationKeys resuelve el set de claves públicas confiables.
// Tier (1): la clave pública de env corta el scan si parsea. Tier (2):
// acumula TODAS las claves de *.public.jwk.json y *.jwks.json del
// directorio. kids duplicados no se deduplican: gana el primero en orden
// de scan.
func (s *KeySource) VerificationKeys() *JWKS {
	if raw := strings.TrimSpace(s.cfg.PublicKeyJSON); raw != "" {
		if k, err := ParseJWK([]byte(raw)); err == nil {
			return &JWKS{Keys: []JWK{k.Public()}}
		} else {
			logger.L().Warn("env public key unusable, falling back to key dir",
				logger.Component("keysource"), logger.Err(err))
		}
	}

	set := &JWKS{Keys: []JWK{}}
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return set
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		full := filepath.Join(s.cfg.Dir, name)
		switch {
		case strings.HasSuffix(name, PublicKeySuffix):
			data, err := os.ReadFile(full)
			if err != nil {
				continue
			}
			if k, err := ParseJWK(data); err == nil {
				set.Keys = append(set.Keys, k.Public())
			}
		case strings.HasSuffix(name, JWKSSuffix):
			data, err := os.ReadFile(full)
			if err != nil {
				continue
			}
			if multi, err := ParseJWKS(data); err == nil {
				for _, k := range multi.Keys {
					set.Keys = append(set.Keys, k.Public())
				}
			}
		}
	}
	return set
}

// ByKid busca una clave por kid exacto dentro del set. Lineal.
func ByKid(set *JWKS, kid string) (*JWK, error) {
	if set == nil {
		return nil, ErrKeyNotFound
	}
	for i := range set.Keys {
		if set.Keys[i].Kid == kid {
			return &set.Keys[i], nil
		}
	}
	return nil, ErrKeyNotFound
}
