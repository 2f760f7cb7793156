package jwt

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// JWK representa una clave Ed25519 en formato JSON Web Key.
// Las claves privadas llevan "d" (seed); las públicas solo "x".
// AgentID etiqueta al dueño de la clave; la clave de firma del servicio
// usa el valor reservado "token-service".
type JWK struct {
	Kty     string `json:"kty"` // "OKP"
	Crv     string `json:"crv"` // "Ed25519"
	Kid     string `json:"kid"`
	Alg     string `json:"alg"`         // "EdDSA"
	Use     string `json:"use"`         // "sig"
	X       string `json:"x"`           // base64url(pub)
	D       string `json:"d,omitempty"` // base64url(seed), solo privadas
	AgentID string `json:"agent_id,omitempty"`
}

// JWKS es un JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// ParseJWK decodea un JWK desde JSON y valida el tipo de clave.
func ParseJWK(data []byte) (*JWK, error) {
	var k JWK
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("jwk: decode: %w", err)
	}
	if k.Kty != "OKP" || k.Crv != "Ed25519" {
		return nil, fmt.Errorf("jwk: unsupported key type %s/%s", k.Kty, k.Crv)
	}
	if k.X == "" {
		return nil, errors.New("jwk: missing x coordinate")
	}
	return &k, nil
}

// ParseJWKS decodea un JWKS ({"keys":[...]}) desde JSON.
func ParseJWKS(data []byte) (*JWKS, error) {
	var set JWKS
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("jwks: decode: %w", err)
	}
	return &set, nil
}

// IsPrivate indica si la clave lleva el escalar privado.
func (k *JWK) IsPrivate() bool { return k.D != "" }

// Public devuelve la contraparte pública (sin "d"). Conserva el kid.
func (k *JWK) Public() JWK {
	pub := *k
	pub.D = ""
	return pub
}

// PublicKey decodea la coordenada pública como ed25519.PublicKey.
func (k *JWK) PublicKey() (ed25519.PublicKey, error) {
	x, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("jwk: decode x: %w", err)
	}
	if len(x) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("jwk: public key must be %d bytes, got %d", ed25519.PublicKeySize, len(x))
	}
	return ed25519.PublicKey(x), nil
}

// PrivateKey reconstruye la clave privada desde el seed "d".
func (k *JWK) PrivateKey() (ed25519.PrivateKey, error) {
	if k.D == "" {
		return nil, errors.New("jwk: not a private key")
	}
	d, err := base64.RawURLEncoding.DecodeString(k.D)
	if err != nil {
		return nil, fmt.Errorf("jwk: decode d: %w", err)
	}
	if len(d) != ed25519.SeedSize {
		return nil, fmt.Errorf("jwk: seed must be %d bytes, got %d", ed25519.SeedSize, len(d))
	}
	return ed25519.NewKeyFromSeed(d), nil
}

// NewEd25519JWK construye el par privado/público en formato JWK para un kid
// y agent dados. Usado por el tool de generación offline.
func NewEd25519JWK(pub ed25519.PublicKey, priv ed25519.PrivateKey, kid, agentID string) (private JWK, public JWK) {
	private = JWK{
		Kty:     "OKP",
		Crv:     "Ed25519",
		Kid:     kid,
		Alg:     "EdDSA",
		Use:     "sig",
		X:       base64.RawURLEncoding.EncodeToString(pub),
		D:       base64.RawURLEncoding.EncodeToString(priv.Seed()),
		AgentID: agentID,
	}
	public = private.Public()
	return private, public
}
