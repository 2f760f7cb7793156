package jwt

import (
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenTTL es el lifetime fijo de los access tokens (claim exp).
// No es configurable por cliente ni por request.
const AccessTokenTTL = 3600 * time.Second

// Issuer firma access tokens EdDSA con la clave activa del KeySource.
type Issuer struct {
	Iss    string // "iss" fijo del servicio
	Source *KeySource
}

// NewIssuer crea el Issuer.
func NewIssuer(iss string, src *KeySource) *Issuer {
	return &Issuer{Iss: iss, Source: src}
}

// ActiveKID devuelve el kid de la clave de firma activa.
func (i *Issuer) ActiveKID() (string, error) {
	k, err := i.Source.SigningKey()
	if err != nil {
		return "", err
	}
	return k.Kid, nil
}

// IssueAccess emite un access token client_credentials: sub = clientID,
// aud = audience, scopes = los scopes autorizados, jti aleatorio,
// exp = now + AccessTokenTTL. Header lleva el kid de la clave activa.
func (i *Issuer) IssueAccess(clientID, audience string, scopes []string) (string, time.Time, error) {
	key, err := i.Source.SigningKey()
	if err != nil {
		return "", time.Time{}, err
	}
	priv, err := key.PrivateKey()
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now().UTC()
	exp := now.Add(AccessTokenTTL)

	claims := jwtv5.MapClaims{
		"iss":       i.Iss,
		"sub":       clientID,
		"aud":       audience,
		"iat":       now.Unix(),
		"exp":       exp.Unix(),
		"jti":       uuid.NewString(),
		"client_id": clientID,
		"scopes":    scopes,
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = key.Kid
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
