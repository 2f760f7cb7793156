package tokens

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
)

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateClientSecret genera un client secret de 32 bytes de entropía.
func GenerateClientSecret() (string, error) {
	return GenerateOpaqueToken(32)
}

// ConstantTimeEquals compara dos strings en tiempo constante.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
