package auth_test

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"

	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
)

func genEd25519JWK(t *testing.T, kid string) (jwtx.JWK, jwtx.JWK) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	return jwtx.NewEd25519JWK(pub, priv, kid, jwtx.OwnerLabel)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
