package auth_test

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	cachemem "github.com/dropDatabas3/agentgate/internal/cache/memory"
	svc "github.com/dropDatabas3/agentgate/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
)

func writePublicKey(t *testing.T, dir, kid string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	_, public := jwtx.NewEd25519JWK(pub, priv, kid, jwtx.OwnerLabel)
	data, _ := json.Marshal(public)
	if err := os.WriteFile(filepath.Join(dir, kid+jwtx.PublicKeySuffix), data, 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestJWKSService_Document(t *testing.T) {
	dir := t.TempDir()
	writePublicKey(t, dir, "kid-1")

	src := jwtx.NewKeySource(jwtx.KeySourceConfig{Dir: dir})
	s := svc.NewJWKSService(src, nil)

	var set jwtx.JWKS
	if err := json.Unmarshal(s.Document(context.Background()), &set); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(set.Keys) != 1 || set.Keys[0].Kid != "kid-1" {
		t.Fatalf("set = %+v", set)
	}
}

func TestJWKSService_CachesDocument(t *testing.T) {
	dir := t.TempDir()
	writePublicKey(t, dir, "kid-1")

	src := jwtx.NewKeySource(jwtx.KeySourceConfig{Dir: dir})
	s := svc.NewJWKSService(src, cachemem.New(time.Minute))

	first := s.Document(context.Background())

	// Una clave nueva en disco no aparece hasta que venza el cache.
	writePublicKey(t, dir, "kid-2")
	second := s.Document(context.Background())
	if string(first) != string(second) {
		t.Fatalf("expected cached document, got a fresh scan")
	}
}
