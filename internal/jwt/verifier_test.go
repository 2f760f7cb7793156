package jwt_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
)

// newIssuerVerifier arma un par issuer/verifier sobre la misma clave env.
func newIssuerVerifier(t *testing.T, iss string) (*jwtx.Issuer, *jwtx.Verifier) {
	t.Helper()
	priv, pub := genJWK(t, "kid-test", jwtx.OwnerLabel)
	rawPriv, _ := json.Marshal(priv)
	rawPub, _ := json.Marshal(pub)
	src := jwtx.NewKeySource(jwtx.KeySourceConfig{
		PrivateKeyJSON: string(rawPriv),
		PublicKeyJSON:  string(rawPub),
		Dir:            t.TempDir(),
	})
	return jwtx.NewIssuer(iss, src), jwtx.NewVerifier(iss, src)
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	issuer, verifier := newIssuerVerifier(t, "agentgate")

	token, exp, err := issuer.IssueAccess("client-1", "weather-server", []string{"weather.read", "weather.write"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if until := time.Until(exp); until < 59*time.Minute || until > 61*time.Minute {
		t.Fatalf("unexpected expiry %v", exp)
	}

	info, err := verifier.VerifyBearer("Bearer "+token, []string{"weather.read"})
	if err != nil {
		t.Fatalf("VerifyBearer: %v", err)
	}
	if info.ClientID != "client-1" {
		t.Fatalf("ClientID = %q", info.ClientID)
	}
	if len(info.Scopes) != 2 || info.Scopes[0] != "weather.read" {
		t.Fatalf("Scopes = %v", info.Scopes)
	}
}

func TestVerifyBearer_TokenClaims(t *testing.T) {
	issuer, _ := newIssuerVerifier(t, "agentgate")

	token, _, err := issuer.IssueAccess("client-1", "weather-server", []string{"weather.read"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	// Decode sin verificar para inspeccionar claims emitidos.
	parsed, _, err := jwtv5.NewParser().ParseUnverified(token, jwtv5.MapClaims{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	claims := parsed.Claims.(jwtv5.MapClaims)
	if claims["iss"] != "agentgate" {
		t.Fatalf("iss = %v", claims["iss"])
	}
	if claims["sub"] != "client-1" || claims["client_id"] != "client-1" {
		t.Fatalf("sub/client_id = %v/%v", claims["sub"], claims["client_id"])
	}
	if claims["aud"] != "weather-server" {
		t.Fatalf("aud = %v", claims["aud"])
	}
	if jti, _ := claims["jti"].(string); jti == "" {
		t.Fatalf("missing jti")
	}
	if parsed.Header["kid"] != "kid-test" {
		t.Fatalf("kid = %v", parsed.Header["kid"])
	}
	if parsed.Header["alg"] != "EdDSA" {
		t.Fatalf("alg = %v", parsed.Header["alg"])
	}
}

func TestVerifyBearer_MissingHeader(t *testing.T) {
	_, verifier := newIssuerVerifier(t, "agentgate")

	for _, h := range []string{"", "Basic abc", "bearer lowercase-prefix", "Bearer"} {
		if _, err := verifier.VerifyBearer(h, nil); !errors.Is(err, jwtx.ErrMissingBearer) {
			t.Fatalf("header %q: expected ErrMissingBearer, got %v", h, err)
		}
	}
}

func TestVerifyBearer_NoKeysConfigured(t *testing.T) {
	src := jwtx.NewKeySource(jwtx.KeySourceConfig{Dir: t.TempDir()})
	verifier := jwtx.NewVerifier("agentgate", src)

	if _, err := verifier.VerifyBearer("Bearer not-a-jwt", nil); !errors.Is(err, jwtx.ErrNoKeys) {
		t.Fatalf("expected ErrNoKeys, got %v", err)
	}
}

func TestVerifyBearer_UnknownKid(t *testing.T) {
	issuer, _ := newIssuerVerifier(t, "agentgate")
	_, otherVerifier := newIssuerVerifier(t, "agentgate")

	token, _, err := issuer.IssueAccess("client-1", "aud", nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	// Verificador con otra clave del mismo kid: falla por firma, no por kid.
	// Para kid desconocido se necesita un set sin ese kid.
	if _, err := otherVerifier.VerifyBearer("Bearer "+token, nil); err == nil {
		t.Fatalf("expected verification failure")
	}
}

func TestVerifyBearer_WrongIssuer(t *testing.T) {
	priv, pub := genJWK(t, "kid-x", jwtx.OwnerLabel)
	rawPriv, _ := json.Marshal(priv)
	rawPub, _ := json.Marshal(pub)
	src := jwtx.NewKeySource(jwtx.KeySourceConfig{
		PrivateKeyJSON: string(rawPriv),
		PublicKeyJSON:  string(rawPub),
		Dir:            t.TempDir(),
	})
	issuer := jwtx.NewIssuer("someone-else", src)
	verifier := jwtx.NewVerifier("agentgate", src)

	token, _, err := issuer.IssueAccess("client-1", "aud", nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := verifier.VerifyBearer("Bearer "+token, nil); !errors.Is(err, jwtx.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyBearer_TamperedToken(t *testing.T) {
	issuer, verifier := newIssuerVerifier(t, "agentgate")

	token, _, err := issuer.IssueAccess("client-1", "aud", []string{"a.read"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	tampered := token[:len(token)-4] + "AAAA"
	if _, err := verifier.VerifyBearer("Bearer "+tampered, nil); !errors.Is(err, jwtx.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyBearer_ExpiredToken(t *testing.T) {
	priv, pub := genJWK(t, "kid-exp", jwtx.OwnerLabel)
	rawPub, _ := json.Marshal(pub)
	src := jwtx.NewKeySource(jwtx.KeySourceConfig{PublicKeyJSON: string(rawPub), Dir: t.TempDir()})
	verifier := jwtx.NewVerifier("agentgate", src)

	key, err := priv.PrivateKey()
	if err != nil {
		t.Fatalf("private key: %v", err)
	}
	now := time.Now().UTC()
	claims := jwtv5.MapClaims{
		"iss": "agentgate",
		"sub": "client-1",
		"iat": now.Add(-2 * time.Hour).Unix(),
		"exp": now.Add(-time.Hour).Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = "kid-exp"
	signed, err := tk.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := verifier.VerifyBearer("Bearer "+signed, nil); !errors.Is(err, jwtx.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyBearer_InsufficientScope(t *testing.T) {
	issuer, verifier := newIssuerVerifier(t, "agentgate")

	token, _, err := issuer.IssueAccess("client-1", "aud", []string{"weather.read"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	_, err = verifier.VerifyBearer("Bearer "+token, []string{"weather.read", "admin.write"})
	var insuf *jwtx.InsufficientScopeError
	if !errors.As(err, &insuf) {
		t.Fatalf("expected InsufficientScopeError, got %v", err)
	}
	if insuf.Scope != "admin.write" {
		t.Fatalf("missing scope = %q", insuf.Scope)
	}
}

func TestVerifyBearer_EmptyScopesTokenPassesWithoutRequirements(t *testing.T) {
	issuer, verifier := newIssuerVerifier(t, "agentgate")

	token, _, err := issuer.IssueAccess("client-1", "aud", nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	info, err := verifier.VerifyBearer("Bearer "+token, nil)
	if err != nil {
		t.Fatalf("VerifyBearer: %v", err)
	}
	if len(info.Scopes) != 0 {
		t.Fatalf("Scopes = %v", info.Scopes)
	}
}
