package auth_test

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	svc "github.com/dropDatabas3/agentgate/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/agentgate/internal/jwt"
	"github.com/dropDatabas3/agentgate/internal/store"
	"github.com/dropDatabas3/agentgate/internal/store/memory"
)

type fixture struct {
	registry *store.Registry
	token    svc.TokenService
	verifier *jwtx.Verifier
	secret   string
}

// newFixture arma un registry fallback-only con un cliente registrado y
// un token service con clave de firma en env-config.
func newFixture(t *testing.T, scopes []string) *fixture {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	private, public := jwtx.NewEd25519JWK(pub, priv, "kid-svc", jwtx.OwnerLabel)
	rawPriv, _ := json.Marshal(private)
	rawPub, _ := json.Marshal(public)
	src := jwtx.NewKeySource(jwtx.KeySourceConfig{
		PrivateKeyJSON: string(rawPriv),
		PublicKeyJSON:  string(rawPub),
		Dir:            t.TempDir(),
	})
	issuer := jwtx.NewIssuer("agentgate", src)

	registry := store.NewRegistry(nil, memory.New(""), nil)
	created, err := registry.Register(context.Background(), store.RegisterInput{
		ServerID:     "weather-server",
		Name:         "Weather",
		Scopes:       scopes,
		RegisteredBy: "dev-mode",
	})
	if err != nil {
		t.Fatalf("register fixture client: %v", err)
	}

	return &fixture{
		registry: registry,
		token:    svc.NewTokenService(registry, issuer),
		verifier: jwtx.NewVerifier("agentgate", src),
		secret:   created.Secret,
	}
}

func TestExchangeClientCredentials_HappyPath(t *testing.T) {
	f := newFixture(t, []string{"weather.read", "weather.write"})

	resp, err := f.token.ExchangeClientCredentials(context.Background(), svc.ClientCredentialsRequest{
		GrantType:    "client_credentials",
		ClientID:     "weather-server",
		ClientSecret: f.secret,
		Audience:     "some-api",
		Scope:        "weather.read",
	})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("TokenType = %q", resp.TokenType)
	}
	if resp.ExpiresIn != int64(jwtx.AccessTokenTTL/time.Second) {
		t.Fatalf("ExpiresIn = %d", resp.ExpiresIn)
	}
	if resp.Scope != "weather.read" {
		t.Fatalf("Scope = %q", resp.Scope)
	}

	// El token emitido valida con el mismo key set.
	info, err := f.verifier.VerifyBearer("Bearer "+resp.AccessToken, []string{"weather.read"})
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if info.ClientID != "weather-server" {
		t.Fatalf("ClientID = %q", info.ClientID)
	}
}

func TestExchangeClientCredentials_NoScopeParamGrantsNone(t *testing.T) {
	f := newFixture(t, []string{"weather.read"})

	resp, err := f.token.ExchangeClientCredentials(context.Background(), svc.ClientCredentialsRequest{
		GrantType:    "client_credentials",
		ClientID:     "weather-server",
		ClientSecret: f.secret,
		Audience:     "some-api",
	})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if resp.Scope != "" {
		t.Fatalf("expected empty scope, got %q", resp.Scope)
	}
}

func TestExchangeClientCredentials_IntersectionPreservesRequestOrder(t *testing.T) {
	f := newFixture(t, []string{"a.read", "b.read", "c.read"})

	resp, err := f.token.ExchangeClientCredentials(context.Background(), svc.ClientCredentialsRequest{
		GrantType:    "client_credentials",
		ClientID:     "weather-server",
		ClientSecret: f.secret,
		Audience:     "api",
		Scope:        "c.read x.unknown a.read",
	})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if got := strings.Fields(resp.Scope); len(got) != 2 || got[0] != "c.read" || got[1] != "a.read" {
		t.Fatalf("Scope = %q", resp.Scope)
	}
}

func TestExchangeClientCredentials_Errors(t *testing.T) {
	f := newFixture(t, []string{"weather.read"})

	cases := []struct {
		name string
		req  svc.ClientCredentialsRequest
		want error
	}{
		{
			name: "unsupported grant",
			req: svc.ClientCredentialsRequest{
				GrantType: "authorization_code",
				ClientID:  "weather-server", ClientSecret: f.secret, Audience: "api",
			},
			want: svc.ErrTokenUnsupportedGrantType,
		},
		{
			name: "missing client_id",
			req: svc.ClientCredentialsRequest{
				GrantType: "client_credentials", ClientSecret: f.secret, Audience: "api",
			},
			want: svc.ErrTokenInvalidClient,
		},
		{
			name: "missing client_secret",
			req: svc.ClientCredentialsRequest{
				GrantType: "client_credentials", ClientID: "weather-server", Audience: "api",
			},
			want: svc.ErrTokenInvalidClient,
		},
		{
			name: "missing audience",
			req: svc.ClientCredentialsRequest{
				GrantType: "client_credentials", ClientID: "weather-server", ClientSecret: f.secret,
			},
			want: svc.ErrTokenMissingAudience,
		},
		{
			name: "wrong secret",
			req: svc.ClientCredentialsRequest{
				GrantType: "client_credentials", ClientID: "weather-server", ClientSecret: "nope", Audience: "api",
			},
			want: svc.ErrTokenInvalidClient,
		},
		{
			name: "unknown client",
			req: svc.ClientCredentialsRequest{
				GrantType: "client_credentials", ClientID: "ghost", ClientSecret: "nope", Audience: "api",
			},
			want: svc.ErrTokenInvalidClient,
		},
		{
			name: "no authorized scope",
			req: svc.ClientCredentialsRequest{
				GrantType: "client_credentials", ClientID: "weather-server", ClientSecret: f.secret,
				Audience: "api", Scope: "admin.write",
			},
			want: svc.ErrTokenInvalidScope,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.token.ExchangeClientCredentials(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestExchangeClientCredentials_NoSigningKeyIsServerError(t *testing.T) {
	registry := store.NewRegistry(nil, memory.New(""), nil)
	created, err := registry.Register(context.Background(), store.RegisterInput{ServerID: "s1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	src := jwtx.NewKeySource(jwtx.KeySourceConfig{Dir: t.TempDir()})
	token := svc.NewTokenService(registry, jwtx.NewIssuer("agentgate", src))

	_, err = token.ExchangeClientCredentials(context.Background(), svc.ClientCredentialsRequest{
		GrantType: "client_credentials", ClientID: "s1", ClientSecret: created.Secret, Audience: "api",
	})
	if !errors.Is(err, svc.ErrTokenServerError) {
		t.Fatalf("expected ErrTokenServerError, got %v", err)
	}
}
