package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/agentgate/internal/domain/repository"
	"github.com/dropDatabas3/agentgate/internal/store"
	"github.com/dropDatabas3/agentgate/internal/store/memory"
)

// fakePrimary es un PrimaryStore in-memory con fallas inyectables.
type fakePrimary struct {
	servers   map[string]repository.ServerClient
	available bool
	down      bool // cada operación devuelve ErrUnavailable
}

func newFakePrimary() *fakePrimary {
	return &fakePrimary{servers: make(map[string]repository.ServerClient), available: true}
}

func (f *fakePrimary) Available() bool { return f.available }

func (f *fakePrimary) Insert(_ context.Context, sc repository.ServerClient) error {
	if f.down {
		return repository.ErrUnavailable
	}
	if _, ok := f.servers[sc.ClientID]; ok {
		return repository.ErrConflict
	}
	f.servers[sc.ClientID] = sc
	return nil
}

func (f *fakePrimary) Get(_ context.Context, clientID string) (*repository.ServerClient, error) {
	if f.down {
		return nil, repository.ErrUnavailable
	}
	sc, ok := f.servers[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := sc
	return &out, nil
}

func (f *fakePrimary) List(_ context.Context) ([]repository.ServerClient, error) {
	if f.down {
		return nil, repository.ErrUnavailable
	}
	out := make([]repository.ServerClient, 0, len(f.servers))
	for _, sc := range f.servers {
		out = append(out, sc)
	}
	return out, nil
}

func (f *fakePrimary) Ping(_ context.Context) error {
	if f.down {
		return repository.ErrUnavailable
	}
	return nil
}

func TestRegister_HappyPath(t *testing.T) {
	ctx := context.Background()
	primary := newFakePrimary()
	fallback := memory.New("")
	reg := store.NewRegistry(primary, fallback, nil)

	created, err := reg.Register(ctx, store.RegisterInput{
		ServerID:     "weather-server",
		Name:         "Weather",
		Scopes:       []string{"weather.read"},
		RegisteredBy: "dev-mode",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.ClientID != "weather-server" {
		t.Fatalf("ClientID = %q", created.ClientID)
	}
	if created.Secret == "" {
		t.Fatalf("expected generated secret")
	}

	// Escrito en ambos tiers.
	if _, ok := primary.servers["weather-server"]; !ok {
		t.Fatalf("primary missing registration")
	}
	if _, err := fallback.Get("weather-server"); err != nil {
		t.Fatalf("fallback missing registration: %v", err)
	}
}

func TestRegister_Conflict(t *testing.T) {
	ctx := context.Background()
	reg := store.NewRegistry(newFakePrimary(), memory.New(""), nil)

	first, err := reg.Register(ctx, store.RegisterInput{ServerID: "s1", Scopes: []string{"a.read"}})
	if err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err = reg.Register(ctx, store.RegisterInput{ServerID: "s1", Scopes: []string{"b.read"}})
	var conflict *store.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("ConflictError should match repository.ErrConflict")
	}
	// La registración original sobrevive intacta.
	if conflict.Existing.ClientID != "s1" || conflict.Existing.Scopes[0] != "a.read" {
		t.Fatalf("Existing = %+v", conflict.Existing)
	}
	if conflict.Existing.Secret != first.Secret {
		t.Fatalf("original secret must not rotate on conflict")
	}
}

func TestRegister_PrimaryDownDegradesToFallback(t *testing.T) {
	ctx := context.Background()
	primary := newFakePrimary()
	primary.down = true
	fallback := memory.New("")
	reg := store.NewRegistry(primary, fallback, nil)

	created, err := reg.Register(ctx, store.RegisterInput{ServerID: "s1"})
	if err != nil {
		t.Fatalf("Register should degrade, got %v", err)
	}
	if _, err := fallback.Get(created.ClientID); err != nil {
		t.Fatalf("fallback missing registration: %v", err)
	}
}

func TestLookup_PrimaryFirstThenFallbackOnlyWhenUnreachable(t *testing.T) {
	ctx := context.Background()
	primary := newFakePrimary()
	fallback := memory.New("")
	reg := store.NewRegistry(primary, fallback, nil)

	now := time.Now().UTC()
	fallback.Put(repository.ServerClient{ClientID: "only-fallback", Secret: "x", CreatedAt: now})

	// Primario alcanzable y sin el registro: not-found, sin fallback.
	if _, err := reg.Lookup(ctx, "only-fallback"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound while primary is reachable, got %v", err)
	}

	// Primario caído: ahora sí cae al fallback.
	primary.down = true
	sc, err := reg.Lookup(ctx, "only-fallback")
	if err != nil {
		t.Fatalf("Lookup with primary down: %v", err)
	}
	if sc.ClientID != "only-fallback" {
		t.Fatalf("ClientID = %q", sc.ClientID)
	}
}

func TestList_MergePrimaryWins(t *testing.T) {
	ctx := context.Background()
	primary := newFakePrimary()
	fallback := memory.New("")
	reg := store.NewRegistry(primary, fallback, nil)

	fallback.Put(repository.ServerClient{ClientID: "shared", Name: "stale"})
	fallback.Put(repository.ServerClient{ClientID: "fallback-only", Name: "fb"})
	primary.servers["shared"] = repository.ServerClient{ClientID: "shared", Name: "fresh"}
	primary.servers["primary-only"] = repository.ServerClient{ClientID: "primary-only", Name: "pg"}

	list, err := reg.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	byID := make(map[string]repository.ServerClient, len(list))
	for _, sc := range list {
		byID[sc.ClientID] = sc
	}
	if len(byID) != 3 {
		t.Fatalf("expected 3 merged entries, got %d", len(byID))
	}
	if byID["shared"].Name != "fresh" {
		t.Fatalf("primary should win merge, got %q", byID["shared"].Name)
	}
}

func TestVerifyCredentials(t *testing.T) {
	ctx := context.Background()
	reg := store.NewRegistry(newFakePrimary(), memory.New(""), nil)

	created, err := reg.Register(ctx, store.RegisterInput{ServerID: "s1", Scopes: []string{"a.read", "b.write"}})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	id, scopes, err := reg.VerifyCredentials(ctx, "s1", created.Secret)
	if err != nil {
		t.Fatalf("VerifyCredentials: %v", err)
	}
	if id != "s1" || len(scopes) != 2 {
		t.Fatalf("got id=%q scopes=%v", id, scopes)
	}

	// Secret equivocado y cliente desconocido devuelven el mismo error.
	if _, _, err := reg.VerifyCredentials(ctx, "s1", "wrong"); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("wrong secret: %v", err)
	}
	if _, _, err := reg.VerifyCredentials(ctx, "ghost", "whatever"); !errors.Is(err, store.ErrInvalidCredentials) {
		t.Fatalf("unknown client: %v", err)
	}
}

func TestStorageType(t *testing.T) {
	ctx := context.Background()
	primary := newFakePrimary()
	reg := store.NewRegistry(primary, memory.New(""), nil)

	if got := reg.StorageType(ctx); got != "postgres" {
		t.Fatalf("StorageType = %q", got)
	}
	primary.down = true
	if got := reg.StorageType(ctx); got != "memory" {
		t.Fatalf("StorageType with primary down = %q", got)
	}
}
