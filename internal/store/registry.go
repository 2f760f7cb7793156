// Package store compone los dos tiers del registry de clientes OAuth:
// primario (Postgres) y fallback (in-memory con snapshot). El fallback
// silencioso entre tiers es una feature de resiliencia deliberada: se
// expone como repository.ErrUnavailable, nunca como exception swallow.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dropDatabas3/agentgate/internal/cache"
	"github.com/dropDatabas3/agentgate/internal/domain/repository"
	"github.com/dropDatabas3/agentgate/internal/observability/logger"
	tokens "github.com/dropDatabas3/agentgate/internal/security/token"
	"github.com/dropDatabas3/agentgate/internal/store/memory"
)

// lookupCacheTTL acota el read-through cache de lookups por client_id.
const lookupCacheTTL = 30 * time.Second

// PrimaryStore abstrae el tier primario (Postgres en producción).
type PrimaryStore interface {
	Available() bool
	Insert(ctx context.Context, sc repository.ServerClient) error
	Get(ctx context.Context, clientID string) (*repository.ServerClient, error)
	List(ctx context.Context) ([]repository.ServerClient, error)
	Ping(ctx context.Context) error
}

// ErrInvalidCredentials colapsa "unknown client" y "wrong secret" en una
// sola señal externa para no permitir enumeración de client ids.
var ErrInvalidCredentials = errors.New("store: invalid client credentials")

// ConflictError indica client_id ya registrado; carga la registración
// existente para que el caller arme la respuesta 409.
type ConflictError struct {
	Existing repository.ServerClient
}

func (e *ConflictError) Error() string {
	return "store: client already registered: " + e.Existing.ClientID
}

func (e *ConflictError) Is(target error) bool { return target == repository.ErrConflict }

// RegisterInput son los datos de una registración nueva.
type RegisterInput struct {
	ServerID     string
	Name         string
	Scopes       []string
	RegisteredBy string
}

// Registry es el ClientRegistry de dos tiers.
type Registry struct {
	primary  PrimaryStore
	fallback *memory.Store
	cache    cache.Cache
}

// NewRegistry compone el registry. cache puede ser nil (sin read-through).
func NewRegistry(primary PrimaryStore, fallback *memory.Store, c cache.Cache) *Registry {
	return &Registry{primary: primary, fallback: fallback, cache: c}
}

// Register crea una registración nueva con secret generado.
// Conflicto si el client_id ya existe (en el tier que responda).
// Si el primario no es alcanzable, degrada a fallback-only con warning y
// la operación igual reporta éxito (ergonomía de desarrollo local).
// El mirror al fallback es incondicional y best-effort.
func (r *Registry) Register(ctx context.Context, in RegisterInput) (*repository.ServerClient, error) {
	log := logger.From(ctx).With(logger.Layer("store"), logger.Op("registry.register"), logger.ServerID(in.ServerID))

	if existing, err := r.lookupNoCache(ctx, in.ServerID); err == nil {
		return nil, &ConflictError{Existing: *existing}
	}

	secret, err := tokens.GenerateClientSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sc := repository.ServerClient{
		ClientID:     in.ServerID,
		ServerID:     in.ServerID,
		Name:         in.Name,
		Secret:       secret,
		Scopes:       append([]string(nil), in.Scopes...),
		RegisteredBy: in.RegisteredBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if r.primary != nil && r.primary.Available() {
		err := r.primary.Insert(ctx, sc)
		switch {
		case err == nil:
			// ok
		case errors.Is(err, repository.ErrConflict):
			// Carrera perdida contra otra registración concurrente: el
			// constraint del primario decide el ganador.
			if existing, gerr := r.primary.Get(ctx, in.ServerID); gerr == nil {
				return nil, &ConflictError{Existing: *existing}
			}
			return nil, &ConflictError{Existing: sc}
		case errors.Is(err, repository.ErrUnavailable):
			log.Warn("primary store unavailable, registration degraded to fallback tier", logger.Err(err))
		default:
			return nil, err
		}
	}

	r.fallback.Put(sc)
	r.invalidate(sc.ClientID)
	log.Info("server registered", logger.ClientID(sc.ClientID), logger.Count(len(sc.Scopes)))
	return &sc, nil
}

// Lookup busca por client_id: primario primero, fallback solo si el
// primario no es alcanzable (no ante un simple not-found).
func (r *Registry) Lookup(ctx context.Context, clientID string) (*repository.ServerClient, error) {
	if sc := r.cached(clientID); sc != nil {
		return sc, nil
	}
	sc, err := r.lookupNoCache(ctx, clientID)
	if err != nil {
		return nil, err
	}
	r.remember(sc)
	return sc, nil
}

func (r *Registry) lookupNoCache(ctx context.Context, clientID string) (*repository.ServerClient, error) {
	if r.primary != nil && r.primary.Available() {
		sc, err := r.primary.Get(ctx, clientID)
		switch {
		case err == nil:
			return sc, nil
		case errors.Is(err, repository.ErrNotFound):
			return nil, repository.ErrNotFound
		case errors.Is(err, repository.ErrUnavailable):
			logger.From(ctx).Warn("primary store unavailable, lookup falling back",
				logger.Layer("store"), logger.ClientID(clientID), logger.Err(err))
		default:
			return nil, err
		}
	}
	return r.fallback.Get(clientID)
}

// List devuelve la unión reconciliada de ambos tiers, keyed por
// client_id, con el primario pisando al fallback en colisiones.
func (r *Registry) List(ctx context.Context) ([]repository.ServerClient, error) {
	merged := make(map[string]repository.ServerClient)
	for _, sc := range r.fallback.List() {
		merged[sc.ClientID] = sc
	}

	if r.primary != nil && r.primary.Available() {
		primary, err := r.primary.List(ctx)
		if err != nil {
			if !errors.Is(err, repository.ErrUnavailable) {
				return nil, err
			}
			logger.From(ctx).Warn("primary store unavailable, listing fallback tier only",
				logger.Layer("store"), logger.Err(err))
		}
		for _, sc := range primary {
			merged[sc.ClientID] = sc
		}
	}

	out := make([]repository.ServerClient, 0, len(merged))
	for _, sc := range merged {
		out = append(out, sc)
	}
	return out, nil
}

// VerifyCredentials valida id+secret con comparación en tiempo constante.
// Cualquier falla (cliente desconocido, tier caído sin fallback, secret
// equivocado) colapsa a ErrInvalidCredentials.
func (r *Registry) VerifyCredentials(ctx context.Context, clientID, clientSecret string) (string, []string, error) {
	sc, err := r.Lookup(ctx, clientID)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !tokens.ConstantTimeEquals(sc.Secret, clientSecret) {
		return "", nil, ErrInvalidCredentials
	}
	return sc.ClientID, append([]string(nil), sc.Scopes...), nil
}

// Count devuelve servers conocidos (unión de tiers) para health.
func (r *Registry) Count(ctx context.Context) int {
	list, err := r.List(ctx)
	if err != nil {
		return r.fallback.Count()
	}
	return len(list)
}

// PrimaryConnected reporta si el tier primario responde a un ping.
func (r *Registry) PrimaryConnected(ctx context.Context) bool {
	if r.primary == nil || !r.primary.Available() {
		return false
	}
	return r.primary.Ping(ctx) == nil
}

// StorageType nombra el backend efectivo para health.
func (r *Registry) StorageType(ctx context.Context) string {
	if r.PrimaryConnected(ctx) {
		return "postgres"
	}
	return "memory"
}

// ─── lookup cache ───

func (r *Registry) cached(clientID string) *repository.ServerClient {
	if r.cache == nil {
		return nil
	}
	data, ok := r.cache.Get("srv:" + clientID)
	if !ok {
		return nil
	}
	var sc repository.ServerClient
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil
	}
	return &sc
}

func (r *Registry) remember(sc *repository.ServerClient) {
	if r.cache == nil || sc == nil {
		return
	}
	if data, err := json.Marshal(sc); err == nil {
		r.cache.Set("srv:"+sc.ClientID, data, lookupCacheTTL)
	}
}

func (r *Registry) invalidate(clientID string) {
	if r.cache != nil {
		r.cache.Delete("srv:" + clientID)
	}
}
