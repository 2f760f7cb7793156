// Package pg implementa el tier primario del registry sobre Postgres.
package pg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/agentgate/internal/domain/repository"
	"github.com/dropDatabas3/agentgate/internal/observability/logger"
	migrations "github.com/dropDatabas3/agentgate/migrations/postgres"
)

// uniqueViolation es el SQLSTATE de Postgres para violación de unicidad.
const uniqueViolation = "23505"

// Store es el tier primario. El pool se inicializa lazy en el primer uso;
// singleflight garantiza una sola inicialización aunque lleguen requests
// concurrentes (los demás esperan el mismo resultado).
type Store struct {
	dsn string

	mu   sync.RWMutex
	pool *pgxpool.Pool
	sf   singleflight.Group
}

// New crea el Store. dsn vacío => tier primario no configurado.
func New(dsn string) *Store {
	return &Store{dsn: dsn}
}

// Available indica si hay un tier primario configurado (no si responde).
func (s *Store) Available() bool { return s.dsn != "" }

// getPool devuelve el pool, inicializándolo una sola vez.
func (s *Store) getPool(ctx context.Context) (*pgxpool.Pool, error) {
	s.mu.RLock()
	p := s.pool
	s.mu.RUnlock()
	if p != nil {
		return p, nil
	}
	if s.dsn == "" {
		return nil, repository.ErrUnavailable
	}

	v, err, _ := s.sf.Do("init", func() (any, error) {
		s.mu.RLock()
		if s.pool != nil {
			defer s.mu.RUnlock()
			return s.pool, nil
		}
		s.mu.RUnlock()

		pool, err := pgxpool.New(ctx, s.dsn)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		if err := applyMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}

		s.mu.Lock()
		s.pool = pool
		s.mu.Unlock()

		logger.L().Info("postgres pool initialized", logger.Component("store.pg"))
		return pool, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return v.(*pgxpool.Pool), nil
}

// applyMigrations ejecuta las migraciones embebidas en orden lexicográfico.
func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	entries, err := fs.ReadDir(migrations.FS, migrations.Dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sqlBytes, err := migrations.FS.ReadFile(migrations.Dir + "/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// Insert agrega un server. Duplicado de client_id => repository.ErrConflict
// (la unicidad la garantiza el constraint, no un lock de aplicación).
func (s *Store) Insert(ctx context.Context, sc repository.ServerClient) error {
	pool, err := s.getPool(ctx)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO servers (client_id, server_id, name, secret, scopes, registered_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = pool.Exec(ctx, query,
		sc.ClientID, sc.ServerID, sc.Name, sc.Secret, sc.Scopes, sc.RegisteredBy, sc.CreatedAt, sc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrConflict
		}
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return nil
}

// Get busca un server por client_id.
func (s *Store) Get(ctx context.Context, clientID string) (*repository.ServerClient, error) {
	pool, err := s.getPool(ctx)
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT client_id, server_id, name, secret, scopes, registered_by, created_at, updated_at
		FROM servers WHERE client_id = $1
	`
	var sc repository.ServerClient
	err = pool.QueryRow(ctx, query, clientID).Scan(
		&sc.ClientID, &sc.ServerID, &sc.Name, &sc.Secret, &sc.Scopes, &sc.RegisteredBy, &sc.CreatedAt, &sc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return &sc, nil
}

// List devuelve todos los servers registrados en el tier primario.
func (s *Store) List(ctx context.Context) ([]repository.ServerClient, error) {
	pool, err := s.getPool(ctx)
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT client_id, server_id, name, secret, scopes, registered_by, created_at, updated_at
		FROM servers ORDER BY created_at
	`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []repository.ServerClient
	for rows.Next() {
		var sc repository.ServerClient
		if err := rows.Scan(
			&sc.ClientID, &sc.ServerID, &sc.Name, &sc.Secret, &sc.Scopes, &sc.RegisteredBy, &sc.CreatedAt, &sc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	return out, nil
}

// Ping verifica la conexión (inicializa el pool si hace falta).
func (s *Store) Ping(ctx context.Context) error {
	pool, err := s.getPool(ctx)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Close cierra el pool si fue inicializado.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}
