// Package memory implementa el tier de fallback in-memory del registry,
// con persistencia best-effort a un snapshot JSON plano.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/dropDatabas3/agentgate/internal/domain/repository"
	"github.com/dropDatabas3/agentgate/internal/observability/logger"
	"github.com/dropDatabas3/agentgate/internal/security/secretbox"
	"github.com/dropDatabas3/agentgate/internal/util/atomicwrite"
)

// Store es el mirror in-memory. No es source of truth cuando el tier
// primario responde; el snapshot es un mecanismo de comodidad para
// desarrollo local, no un commit.
type Store struct {
	mu      sync.RWMutex
	servers map[string]repository.ServerClient
	path    string // snapshot file; vacío => sin persistencia
}

type snapshotServer struct {
	repository.ServerClient
	// SecretEncrypted marca que Secret está cifrado con secretbox.
	SecretEncrypted bool `json:"secret_encrypted,omitempty"`
}

type snapshotFile struct {
	Servers []snapshotServer `json:"servers"`
}

// New crea el Store. path vacío deshabilita el snapshot.
func New(path string) *Store {
	return &Store{
		servers: make(map[string]repository.ServerClient),
		path:    path,
	}
}

// Load carga el snapshot desde disco. Archivo ausente no es error.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("memory: read snapshot: %w", err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("memory: decode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range snap.Servers {
		sc := entry.ServerClient
		if entry.SecretEncrypted {
			plain, err := secretbox.Decrypt(sc.Secret)
			if err != nil {
				logger.L().Warn("snapshot secret undecryptable, entry skipped",
					logger.Component("store.memory"), logger.ClientID(sc.ClientID), logger.Err(err))
				continue
			}
			sc.Secret = plain
		}
		s.servers[sc.ClientID] = sc
	}
	return nil
}

// Put inserta o reemplaza el server (mirror incondicional del registro)
// y reescribe el snapshot.
func (s *Store) Put(sc repository.ServerClient) {
	s.mu.Lock()
	s.servers[sc.ClientID] = sc
	s.mu.Unlock()
	s.save()
}

// Get busca por client_id.
func (s *Store) Get(clientID string) (*repository.ServerClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.servers[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := sc
	return &out, nil
}

// List devuelve todos los servers, ordenados por client_id.
func (s *Store) List() []repository.ServerClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]repository.ServerClient, 0, len(s.servers))
	for _, sc := range s.servers {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}

// Count devuelve la cantidad de servers en memoria.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.servers)
}

// save reescribe el snapshot. Best-effort: los errores se loguean, nunca
// bloquean la operación que disparó el write.
func (s *Store) save() {
	if s.path == "" {
		return
	}

	s.mu.RLock()
	snap := snapshotFile{Servers: make([]snapshotServer, 0, len(s.servers))}
	for _, sc := range s.servers {
		entry := snapshotServer{ServerClient: sc}
		if secretbox.Ready() {
			enc, err := secretbox.Encrypt(sc.Secret)
			if err == nil {
				entry.Secret = enc
				entry.SecretEncrypted = true
			}
		}
		snap.Servers = append(snap.Servers, entry)
	}
	s.mu.RUnlock()

	sort.Slice(snap.Servers, func(i, j int) bool {
		return strings.Compare(snap.Servers[i].ClientID, snap.Servers[j].ClientID) < 0
	})

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		logger.L().Warn("snapshot encode failed", logger.Component("store.memory"), logger.Err(err))
		return
	}
	if err := atomicwrite.AtomicWriteFile(s.path, data, 0600); err != nil {
		logger.L().Warn("snapshot write failed", logger.Component("store.memory"), logger.Err(err))
	}
}
