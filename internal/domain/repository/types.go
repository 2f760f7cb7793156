// Package repository define los tipos de dominio y errores sentinel
// compartidos por los adapters de storage.
package repository

import (
	"errors"
	"time"
)

// ServerClient representa un server/agent registrado como cliente OAuth.
// El client_id es el serverId elegido por el caller; el secret se genera
// en el registro y no rota.
type ServerClient struct {
	ClientID     string    `json:"client_id"`
	ServerID     string    `json:"server_id"`
	Name         string    `json:"name"`
	Secret       string    `json:"secret"`
	Scopes       []string  `json:"scopes"`
	RegisteredBy string    `json:"registered_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Errores sentinel de los adapters.
var (
	// ErrNotFound indica que el registro no existe en el tier consultado.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict indica violación de unicidad de client_id.
	ErrConflict = errors.New("repository: conflict")

	// ErrUnavailable indica que el tier primario no es alcanzable
	// (storage-unreachable, no "not found").
	ErrUnavailable = errors.New("repository: storage unavailable")
)
