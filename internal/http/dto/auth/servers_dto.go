package auth

import "time"

// RegisterServerRequest es el body JSON de POST /servers/register.
type RegisterServerRequest struct {
	ServerID string   `json:"serverId"`
	Name     string   `json:"name"`
	Scopes   []string `json:"scopes,omitempty"`
}

// RegisterServerResponse se devuelve con 201. Única vez que el secret
// viaja en claro al caller.
type RegisterServerResponse struct {
	ServerID     string   `json:"serverId"`
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	Scopes       []string `json:"scopes"`
}

// RegisterConflictResponse se devuelve con 409: la registración original
// no se pisa, el secret no se re-expone.
type RegisterConflictResponse struct {
	Error    string   `json:"error"`
	ClientID string   `json:"clientId"`
	Scopes   []string `json:"scopes"`
}

// ServerSummary es una entrada del listado (sin secret).
type ServerSummary struct {
	ServerID     string    `json:"serverId"`
	Name         string    `json:"name"`
	Scopes       []string  `json:"scopes"`
	CreatedAt    time.Time `json:"createdAt"`
	RegisteredBy string    `json:"registeredBy"`
}

// ListServersResponse es el body de GET /servers.
type ListServersResponse struct {
	Servers []ServerSummary `json:"servers"`
}
