package auth

// HealthResponse es el body de GET /auth/health.
type HealthResponse struct {
	Status            string `json:"status"`
	KeysLoaded        int    `json:"keysLoaded"`
	ServersRegistered int    `json:"serversRegistered"`
	DatabaseConnected bool   `json:"databaseConnected"`
	StorageType       string `json:"storageType"`
}
