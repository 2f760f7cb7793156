package auth

import (
	"errors"

	tokens "github.com/dropDatabas3/agentgate/internal/security/token"
)

// AdminGuard valida credenciales administrativas para operaciones de
// registración. Acepta cualquiera de los dos pares configurados
// (management tiene precedencia nominal, pero ambos habilitan lo mismo).
type AdminGuard struct {
	adminID          string
	adminSecret      string
	managementID     string
	managementSecret string
}

var (
	// ErrGuardNotConfigured: no hay ningún par de credenciales configurado.
	ErrGuardNotConfigured = errors.New("admin credentials not configured")
	// ErrGuardInvalid: las credenciales presentadas no matchean ningún par.
	ErrGuardInvalid = errors.New("invalid admin credentials")
)

// NewAdminGuard builds the guard from the configured credential pairs.
// Empty pairs are ignored.
func NewAdminGuard(adminID, adminSecret, managementID, managementSecret string) *AdminGuard {
	return &AdminGuard{
		adminID:          adminID,
		adminSecret:      adminSecret,
		managementID:     managementID,
		managementSecret: managementSecret,
	}
}

// Configured reports whether at least one complete credential pair exists.
func (g *AdminGuard) Configured() bool {
	return (g.managementID != "" && g.managementSecret != "") ||
		(g.adminID != "" && g.adminSecret != "")
}

// Verify checks the presented pair against the configured ones. Todas las
// comparaciones son constant-time; un guard sin configurar nunca autoriza.
func (g *AdminGuard) Verify(id, secret string) error {
	if !g.Configured() {
		return ErrGuardNotConfigured
	}
	if g.managementID != "" && g.managementSecret != "" {
		if tokens.ConstantTimeEquals(id, g.managementID) && tokens.ConstantTimeEquals(secret, g.managementSecret) {
			return nil
		}
	}
	if g.adminID != "" && g.adminSecret != "" {
		if tokens.ConstantTimeEquals(id, g.adminID) && tokens.ConstantTimeEquals(secret, g.adminSecret) {
			return nil
		}
	}
	return ErrGuardInvalid
}
