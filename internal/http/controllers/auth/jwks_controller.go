package auth

import (
	"net/http"

	svc "github.com/dropDatabas3/agentgate/internal/http/services/auth"
)

// JWKSController publica GET /.well-known/jwks.json.
type JWKSController struct {
	service svc.JWKSService
}

// NewJWKSController creates the controller.
func NewJWKSController(s svc.JWKSService) *JWKSController {
	return &JWKSController{service: s}
}

// JWKS siempre responde 200: sin claves configuradas el body es {"keys":[]}.
func (c *JWKSController) JWKS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.service.Document(r.Context()))
}
