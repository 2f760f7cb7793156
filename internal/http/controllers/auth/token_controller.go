// Package auth - controllers del dominio de autorización.
package auth

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/agentgate/internal/observability/logger"

	dto "github.com/dropDatabas3/agentgate/internal/http/dto/auth"
	svc "github.com/dropDatabas3/agentgate/internal/http/services/auth"
)

const maxTokenFormSize = 64 << 10 // 64KB

// TokenController handles the OAuth2 token endpoint.
type TokenController struct {
	service svc.TokenService
}

// NewTokenController creates the controller.
func NewTokenController(s svc.TokenService) *TokenController {
	return &TokenController{service: s}
}

// Token handles POST /token (client_credentials grant only).
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.token"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		c.writeOAuthError(w, http.StatusMethodNotAllowed, "invalid_request", "Only POST method is allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTokenFormSize)

	if err := r.ParseForm(); err != nil {
		log.Warn("failed to parse form", logger.Err(err))
		c.writeOAuthError(w, http.StatusBadRequest, "invalid_request", "Invalid form data")
		return
	}

	req := svc.ClientCredentialsRequest{
		GrantType:    strings.TrimSpace(r.PostForm.Get("grant_type")),
		ClientID:     strings.TrimSpace(r.PostForm.Get("client_id")),
		ClientSecret: strings.TrimSpace(r.PostForm.Get("client_secret")),
		Audience:     strings.TrimSpace(r.PostForm.Get("audience")),
		Scope:        strings.TrimSpace(r.PostForm.Get("scope")),
	}

	resp, err := c.service.ExchangeClientCredentials(ctx, req)
	if err != nil {
		c.handleServiceError(w, r, err)
		return
	}

	c.writeTokenResponse(w, resp)
}

func (c *TokenController) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch err {
	case svc.ErrTokenUnsupportedGrantType:
		c.writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "Grant type not supported")
	case svc.ErrTokenInvalidClient:
		c.writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "Client authentication failed")
	case svc.ErrTokenMissingAudience:
		c.writeOAuthError(w, http.StatusBadRequest, "invalid_request", "audience parameter is required")
	case svc.ErrTokenInvalidScope:
		c.writeOAuthError(w, http.StatusBadRequest, "invalid_scope", "Requested scope is invalid or not allowed")
	default:
		logger.From(r.Context()).Error("token endpoint error", logger.Err(err))
		c.writeOAuthError(w, http.StatusInternalServerError, "server_error", "An unexpected error occurred")
	}
}

func (c *TokenController) writeOAuthError(w http.ResponseWriter, status int, errorCode, description string) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + errorCode + `","error_description":"` + description + `"}`))
}

func (c *TokenController) writeTokenResponse(w http.ResponseWriter, resp *dto.TokenResponse) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	out := `{"access_token":"` + resp.AccessToken + `","token_type":"` + resp.TokenType + `","expires_in":` + itoa(resp.ExpiresIn)
	if resp.Scope != "" {
		out += `,"scope":"` + resp.Scope + `"`
	}
	out += `}`
	_, _ = w.Write([]byte(out))
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
