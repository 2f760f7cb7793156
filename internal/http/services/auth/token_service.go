// Package auth contiene los services del dominio de autorización.
package auth

import (
	"context"
	"errors"

	dto "github.com/dropDatabas3/agentgate/internal/http/dto/auth"
)

// TokenService handles OAuth2 token endpoint logic.
type TokenService interface {
	// ExchangeClientCredentials handles grant_type=client_credentials (M2M).
	ExchangeClientCredentials(ctx context.Context, req ClientCredentialsRequest) (*dto.TokenResponse, error)
}

// ClientCredentialsRequest contains the form parameters of the token request.
type ClientCredentialsRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Audience     string
	Scope        string
}

// Token endpoint errors (OAuth2 standard). El controller los mapea a
// status + error code; nunca llevan detalle interno.
var (
	ErrTokenUnsupportedGrantType = errors.New("unsupported_grant_type")
	ErrTokenInvalidClient        = errors.New("invalid_client")
	ErrTokenMissingAudience      = errors.New("invalid_request: audience required")
	ErrTokenInvalidScope         = errors.New("invalid_scope")
	ErrTokenServerError          = errors.New("server_error")
)
