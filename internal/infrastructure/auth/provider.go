package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"orderdesk/internal/domain"
	"orderdesk/internal/ports"

	"github.com/rs/zerolog"
)

// ErrUnauthorized is returned when the request carries no usable credentials
// or the auth provider rejects them.
var ErrUnauthorized = fmt.Errorf("unauthorized")

// HTTPProvider resolves the current user by calling the hosted auth provider's
// session endpoint with the caller's bearer token.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPProvider creates an auth provider backed by the given base URL,
// e.g. https://auth.example.com.
func NewHTTPProvider(baseURL string, logger zerolog.Logger) ports.AuthProvider {
	return &HTTPProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     logger.With().Str("component", "auth").Logger(),
	}
}

type sessionResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// UserFromRequest validates the Authorization bearer token against the auth
// provider and returns the authenticated user. ErrUnauthorized is returned
// when the token is missing, malformed, or rejected.
func (p *HTTPProvider) UserFromRequest(ctx context.Context, r *http.Request) (*domain.User, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/auth/get-session", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call auth provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		p.logger.Warn().Int("status", resp.StatusCode).Msg("auth provider returned unexpected status")
		return nil, fmt.Errorf("auth provider returned status %d", resp.StatusCode)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	if session.User.ID == "" {
		return nil, ErrUnauthorized
	}

	return &domain.User{ID: session.User.ID, Email: session.User.Email}, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		// Browser flows (the OAuth callback redirect) carry the session in a
		// cookie rather than a header.
		if cookie, err := r.Cookie("session_token"); err == nil {
			return cookie.Value
		}
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}
