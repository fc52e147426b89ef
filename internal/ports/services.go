package ports

import (
	"context"
	"net/http"

	"orderdesk/internal/domain"
)

// EncryptionService encrypts small JSON credential blobs at rest.
type EncryptionService interface {
	// Encrypt JSON-marshals v and returns an opaque token.
	Encrypt(v any) (string, error)
	// Decrypt reverses Encrypt into out. Fails on tampered or malformed
	// tokens.
	Decrypt(token string, out any) error
}

// AuthProvider resolves the current user from an inbound request. Sign-in,
// session issuance and identity storage live in the hosted auth provider;
// this is the whole surface the service consumes.
type AuthProvider interface {
	UserFromRequest(ctx context.Context, r *http.Request) (*domain.User, error)
}
