package shopify

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidState is returned when an OAuth state token cannot be decoded or
// is missing a required field.
var ErrInvalidState = errors.New("invalid or corrupted OAuth state")

// OAuthState is the self-contained token carried through the OAuth redirect
// round-trip. It binds the store and user and carries a random nonce.
//
// The token is reversible base64url JSON: it is NOT signed and NOT encrypted,
// so it is a correlation identifier only. The callback compensates by
// requiring an exact match against the http-only state cookie when the cookie
// is present, and by checking the decoded user against the authenticated
// session. See DESIGN.md for the limits of that arrangement.
type OAuthState struct {
	StoreID string `json:"store_id"`
	UserID  string `json:"user_id"`
	Nonce   string `json:"nonce"`
}

// EncodeState builds a state token for the given store and user with a fresh
// 16-byte nonce.
func EncodeState(storeID, userID string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}
	payload, err := json.Marshal(OAuthState{
		StoreID: storeID,
		UserID:  userID,
		Nonce:   hex.EncodeToString(nonce),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecodeState parses a state token, verifying structural well-formedness only.
func DecodeState(token string) (*OAuthState, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidState
	}
	var state OAuthState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, ErrInvalidState
	}
	if state.StoreID == "" || state.UserID == "" || state.Nonce == "" {
		return nil, ErrInvalidState
	}
	return &state, nil
}
