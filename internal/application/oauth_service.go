package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"orderdesk/internal/domain"
	"orderdesk/internal/infrastructure/shopify"
	"orderdesk/internal/ports"

	"github.com/rs/zerolog"
)

// Callback result codes carried back to the dashboard as redirect query
// parameters.
const (
	ResultConnected           = "connected"
	ErrCodeInvalidState       = "invalid_state"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeStoreNotFound      = "store_not_found"
	ErrCodeDomainMismatch     = "domain_mismatch"
	ErrCodeMissingCredentials = "missing_credentials"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeNoCode             = "no_code"
	ErrCodeOAuthFailed        = "oauth_failed"
)

// CallbackParams carries everything the OAuth redirect brings back.
type CallbackParams struct {
	User        *domain.User // authenticated session user, nil when absent
	Code        string
	State       string
	Shop        string // optional cross-check against the store's domain
	CookieState string // state cookie value, empty when the cookie is absent
}

// OAuthService drives the Shopify connect flow: state issuance, the callback
// state machine, token exchange, scope resolution and credential persistence.
type OAuthService struct {
	stores     ports.StoreRepository
	encryption ports.EncryptionService
	client     ports.ShopifyClient
	registrar  *WebhookRegistrar
	appURL     string
	logger     zerolog.Logger
}

// NewOAuthService creates a new OAuth service. appURL is the public base URL
// used to build the callback and webhook addresses.
func NewOAuthService(
	stores ports.StoreRepository,
	enc ports.EncryptionService,
	client ports.ShopifyClient,
	registrar *WebhookRegistrar,
	appURL string,
	logger zerolog.Logger,
) *OAuthService {
	return &OAuthService{
		stores:     stores,
		encryption: enc,
		client:     client,
		registrar:  registrar,
		appURL:     strings.TrimRight(appURL, "/"),
		logger:     logger.With().Str("component", "oauth").Logger(),
	}
}

// CallbackURL is the OAuth redirect target registered with Shopify.
func (s *OAuthService) CallbackURL() string {
	return s.appURL + "/api/shopify/callback"
}

// WebhookURL is the inbound webhook address registered against every store.
func (s *OAuthService) WebhookURL() string {
	return s.appURL + "/api/webhooks/shopify"
}

// BeginConnect issues the OAuth state token and builds the authorization URL
// for a store the user owns. The caller is responsible for echoing the state
// into a short-lived http-only cookie before redirecting.
func (s *OAuthService) BeginConnect(ctx context.Context, user *domain.User, storeID string) (authURL, state string, err error) {
	store, err := s.stores.GetByID(ctx, storeID, user.ID)
	if err != nil {
		return "", "", err
	}
	if store.ClientIDEncrypted == "" || store.ClientSecretEncrypted == "" {
		return "", "", fmt.Errorf("store %s has no app credentials", storeID)
	}

	var clientID string
	if err := s.encryption.Decrypt(store.ClientIDEncrypted, &clientID); err != nil {
		return "", "", fmt.Errorf("failed to decrypt client id: %w", err)
	}

	state, err = shopify.EncodeState(store.ID, user.ID)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode state: %w", err)
	}

	authURL = s.client.AuthorizeURL(store.ShopifyDomain, clientID, s.CallbackURL(), state)

	s.logger.Info().
		Str("store_id", store.ID).
		Str("shop", store.ShopifyDomain).
		Msg("OAuth flow started")
	return authURL, state, nil
}

// HandleCallback runs the callback state machine and returns the redirect
// result code. All failures map to a code; nothing here panics the flow.
//
// The state token itself is not signed, so it proves nothing on its own.
// The checks below compensate: the cookie, when present, must match the
// returned state byte for byte, and the decoded user must equal the session
// user. When the cookie is absent the flow still proceeds on the identity
// check alone.
func (s *OAuthService) HandleCallback(ctx context.Context, p CallbackParams) string {
	if p.Code == "" {
		return ErrCodeNoCode
	}

	st, err := shopify.DecodeState(p.State)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Callback with undecodable state")
		return ErrCodeInvalidState
	}
	if p.CookieState != "" && p.CookieState != p.State {
		s.logger.Warn().Str("store_id", st.StoreID).Msg("Callback state does not match cookie")
		return ErrCodeInvalidState
	}
	if p.User == nil || p.User.ID != st.UserID {
		s.logger.Warn().Str("store_id", st.StoreID).Msg("Callback user does not match state")
		return ErrCodeUnauthorized
	}

	store, err := s.stores.GetByID(ctx, st.StoreID, p.User.ID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ErrCodeStoreNotFound
		}
		s.logger.Error().Err(err).Str("store_id", st.StoreID).Msg("Failed to load store for callback")
		return ErrCodeOAuthFailed
	}

	if p.Shop != "" && !strings.EqualFold(p.Shop, store.ShopifyDomain) {
		s.logger.Warn().
			Str("store_id", store.ID).
			Str("expected", store.ShopifyDomain).
			Str("got", p.Shop).
			Msg("Callback shop does not match store domain")
		return ErrCodeDomainMismatch
	}

	if store.ClientIDEncrypted == "" || store.ClientSecretEncrypted == "" {
		return ErrCodeMissingCredentials
	}

	var clientID, clientSecret string
	if err := s.encryption.Decrypt(store.ClientIDEncrypted, &clientID); err != nil {
		s.logger.Error().Err(err).Str("store_id", store.ID).Msg("Failed to decrypt client id")
		return ErrCodeInvalidCredentials
	}
	if err := s.encryption.Decrypt(store.ClientSecretEncrypted, &clientSecret); err != nil {
		s.logger.Error().Err(err).Str("store_id", store.ID).Msg("Failed to decrypt client secret")
		return ErrCodeInvalidCredentials
	}

	token, tokenScope, err := s.client.ExchangeToken(ctx, store.ShopifyDomain, clientID, clientSecret, p.Code)
	if err != nil {
		s.logger.Error().Err(err).Str("store_id", store.ID).Msg("Token exchange failed")
		return ErrCodeOAuthFailed
	}

	scopes := s.resolveScopes(ctx, store.ShopifyDomain, token, tokenScope)

	webhookSecret := store.WebhookSecret
	if webhookSecret == "" {
		webhookSecret, err = generateWebhookSecret()
		if err != nil {
			s.logger.Error().Err(err).Str("store_id", store.ID).Msg("Failed to generate webhook secret")
			return ErrCodeOAuthFailed
		}
	}

	// Partial registration is fine; the connection proceeds with whatever
	// subscriptions succeeded.
	s.registrar.RegisterAll(ctx, store.ID, store.ShopifyDomain, token, s.WebhookURL())

	tokenEncrypted, err := s.encryption.Encrypt(token)
	if err != nil {
		s.logger.Error().Err(err).Str("store_id", store.ID).Msg("Failed to encrypt access token")
		return ErrCodeOAuthFailed
	}

	update := &domain.StoreUpdate{
		AccessTokenEncrypted: &tokenEncrypted,
		Scopes:               &scopes,
		WebhookSecret:        &webhookSecret,
	}
	if _, err := s.stores.Update(ctx, store.ID, p.User.ID, update); err != nil {
		s.logger.Error().Err(err).Str("store_id", store.ID).Msg("Failed to persist credentials")
		return ErrCodeOAuthFailed
	}

	s.logger.Info().
		Str("store_id", store.ID).
		Str("shop", store.ShopifyDomain).
		Strs("scopes", scopes).
		Msg("Store connected")
	return ResultConnected
}

// resolveScopes picks the most authoritative scope list available: the
// introspection result when it answers, the token-response scope string when
// it does not, and the requested list as the last resort. The token-response
// field is sometimes stale or absent, which is why introspection comes first.
func (s *OAuthService) resolveScopes(ctx context.Context, shopDomain, token, tokenScope string) []string {
	if granted := s.client.GrantedScopes(ctx, shopDomain, token); len(granted) > 0 {
		return granted
	}
	if tokenScope != "" {
		parts := strings.Split(tokenScope, ",")
		scopes := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				scopes = append(scopes, p)
			}
		}
		if len(scopes) > 0 {
			return scopes
		}
	}
	return append([]string(nil), shopify.Scopes...)
}

func generateWebhookSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate webhook secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
