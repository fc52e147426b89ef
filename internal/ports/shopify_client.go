package ports

import (
	"context"
	"encoding/json"

	"orderdesk/internal/domain"
)

// RemoteWebhook describes one webhook subscription as the Shopify Admin API
// reports it.
type RemoteWebhook struct {
	ID      string
	Topic   string
	Address string
}

// ShopifyClient defines the Shopify Admin API operations the service needs.
// Credentials are passed per call: every store brings its own app credentials
// and access token.
type ShopifyClient interface {
	// AuthorizeURL builds the OAuth authorization URL for the fixed scope
	// list. Pure construction, no network.
	AuthorizeURL(shopDomain, clientID, redirectURI, state string) string

	// ExchangeToken trades the authorization code for an access token.
	// Returns the token and the comma-separated scope string from the
	// response (which may be stale or empty).
	ExchangeToken(ctx context.Context, shopDomain, clientID, clientSecret, code string) (token string, scope string, err error)

	// GrantedScopes asks the introspection endpoint which scopes were
	// actually granted. Best-effort: any failure yields an empty slice and
	// a diagnostic log, never an error. Callers treat empty as "unknown,
	// fall back to the requested scopes", not as "zero scopes granted".
	GrantedScopes(ctx context.Context, shopDomain, accessToken string) []string

	// VerifyToken makes a lightweight Admin API call to confirm the token
	// still works.
	VerifyToken(ctx context.Context, shopDomain, accessToken string) error

	// Webhook admin API.
	CreateWebhook(ctx context.Context, shopDomain, accessToken string, topic domain.WebhookTopic, address string) (*RemoteWebhook, error)
	ListWebhooks(ctx context.Context, shopDomain, accessToken string) ([]RemoteWebhook, error)
	DeleteWebhook(ctx context.Context, shopDomain, accessToken, webhookID string) error

	// ListOrders fetches raw order payloads for manual sync. Raw JSON so
	// the same mapping serves webhooks and sync.
	ListOrders(ctx context.Context, shopDomain, accessToken string, limit int) ([]json.RawMessage, error)
}
