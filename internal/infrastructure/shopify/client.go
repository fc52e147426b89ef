package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"orderdesk/internal/domain"
	"orderdesk/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// APIVersion is the Shopify Admin API version all calls pin to.
const APIVersion = "2025-10"

// Scopes is the fixed, versioned scope list requested on every install. It
// matches the scopes configured in the Shopify app settings.
var Scopes = []string{
	"read_customers",
	"read_fulfillments",
	"write_fulfillments",
	"read_orders",
	"write_orders",
	"read_products",
}

// APIError reports a non-2xx response from the Shopify Admin API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify API error: status %d: %s", e.StatusCode, e.Body)
}

// Client is the Shopify Admin API adapter. Credentials are passed per call;
// the client itself only carries the rate limiter and logger.
type Client struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
	logger      zerolog.Logger
}

// NewClient creates a Shopify client adapter. rateLimiter may be nil.
func NewClient(rateLimiter *RateLimiter, logger zerolog.Logger) ports.ShopifyClient {
	return &Client{
		httpClient:  http.DefaultClient,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// adminClient builds a go-shopify client bound to one shop and token.
func (c *Client) adminClient(shopDomain, accessToken string) (*goshopify.Client, error) {
	client, err := goshopify.NewClient(goshopify.App{}, shopDomain, accessToken,
		goshopify.WithVersion(APIVersion))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// AuthorizeURL builds the OAuth authorization URL. Shopify expects the scope
// list comma-separated with no spaces.
func (c *Client) AuthorizeURL(shopDomain, clientID, redirectURI, state string) string {
	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("scope", strings.Join(Scopes, ","))
	params.Set("redirect_uri", redirectURI)
	params.Set("state", state)
	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shopDomain, params.Encode())
}

// ExchangeToken trades the authorization code for an access token with a
// single POST to the shop's token endpoint.
func (c *Client) ExchangeToken(ctx context.Context, shopDomain, clientID, clientSecret, code string) (string, string, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     clientID,
		"client_secret": clientSecret,
		"code":          code,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to encode token request: %w", err)
	}

	tokenURL := fmt.Sprintf("https://%s/admin/oauth/access_token", shopDomain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to exchange token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", "", &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return "", "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return "", "", fmt.Errorf("access token not found in token response")
	}
	return tokenResponse.AccessToken, tokenResponse.Scope, nil
}

// GrantedScopes queries the granted scopes through the GraphQL Admin API. The
// token-exchange response's scope field is sometimes stale or absent, so this
// is the preferred source, but it degrades to an empty slice on any failure.
func (c *Client) GrantedScopes(ctx context.Context, shopDomain, accessToken string) []string {
	c.throttle(ctx, shopDomain)

	query := `query { appInstallation { accessScopes { handle } } }`
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil
	}

	graphqlURL := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shopDomain, APIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Scope introspection failed, falling back to requested scopes")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Str("shop", shopDomain).Msg("Scope introspection returned non-OK status")
		return nil
	}

	var result struct {
		Data struct {
			AppInstallation struct {
				AccessScopes []struct {
					Handle string `json:"handle"`
				} `json:"accessScopes"`
			} `json:"appInstallation"`
		} `json:"data"`
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Scope introspection response malformed")
		return nil
	}
	if len(result.Errors) > 0 {
		c.logger.Warn().Str("shop", shopDomain).Msg("Scope introspection returned GraphQL errors")
		return nil
	}

	scopes := make([]string, 0, len(result.Data.AppInstallation.AccessScopes))
	for _, s := range result.Data.AppInstallation.AccessScopes {
		scopes = append(scopes, s.Handle)
	}
	return scopes
}

// VerifyToken makes a lightweight shop read to confirm the token still works.
func (c *Client) VerifyToken(ctx context.Context, shopDomain, accessToken string) error {
	c.throttle(ctx, shopDomain)

	client, err := c.adminClient(shopDomain, accessToken)
	if err != nil {
		return err
	}
	if _, err := client.Shop.Get(ctx, nil); err != nil {
		return fmt.Errorf("failed to get shop: %w", err)
	}
	return nil
}

// CreateWebhook registers one webhook subscription. A remote "address already
// taken" duplicate error is reported as (nil, nil): the subscription exists,
// there is just no new id to record.
func (c *Client) CreateWebhook(ctx context.Context, shopDomain, accessToken string, topic domain.WebhookTopic, address string) (*ports.RemoteWebhook, error) {
	c.throttle(ctx, shopDomain)

	client, err := c.adminClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}

	created, err := client.Webhook.Create(ctx, goshopify.Webhook{
		Topic:   topic.String(),
		Address: address,
		Format:  "json",
	})
	if err != nil {
		if isAlreadyTaken(err) {
			c.logger.Info().Str("shop", shopDomain).Str("topic", topic.String()).Msg("Webhook already registered")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}

	return &ports.RemoteWebhook{
		ID:      fmt.Sprintf("%d", created.Id),
		Topic:   created.Topic,
		Address: created.Address,
	}, nil
}

// ListWebhooks lists all webhook subscriptions registered for the shop.
func (c *Client) ListWebhooks(ctx context.Context, shopDomain, accessToken string) ([]ports.RemoteWebhook, error) {
	c.throttle(ctx, shopDomain)

	client, err := c.adminClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	webhooks, err := client.Webhook.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}

	remote := make([]ports.RemoteWebhook, 0, len(webhooks))
	for _, w := range webhooks {
		remote = append(remote, ports.RemoteWebhook{
			ID:      fmt.Sprintf("%d", w.Id),
			Topic:   w.Topic,
			Address: w.Address,
		})
	}
	return remote, nil
}

// DeleteWebhook removes one webhook subscription.
func (c *Client) DeleteWebhook(ctx context.Context, shopDomain, accessToken, webhookID string) error {
	c.throttle(ctx, shopDomain)

	id, err := strconv.ParseUint(webhookID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid webhook id %q: %w", webhookID, err)
	}
	client, err := c.adminClient(shopDomain, accessToken)
	if err != nil {
		return err
	}
	if err := client.Webhook.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

// ListOrders fetches recent orders as raw JSON so webhook processing and
// manual sync share one payload mapping.
func (c *Client) ListOrders(ctx context.Context, shopDomain, accessToken string, limit int) ([]json.RawMessage, error) {
	c.throttle(ctx, shopDomain)

	if limit <= 0 || limit > 250 {
		limit = 250
	}
	ordersURL := fmt.Sprintf("https://%s/admin/api/%s/orders.json?status=any&limit=%d", shopDomain, APIVersion, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ordersURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create orders request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		Orders []json.RawMessage `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode orders response: %w", err)
	}
	return result.Orders, nil
}

func (c *Client) throttle(ctx context.Context, shopDomain string) {
	if c.rateLimiter != nil {
		c.rateLimiter.Wait(ctx, shopDomain)
	}
}

// isAlreadyTaken matches the remote-specific duplicate error Shopify returns
// when a webhook for the same topic and address already exists (422 with an
// "address has already been taken" detail).
func isAlreadyTaken(err error) bool {
	respErr, ok := err.(goshopify.ResponseError)
	if !ok {
		return false
	}
	return respErr.Status == 422 && strings.Contains(strings.ToLower(respErr.Error()), "taken")
}
