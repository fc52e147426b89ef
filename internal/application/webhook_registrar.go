package application

import (
	"context"

	"orderdesk/internal/domain"
	"orderdesk/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookRegistrar manages remote webhook subscriptions against the Shopify
// Admin API and mirrors them in the local subscription records.
type WebhookRegistrar struct {
	client ports.ShopifyClient
	subs   ports.WebhookSubscriptionRepository
	logger zerolog.Logger
}

// NewWebhookRegistrar creates a new webhook registrar.
func NewWebhookRegistrar(client ports.ShopifyClient, subs ports.WebhookSubscriptionRepository, logger zerolog.Logger) *WebhookRegistrar {
	return &WebhookRegistrar{
		client: client,
		subs:   subs,
		logger: logger.With().Str("component", "webhook_registrar").Logger(),
	}
}

// RegisterAll registers the fixed topic set for a store and replaces the
// local subscription records with the set that succeeded. Partial success is
// the normal outcome: a topic that already exists remotely counts as success
// with no new id, and a topic that fails is logged and skipped. Receiving a
// subset of events beats blocking the connection.
func (r *WebhookRegistrar) RegisterAll(ctx context.Context, storeID, shopDomain, accessToken, callbackURL string) []*domain.WebhookSubscription {
	var registered []*domain.WebhookSubscription

	for _, topic := range domain.SubscribedTopics {
		remote, err := r.client.CreateWebhook(ctx, shopDomain, accessToken, topic, callbackURL)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("shop", shopDomain).
				Str("topic", topic.String()).
				Msg("Failed to register webhook, continuing")
			continue
		}
		if remote == nil {
			// Already registered remotely from a previous connect.
			r.logger.Debug().
				Str("shop", shopDomain).
				Str("topic", topic.String()).
				Msg("Webhook already registered")
			continue
		}
		registered = append(registered, &domain.WebhookSubscription{
			StoreID:          storeID,
			ShopifyWebhookID: remote.ID,
			Topic:            topic,
			Address:          remote.Address,
		})
	}

	if err := r.subs.Replace(ctx, storeID, registered); err != nil {
		r.logger.Error().
			Err(err).
			Str("store_id", storeID).
			Msg("Failed to persist webhook subscriptions")
	}

	r.logger.Info().
		Str("shop", shopDomain).
		Int("registered", len(registered)).
		Int("topics", len(domain.SubscribedTopics)).
		Msg("Webhook registration finished")
	return registered
}

// UnregisterAll deletes every remote webhook for the shop and drops the local
// subscription records. Deletion failures are logged and skipped; the batch
// never aborts.
func (r *WebhookRegistrar) UnregisterAll(ctx context.Context, storeID, shopDomain, accessToken string) {
	remote, err := r.client.ListWebhooks(ctx, shopDomain, accessToken)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("shop", shopDomain).
			Msg("Failed to list remote webhooks for cleanup")
	}
	for _, w := range remote {
		if err := r.client.DeleteWebhook(ctx, shopDomain, accessToken, w.ID); err != nil {
			r.logger.Warn().
				Err(err).
				Str("shop", shopDomain).
				Str("webhook_id", w.ID).
				Msg("Failed to delete remote webhook, skipping")
		}
	}

	if err := r.subs.DeleteByStore(ctx, storeID); err != nil {
		r.logger.Error().
			Err(err).
			Str("store_id", storeID).
			Msg("Failed to delete webhook subscription records")
	}
}
