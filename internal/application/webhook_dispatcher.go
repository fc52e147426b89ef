package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/domain"
	"orderdesk/internal/infrastructure/metrics"
	"orderdesk/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookDispatcher deduplicates, persists and routes inbound webhook events.
// The HTTP boundary has already acknowledged the delivery by the time Handle
// runs, so a handler failure is recorded for operator visibility and returned
// to the caller, but never surfaces to Shopify.
type WebhookDispatcher struct {
	stores  ports.StoreRepository
	orders  ports.OrderRepository
	events  ports.WebhookEventRepository
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewWebhookDispatcher creates a new webhook dispatcher.
func NewWebhookDispatcher(
	stores ports.StoreRepository,
	orders ports.OrderRepository,
	events ports.WebhookEventRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *WebhookDispatcher {
	return &WebhookDispatcher{
		stores:  stores,
		orders:  orders,
		events:  events,
		metrics: m,
		logger:  logger.With().Str("component", "webhook_dispatcher").Logger(),
	}
}

// Handle processes one verified webhook delivery. Duplicate deliveries (same
// store and remote webhook id) short-circuit silently: the unique constraint
// in the event store guarantees at-most-once handler execution per delivery,
// even when duplicates race.
func (d *WebhookDispatcher) Handle(ctx context.Context, store *domain.Store, topic domain.WebhookTopic, payload []byte, shopifyWebhookID string) error {
	start := time.Now()

	event := &domain.WebhookEvent{
		StoreID:          store.ID,
		Topic:            topic,
		ShopifyWebhookID: shopifyWebhookID,
		Payload:          json.RawMessage(payload),
	}

	if err := d.events.Insert(ctx, event); err != nil {
		if errors.Is(err, ports.ErrDuplicateEvent) {
			d.logger.Debug().
				Str("store_id", store.ID).
				Str("topic", topic.String()).
				Str("shopify_webhook_id", shopifyWebhookID).
				Msg("Duplicate webhook delivery ignored")
			d.metrics.WebhooksProcessed.WithLabelValues(topic.String(), "duplicate").Inc()
			return nil
		}
		return fmt.Errorf("failed to log webhook event: %w", err)
	}

	if err := d.dispatch(ctx, store, topic, payload); err != nil {
		d.logger.Error().
			Err(err).
			Str("store_id", store.ID).
			Str("topic", topic.String()).
			Str("event_id", event.ID).
			Msg("Webhook handler failed")
		if markErr := d.events.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			d.logger.Error().Err(markErr).Str("event_id", event.ID).Msg("Failed to record handler failure")
		}
		d.metrics.WebhooksProcessed.WithLabelValues(topic.String(), "failed").Inc()
		return err
	}

	if err := d.events.MarkProcessed(ctx, event.ID); err != nil {
		d.logger.Error().Err(err).Str("event_id", event.ID).Msg("Failed to mark event processed")
	}
	d.metrics.WebhooksProcessed.WithLabelValues(topic.String(), "processed").Inc()
	d.metrics.WebhookDuration.WithLabelValues(topic.String()).Observe(time.Since(start).Seconds())
	return nil
}

// dispatch routes by topic. The switch is exhaustive over the subscribed
// topic set; adding a topic constant without a case here should be caught in
// review, and unknown topics fall through to the logged no-op default.
func (d *WebhookDispatcher) dispatch(ctx context.Context, store *domain.Store, topic domain.WebhookTopic, payload []byte) error {
	switch topic {
	case domain.TopicOrdersCreate, domain.TopicOrdersUpdated:
		return d.upsertOrder(ctx, store, payload, false)

	case domain.TopicOrdersCancelled:
		return d.upsertOrder(ctx, store, payload, true)

	case domain.TopicAppUninstalled:
		return d.handleAppUninstalled(ctx, store)

	case domain.TopicFulfillmentsCreate, domain.TopicFulfillmentsUpdate:
		// Accepted and logged only. Fulfillment state tracking is deferred
		// until the courier integrations land.
		d.logger.Info().
			Str("store_id", store.ID).
			Str("topic", topic.String()).
			Msg("Fulfillment webhook received")
		return nil

	default:
		d.logger.Warn().
			Str("store_id", store.ID).
			Str("topic", topic.String()).
			Msg("Unrecognized webhook topic ignored")
		return nil
	}
}

func (d *WebhookDispatcher) upsertOrder(ctx context.Context, store *domain.Store, payload []byte, cancelled bool) error {
	order, err := mapShopifyOrder(store.ID, payload)
	if err != nil {
		return err
	}
	if cancelled && order.CancelledAt == nil {
		now := time.Now()
		order.CancelledAt = &now
	}
	now := time.Now()
	order.SyncedAt = &now

	if err := d.orders.Upsert(ctx, order); err != nil {
		return fmt.Errorf("failed to upsert order %s: %w", order.ShopifyOrderID, err)
	}

	d.logger.Info().
		Str("store_id", store.ID).
		Str("shopify_order_id", order.ShopifyOrderID).
		Bool("cancelled", order.CancelledAt != nil).
		Msg("Order upserted from webhook")
	return nil
}

// handleAppUninstalled clears the access token and scopes so the store reads
// as disconnected. Client credentials and the webhook secret are preserved:
// the merchant can reconnect without re-entering anything.
func (d *WebhookDispatcher) handleAppUninstalled(ctx context.Context, store *domain.Store) error {
	emptyToken := ""
	emptyScopes := []string{}
	update := &domain.StoreUpdate{
		AccessTokenEncrypted: &emptyToken,
		Scopes:               &emptyScopes,
	}
	if err := d.stores.UpdateUnscoped(ctx, store.ID, update); err != nil {
		return fmt.Errorf("failed to clear store credentials: %w", err)
	}

	d.logger.Info().
		Str("store_id", store.ID).
		Str("shopify_domain", store.ShopifyDomain).
		Msg("App uninstalled, store disconnected")
	return nil
}
