package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"orderdesk/internal/domain"
	"orderdesk/internal/infrastructure/shopify"
	"orderdesk/internal/ports"
)

// dispatchTimeout bounds the detached processing goroutine, not the request:
// the 200 has already been written when dispatch starts.
const dispatchTimeout = 30 * time.Second

// handleWebhook is the generic inbound webhook endpoint. It acknowledges with
// 200 as soon as the delivery is authenticated and persists/processes the
// event asynchronously, so Shopify's retry timer is never gated on local
// processing time.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	shopDomain := r.Header.Get("X-Shopify-Shop-Domain")
	topic := r.Header.Get("X-Shopify-Topic")
	if shopDomain == "" || topic == "" {
		writeError(w, http.StatusBadRequest, "missing shop or topic header")
		return
	}

	// The raw bytes are read before any parsing: the signature covers the
	// body exactly as sent, and re-serialization would break it.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	store, err := h.stores.GetByDomain(r.Context(), shopDomain)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			h.logger.Warn().Str("shop", shopDomain).Msg("Webhook for unknown shop domain")
			h.metrics.WebhooksReceived.WithLabelValues(topic, "unknown_shop").Inc()
			writeError(w, http.StatusNotFound, "unknown shop domain")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	secret, ok := h.resolveWebhookSecret(store)
	if !ok {
		h.logger.Error().Str("store_id", store.ID).Msg("No signing secret configured for store")
		h.metrics.WebhooksReceived.WithLabelValues(topic, "no_secret").Inc()
		writeError(w, http.StatusInternalServerError, "no signing secret configured")
		return
	}

	signature := r.Header.Get("X-Shopify-Hmac-Sha256")
	if !shopify.VerifyWebhook(body, signature, secret) {
		h.logger.Warn().
			Str("store_id", store.ID).
			Str("topic", topic).
			Msg("Webhook signature verification failed")
		h.metrics.WebhooksReceived.WithLabelValues(topic, "invalid_signature").Inc()
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	h.metrics.WebhooksReceived.WithLabelValues(topic, "accepted").Inc()
	webhookID := r.Header.Get("X-Shopify-Webhook-Id")

	// ACK before processing. The dispatcher owns failure bookkeeping from
	// here; a processing error is operator-visible only.
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := h.dispatcher.Handle(ctx, store, domain.WebhookTopic(topic), body, webhookID); err != nil {
			h.logger.Error().
				Err(err).
				Str("store_id", store.ID).
				Str("topic", topic).
				Msg("Async webhook processing failed")
		}
	}()
}

// resolveWebhookSecret picks the signing secret: the store's decrypted client
// secret when present, then the generated webhook secret as fallback.
func (h *Handler) resolveWebhookSecret(store *domain.Store) (string, bool) {
	if store.ClientSecretEncrypted != "" {
		var secret string
		if err := h.encryption.Decrypt(store.ClientSecretEncrypted, &secret); err != nil {
			h.logger.Error().
				Err(err).
				Str("store_id", store.ID).
				Msg("Failed to decrypt client secret for webhook verification")
		} else if secret != "" {
			return secret, true
		}
	}
	if store.WebhookSecret != "" {
		return store.WebhookSecret, true
	}
	return "", false
}
