package domain

import (
	"encoding/json"
	"time"
)

// WebhookTopic is the closed set of Shopify webhook topics this service
// subscribes to. The dispatcher switches over these constants so adding a
// topic is a compile-time-visible change.
type WebhookTopic string

const (
	TopicOrdersCreate       WebhookTopic = "orders/create"
	TopicOrdersUpdated      WebhookTopic = "orders/updated"
	TopicOrdersCancelled    WebhookTopic = "orders/cancelled"
	TopicFulfillmentsCreate WebhookTopic = "fulfillments/create"
	TopicFulfillmentsUpdate WebhookTopic = "fulfillments/update"
	TopicAppUninstalled     WebhookTopic = "app/uninstalled"
)

// SubscribedTopics is the fixed topic set registered against every connected
// store, in registration order.
var SubscribedTopics = []WebhookTopic{
	TopicOrdersCreate,
	TopicOrdersUpdated,
	TopicOrdersCancelled,
	TopicFulfillmentsCreate,
	TopicFulfillmentsUpdate,
	TopicAppUninstalled,
}

// Known reports whether the topic belongs to the subscribed set. Unknown
// topics are accepted and ignored, never treated as errors.
func (t WebhookTopic) Known() bool {
	switch t {
	case TopicOrdersCreate, TopicOrdersUpdated, TopicOrdersCancelled,
		TopicFulfillmentsCreate, TopicFulfillmentsUpdate, TopicAppUninstalled:
		return true
	}
	return false
}

func (t WebhookTopic) String() string { return string(t) }

// WebhookEvent is the durable log of one inbound webhook delivery. Events are
// created unprocessed, marked processed on handler success, marked failed
// (with the error text and a bumped retry count) on handler error, and never
// deleted.
type WebhookEvent struct {
	ID               string          `json:"id"`
	StoreID          string          `json:"store_id"`
	Topic            WebhookTopic    `json:"topic"`
	ShopifyWebhookID string          `json:"shopify_webhook_id,omitempty"`
	Payload          json.RawMessage `json:"payload"`
	Processed        bool            `json:"processed"`
	Error            string          `json:"error,omitempty"`
	RetryCount       int             `json:"retry_count"`
	CreatedAt        time.Time       `json:"created_at"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
}

// WebhookSubscription records one remote webhook registration for a store.
// There is exactly one record per (store, remote webhook id); superseded
// records are deleted before re-registration, not updated in place.
type WebhookSubscription struct {
	ID               string       `json:"id"`
	StoreID          string       `json:"store_id"`
	ShopifyWebhookID string       `json:"shopify_webhook_id"`
	Topic            WebhookTopic `json:"topic"`
	Address          string       `json:"address"`
	CreatedAt        time.Time    `json:"created_at"`
}
