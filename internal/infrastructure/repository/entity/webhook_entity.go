package entity

import (
	"encoding/json"
	"time"

	"orderdesk/internal/domain"
)

// MongoWebhookEventDoc represents one inbound webhook delivery in MongoDB.
type MongoWebhookEventDoc struct {
	ID               string     `bson:"_id"`
	StoreID          string     `bson:"storeId"`
	Topic            string     `bson:"topic"`
	ShopifyWebhookID string     `bson:"shopifyWebhookId,omitempty"`
	Payload          []byte     `bson:"payload"`
	Processed        bool       `bson:"processed"`
	Error            string     `bson:"error,omitempty"`
	RetryCount       int        `bson:"retryCount"`
	CreatedAt        time.Time  `bson:"createdAt"`
	ProcessedAt      *time.Time `bson:"processedAt,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoWebhookEventDoc) ToDomain() *domain.WebhookEvent {
	return &domain.WebhookEvent{
		ID:               d.ID,
		StoreID:          d.StoreID,
		Topic:            domain.WebhookTopic(d.Topic),
		ShopifyWebhookID: d.ShopifyWebhookID,
		Payload:          json.RawMessage(d.Payload),
		Processed:        d.Processed,
		Error:            d.Error,
		RetryCount:       d.RetryCount,
		CreatedAt:        d.CreatedAt,
		ProcessedAt:      d.ProcessedAt,
	}
}

// MongoWebhookEventDocFromDomain converts a domain entity to a MongoDB document.
func MongoWebhookEventDocFromDomain(event *domain.WebhookEvent) *MongoWebhookEventDoc {
	return &MongoWebhookEventDoc{
		ID:               event.ID,
		StoreID:          event.StoreID,
		Topic:            event.Topic.String(),
		ShopifyWebhookID: event.ShopifyWebhookID,
		Payload:          []byte(event.Payload),
		Processed:        event.Processed,
		Error:            event.Error,
		RetryCount:       event.RetryCount,
		CreatedAt:        event.CreatedAt,
		ProcessedAt:      event.ProcessedAt,
	}
}

// MongoWebhookSubscriptionDoc represents a remote webhook registration record.
type MongoWebhookSubscriptionDoc struct {
	ID               string    `bson:"_id"`
	StoreID          string    `bson:"storeId"`
	ShopifyWebhookID string    `bson:"shopifyWebhookId"`
	Topic            string    `bson:"topic"`
	Address          string    `bson:"address"`
	CreatedAt        time.Time `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoWebhookSubscriptionDoc) ToDomain() *domain.WebhookSubscription {
	return &domain.WebhookSubscription{
		ID:               d.ID,
		StoreID:          d.StoreID,
		ShopifyWebhookID: d.ShopifyWebhookID,
		Topic:            domain.WebhookTopic(d.Topic),
		Address:          d.Address,
		CreatedAt:        d.CreatedAt,
	}
}

// MongoWebhookSubscriptionDocFromDomain converts a domain entity to a MongoDB document.
func MongoWebhookSubscriptionDocFromDomain(sub *domain.WebhookSubscription) *MongoWebhookSubscriptionDoc {
	return &MongoWebhookSubscriptionDoc{
		ID:               sub.ID,
		StoreID:          sub.StoreID,
		ShopifyWebhookID: sub.ShopifyWebhookID,
		Topic:            sub.Topic.String(),
		Address:          sub.Address,
		CreatedAt:        sub.CreatedAt,
	}
}
