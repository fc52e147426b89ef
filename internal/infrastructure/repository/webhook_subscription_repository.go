package repository

import (
	"context"
	"fmt"
	"time"

	"orderdesk/internal/domain"
	"orderdesk/internal/infrastructure/repository/entity"
	"orderdesk/internal/ports"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoWebhookSubscriptionRepository implements WebhookSubscriptionRepository
// using MongoDB.
type MongoWebhookSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoWebhookSubscriptionRepository creates a new MongoDB webhook
// subscription repository.
func NewMongoWebhookSubscriptionRepository(db *mongo.Database) ports.WebhookSubscriptionRepository {
	return &MongoWebhookSubscriptionRepository{
		collection: db.Collection("webhook_subscriptions"),
	}
}

// Replace deletes all subscription records for the store and inserts the new
// set. Superseded records are removed, never updated in place.
func (r *MongoWebhookSubscriptionRepository) Replace(ctx context.Context, storeID string, subs []*domain.WebhookSubscription) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"storeId": storeID}); err != nil {
		return fmt.Errorf("failed to delete superseded subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(subs))
	for _, sub := range subs {
		if sub.ID == "" {
			sub.ID = uuid.NewString()
		}
		if sub.CreatedAt.IsZero() {
			sub.CreatedAt = time.Now()
		}
		docs = append(docs, entity.MongoWebhookSubscriptionDocFromDomain(sub))
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert subscriptions: %w", err)
	}
	return nil
}

// ListByStore retrieves the subscription records for a store.
func (r *MongoWebhookSubscriptionRepository) ListByStore(ctx context.Context, storeID string) ([]*domain.WebhookSubscription, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"storeId": storeID})
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []*domain.WebhookSubscription
	for cursor.Next(ctx) {
		var doc entity.MongoWebhookSubscriptionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		subs = append(subs, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return subs, nil
}

// DeleteByStore removes all subscription records for a store.
func (r *MongoWebhookSubscriptionRepository) DeleteByStore(ctx context.Context, storeID string) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"storeId": storeID}); err != nil {
		return fmt.Errorf("failed to delete subscriptions: %w", err)
	}
	return nil
}
