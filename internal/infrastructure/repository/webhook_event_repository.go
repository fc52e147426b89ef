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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWebhookEventRepository implements WebhookEventRepository using MongoDB.
type MongoWebhookEventRepository struct {
	collection *mongo.Collection
}

// NewMongoWebhookEventRepository creates a new MongoDB webhook event repository.
func NewMongoWebhookEventRepository(db *mongo.Database) ports.WebhookEventRepository {
	return &MongoWebhookEventRepository{
		collection: db.Collection("webhook_events"),
	}
}

// EnsureWebhookEventIndexes creates the partial unique index on
// (store, remote webhook id). The index is what makes deduplication safe
// under concurrent duplicate deliveries: two inserts cannot both win. Partial
// because the remote id is optional; events without one are never deduped.
func EnsureWebhookEventIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("webhook_events").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "storeId", Value: 1},
			{Key: "shopifyWebhookId", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"shopifyWebhookId": bson.M{"$type": "string"}}),
	})
	if err != nil {
		return fmt.Errorf("failed to create webhook event indexes: %w", err)
	}
	return nil
}

// Insert persists a new unprocessed event. Returns ErrDuplicateEvent when an
// event with the same (store, remote webhook id) already exists.
func (r *MongoWebhookEventRepository) Insert(ctx context.Context, event *domain.WebhookEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, entity.MongoWebhookEventDocFromDomain(event))
	if mongo.IsDuplicateKeyError(err) {
		return ports.ErrDuplicateEvent
	}
	if err != nil {
		return fmt.Errorf("failed to insert webhook event: %w", err)
	}
	return nil
}

// MarkProcessed flags the event as handled.
func (r *MongoWebhookEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	now := time.Now()
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{"$set": bson.M{"processed": true, "processedAt": now, "error": ""}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// MarkFailed records the handler error and bumps the retry count. The count
// is bookkeeping for operators; nothing in the service replays events.
func (r *MongoWebhookEventRepository) MarkFailed(ctx context.Context, eventID, errText string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{
			"$set": bson.M{"processed": false, "error": errText},
			"$inc": bson.M{"retryCount": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return nil
}

// ListByStore retrieves recent events for a store, newest first.
func (r *MongoWebhookEventRepository) ListByStore(ctx context.Context, storeID string, limit int) ([]*domain.WebhookEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"storeId": storeID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*domain.WebhookEvent
	for cursor.Next(ctx) {
		var doc entity.MongoWebhookEventDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode webhook event: %w", err)
		}
		events = append(events, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return events, nil
}
