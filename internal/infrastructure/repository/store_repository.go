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

// MongoStoreRepository implements StoreRepository using MongoDB.
type MongoStoreRepository struct {
	collection *mongo.Collection
}

// NewMongoStoreRepository creates a new MongoDB store repository.
func NewMongoStoreRepository(db *mongo.Database) ports.StoreRepository {
	return &MongoStoreRepository{
		collection: db.Collection("stores"),
	}
}

// EnsureStoreIndexes creates the unique shop-domain index. Domain uniqueness
// is global across tenants.
func EnsureStoreIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("stores").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "shopifyDomain", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create store indexes: %w", err)
	}
	return nil
}

// Create inserts a new store.
func (r *MongoStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	if store.ID == "" {
		store.ID = uuid.NewString()
	}
	now := time.Now()
	store.CreatedAt = now
	store.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, entity.MongoStoreDocFromDomain(store))
	if mongo.IsDuplicateKeyError(err) {
		return ports.ErrDuplicateDomain
	}
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	return nil
}

// GetByID retrieves a store owned by the given user.
func (r *MongoStoreRepository) GetByID(ctx context.Context, storeID, userID string) (*domain.Store, error) {
	return r.findOne(ctx, bson.M{"_id": storeID, "userId": userID})
}

// GetByDomain retrieves a store by shop domain without ownership scoping.
// This is the service-role path used by webhook processing, where no user
// session exists.
func (r *MongoStoreRepository) GetByDomain(ctx context.Context, shopifyDomain string) (*domain.Store, error) {
	return r.findOne(ctx, bson.M{"shopifyDomain": shopifyDomain})
}

func (r *MongoStoreRepository) findOne(ctx context.Context, filter bson.M) (*domain.Store, error) {
	var doc entity.MongoStoreDoc
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return doc.ToDomain(), nil
}

// ListByUser retrieves all stores owned by the user, newest first.
func (r *MongoStoreRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Store, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer cursor.Close(ctx)

	var stores []*domain.Store
	for cursor.Next(ctx) {
		var doc entity.MongoStoreDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode store: %w", err)
		}
		stores = append(stores, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return stores, nil
}

// Update applies a partial update to a store owned by the user and returns
// the updated row.
func (r *MongoStoreRepository) Update(ctx context.Context, storeID, userID string, update *domain.StoreUpdate) (*domain.Store, error) {
	filter := bson.M{"_id": storeID, "userId": userID}
	var doc entity.MongoStoreDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": updateFields(update)}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ports.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, ports.ErrDuplicateDomain
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update store: %w", err)
	}
	return doc.ToDomain(), nil
}

// UpdateUnscoped applies a partial update without ownership scoping. Used by
// webhook processing (e.g. clearing credentials on app/uninstalled).
func (r *MongoStoreRepository) UpdateUnscoped(ctx context.Context, storeID string, update *domain.StoreUpdate) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": storeID}, bson.M{"$set": updateFields(update)})
	if err != nil {
		return fmt.Errorf("failed to update store: %w", err)
	}
	if result.MatchedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Delete removes a store owned by the user.
func (r *MongoStoreRepository) Delete(ctx context.Context, storeID, userID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": storeID, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	if result.DeletedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func updateFields(update *domain.StoreUpdate) bson.M {
	set := bson.M{"updatedAt": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.ShopifyDomain != nil {
		set["shopifyDomain"] = *update.ShopifyDomain
	}
	if update.ClientIDEncrypted != nil {
		set["clientIdEncrypted"] = *update.ClientIDEncrypted
	}
	if update.ClientSecretEncrypted != nil {
		set["clientSecretEncrypted"] = *update.ClientSecretEncrypted
	}
	if update.AccessTokenEncrypted != nil {
		set["accessTokenEncrypted"] = *update.AccessTokenEncrypted
	}
	if update.Scopes != nil {
		set["scopes"] = *update.Scopes
	}
	if update.WebhookSecret != nil {
		set["webhookSecret"] = *update.WebhookSecret
	}
	if update.CourierProvider != nil {
		set["courierProvider"] = *update.CourierProvider
	}
	if update.InvoiceProvider != nil {
		set["invoiceProvider"] = *update.InvoiceProvider
	}
	if update.AutoFulfill != nil {
		set["autoFulfill"] = *update.AutoFulfill
	}
	return set
}
