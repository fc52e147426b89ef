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

// MongoOrderRepository implements OrderRepository using MongoDB.
type MongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a new MongoDB order repository.
func NewMongoOrderRepository(db *mongo.Database) ports.OrderRepository {
	return &MongoOrderRepository{
		collection: db.Collection("orders"),
	}
}

// EnsureOrderIndexes creates the unique (store, shopify order id) index the
// idempotent upsert relies on.
func EnsureOrderIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("orders").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "storeId", Value: 1},
			{Key: "shopifyOrderId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

// Upsert inserts or replaces the order keyed by (store, shopify order id).
// A true upsert, so duplicate webhook deliveries and overlapping manual syncs
// converge on the latest values regardless of arrival order.
func (r *MongoOrderRepository) Upsert(ctx context.Context, order *domain.Order) error {
	doc := entity.MongoOrderDocFromDomain(order)
	doc.UpdatedAt = time.Now()

	filter := bson.M{"storeId": order.StoreID, "shopifyOrderId": order.ShopifyOrderID}
	update := bson.M{
		"$set": bson.M{
			"shopifyOrderNumber": doc.ShopifyOrderNumber,
			"customerName":       doc.CustomerName,
			"customerEmail":      doc.CustomerEmail,
			"customerPhone":      doc.CustomerPhone,
			"shippingAddress":    doc.ShippingAddress,
			"lineItems":          doc.LineItems,
			"totalPrice":         doc.TotalPrice,
			"currency":           doc.Currency,
			"financialStatus":    doc.FinancialStatus,
			"fulfillmentStatus":  doc.FulfillmentStatus,
			"cancelledAt":        doc.CancelledAt,
			"shopifyCreatedAt":   doc.ShopifyCreatedAt,
			"syncedAt":           doc.SyncedAt,
			"updatedAt":          doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":       uuid.NewString(),
			"createdAt": doc.UpdatedAt,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}
	return nil
}

// GetByID retrieves an order that belongs to one of the given stores.
func (r *MongoOrderRepository) GetByID(ctx context.Context, orderID string, storeIDs []string) (*domain.Order, error) {
	var doc entity.MongoOrderDoc
	filter := bson.M{"_id": orderID, "storeId": bson.M{"$in": storeIDs}}
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return doc.ToDomain(), nil
}

// ListByStores retrieves orders for the given stores, newest first.
func (r *MongoOrderRepository) ListByStores(ctx context.Context, storeIDs []string, limit int) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"storeId": bson.M{"$in": storeIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc entity.MongoOrderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return orders, nil
}

// UpdateShipping attaches AWB/invoice identifiers to an order.
func (r *MongoOrderRepository) UpdateShipping(ctx context.Context, orderID string, storeIDs []string, update *domain.OrderShippingUpdate) (*domain.Order, error) {
	now := time.Now()
	set := bson.M{"updatedAt": now}
	if update.AWBNumber != nil {
		set["awbNumber"] = *update.AWBNumber
		set["awbCreatedAt"] = now
	}
	if update.AWBPDFURL != nil {
		set["awbPdfUrl"] = *update.AWBPDFURL
	}
	if update.InvoiceNumber != nil {
		set["invoiceNumber"] = *update.InvoiceNumber
		set["invoiceCreatedAt"] = now
	}
	if update.InvoicePDFURL != nil {
		set["invoicePdfUrl"] = *update.InvoicePDFURL
	}

	filter := bson.M{"_id": orderID, "storeId": bson.M{"$in": storeIDs}}
	var doc entity.MongoOrderDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order shipping: %w", err)
	}
	return doc.ToDomain(), nil
}

// CountByStores returns total and cancelled order counts for the stores.
func (r *MongoOrderRepository) CountByStores(ctx context.Context, storeIDs []string) (int, int, error) {
	filter := bson.M{"storeId": bson.M{"$in": storeIDs}}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	filter["cancelledAt"] = bson.M{"$ne": nil}
	cancelled, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count cancelled orders: %w", err)
	}
	return int(total), int(cancelled), nil
}
