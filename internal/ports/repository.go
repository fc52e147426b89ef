package ports

import (
	"context"
	"errors"

	"orderdesk/internal/domain"
)

// ErrNotFound is returned by repositories when a row does not exist or is not
// visible to the requesting user.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEvent is returned by WebhookEventRepository.Insert when an event
// with the same (store, shopify webhook id) already exists. It is a
// control-flow signal, not a failure: callers short-circuit silently.
var ErrDuplicateEvent = errors.New("duplicate webhook event")

// ErrDuplicateDomain is returned when a store insert would violate the global
// uniqueness of the shop domain.
var ErrDuplicateDomain = errors.New("shop domain already registered")

// StoreRepository persists stores. Read and write operations that carry a
// userID are ownership-scoped; the *ByDomain / *Unscoped variants are the
// service-role path used by webhook processing, where no user session exists.
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) error
	GetByID(ctx context.Context, storeID, userID string) (*domain.Store, error)
	GetByDomain(ctx context.Context, shopifyDomain string) (*domain.Store, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Store, error)
	Update(ctx context.Context, storeID, userID string, update *domain.StoreUpdate) (*domain.Store, error)
	UpdateUnscoped(ctx context.Context, storeID string, update *domain.StoreUpdate) error
	Delete(ctx context.Context, storeID, userID string) error
}

// OrderRepository persists the local order mirror.
type OrderRepository interface {
	// Upsert inserts or replaces the order keyed by (store_id,
	// shopify_order_id). Arrival order of duplicate deliveries must not
	// matter; the latest call wins.
	Upsert(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, orderID string, storeIDs []string) (*domain.Order, error)
	ListByStores(ctx context.Context, storeIDs []string, limit int) ([]*domain.Order, error)
	UpdateShipping(ctx context.Context, orderID string, storeIDs []string, update *domain.OrderShippingUpdate) (*domain.Order, error)
	CountByStores(ctx context.Context, storeIDs []string) (total int, cancelled int, err error)
}

// WebhookEventRepository persists the webhook delivery log. Insert enforces
// uniqueness of (store_id, shopify_webhook_id) at the storage layer and
// returns ErrDuplicateEvent on conflict, so concurrent duplicate deliveries
// cannot both claim the event.
type WebhookEventRepository interface {
	Insert(ctx context.Context, event *domain.WebhookEvent) error
	MarkProcessed(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID, errText string) error
	ListByStore(ctx context.Context, storeID string, limit int) ([]*domain.WebhookEvent, error)
}

// WebhookSubscriptionRepository persists remote webhook registration records.
type WebhookSubscriptionRepository interface {
	// Replace deletes all records for the store and inserts the given set.
	Replace(ctx context.Context, storeID string, subs []*domain.WebhookSubscription) error
	ListByStore(ctx context.Context, storeID string) ([]*domain.WebhookSubscription, error)
	DeleteByStore(ctx context.Context, storeID string) error
}
