package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/domain"
	"orderdesk/internal/infrastructure/metrics"
	"orderdesk/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrStoreNotConnected is returned when an operation needs an access token
// the store does not have.
var ErrStoreNotConnected = errors.New("store is not connected")

// OrderService implements the dashboard's order reads, manual sync and the
// shipping stub updates.
type OrderService struct {
	stores     ports.StoreRepository
	orders     ports.OrderRepository
	client     ports.ShopifyClient
	encryption ports.EncryptionService
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	stores ports.StoreRepository,
	orders ports.OrderRepository,
	client ports.ShopifyClient,
	enc ports.EncryptionService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *OrderService {
	return &OrderService{
		stores:     stores,
		orders:     orders,
		client:     client,
		encryption: enc,
		metrics:    m,
		logger:     logger.With().Str("component", "orders").Logger(),
	}
}

// List retrieves orders across the user's stores, newest first. A non-empty
// storeID narrows the result to that store after an ownership check.
func (s *OrderService) List(ctx context.Context, user *domain.User, storeID string, limit int) ([]*domain.Order, error) {
	storeIDs, err := s.visibleStoreIDs(ctx, user, storeID)
	if err != nil {
		return nil, err
	}
	if len(storeIDs) == 0 {
		return []*domain.Order{}, nil
	}
	return s.orders.ListByStores(ctx, storeIDs, limit)
}

// Get retrieves one order visible to the user.
func (s *OrderService) Get(ctx context.Context, user *domain.User, orderID string) (*domain.Order, error) {
	storeIDs, err := s.visibleStoreIDs(ctx, user, "")
	if err != nil {
		return nil, err
	}
	if len(storeIDs) == 0 {
		return nil, ports.ErrNotFound
	}
	return s.orders.GetByID(ctx, orderID, storeIDs)
}

// UpdateShipping attaches AWB and invoice identifiers to an order. These are
// local bookkeeping fields; no courier or invoicing provider is called.
func (s *OrderService) UpdateShipping(ctx context.Context, user *domain.User, orderID string, update *domain.OrderShippingUpdate) (*domain.Order, error) {
	storeIDs, err := s.visibleStoreIDs(ctx, user, "")
	if err != nil {
		return nil, err
	}
	if len(storeIDs) == 0 {
		return nil, ports.ErrNotFound
	}
	return s.orders.UpdateShipping(ctx, orderID, storeIDs, update)
}

// Sync pulls recent orders from the Shopify Admin API and applies the same
// idempotent upsert the webhook path uses. Returns the number of orders
// upserted.
func (s *OrderService) Sync(ctx context.Context, user *domain.User, storeID string) (int, error) {
	store, err := s.stores.GetByID(ctx, storeID, user.ID)
	if err != nil {
		return 0, err
	}
	if !store.Connected() {
		return 0, fmt.Errorf("store %s: %w", storeID, ErrStoreNotConnected)
	}

	var token string
	if err := s.encryption.Decrypt(store.AccessTokenEncrypted, &token); err != nil {
		return 0, fmt.Errorf("failed to decrypt access token: %w", err)
	}

	payloads, err := s.client.ListOrders(ctx, store.ShopifyDomain, token, 250)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	synced := 0
	now := time.Now()
	for _, payload := range payloads {
		order, err := mapShopifyOrder(store.ID, payload)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("store_id", store.ID).
				Msg("Skipping unmappable order payload")
			continue
		}
		order.SyncedAt = &now
		if err := s.orders.Upsert(ctx, order); err != nil {
			return synced, fmt.Errorf("failed to upsert order %s: %w", order.ShopifyOrderID, err)
		}
		synced++
	}

	s.metrics.OrdersSynced.Add(float64(synced))
	s.logger.Info().
		Str("store_id", store.ID).
		Int("synced", synced).
		Msg("Manual order sync finished")
	return synced, nil
}

// Stats aggregates the dashboard landing numbers. Revenue is summed per
// currency with exact decimal arithmetic over the stored price strings;
// cancelled orders are excluded.
func (s *OrderService) Stats(ctx context.Context, user *domain.User) (*domain.DashboardStats, error) {
	stores, err := s.stores.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	stats := &domain.DashboardStats{Revenue: map[string]string{}}
	stats.StoreCount = len(stores)

	storeIDs := make([]string, 0, len(stores))
	for _, store := range stores {
		storeIDs = append(storeIDs, store.ID)
		if store.Connected() {
			stats.ConnectedStores++
		}
	}
	if len(storeIDs) == 0 {
		return stats, nil
	}

	total, cancelled, err := s.orders.CountByStores(ctx, storeIDs)
	if err != nil {
		return nil, err
	}
	stats.OrderCount = total
	stats.CancelledOrders = cancelled

	orders, err := s.orders.ListByStores(ctx, storeIDs, 0)
	if err != nil {
		return nil, err
	}
	revenue := map[string]decimal.Decimal{}
	for _, order := range orders {
		if order.CancelledAt != nil || order.TotalPrice == "" {
			continue
		}
		amount, err := decimal.NewFromString(order.TotalPrice)
		if err != nil {
			s.logger.Warn().
				Str("order_id", order.ID).
				Str("total_price", order.TotalPrice).
				Msg("Skipping order with unparsable total price")
			continue
		}
		revenue[order.Currency] = revenue[order.Currency].Add(amount)
	}
	for currency, sum := range revenue {
		stats.Revenue[currency] = sum.String()
	}

	return stats, nil
}

func (s *OrderService) visibleStoreIDs(ctx context.Context, user *domain.User, storeID string) ([]string, error) {
	if storeID != "" {
		store, err := s.stores.GetByID(ctx, storeID, user.ID)
		if err != nil {
			return nil, err
		}
		return []string{store.ID}, nil
	}

	stores, err := s.stores.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(stores))
	for _, store := range stores {
		ids = append(ids, store.ID)
	}
	return ids, nil
}
