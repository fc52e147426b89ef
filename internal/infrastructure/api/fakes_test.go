package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"orderdesk/internal/domain"
	"orderdesk/internal/ports"
)

type fakeAuthProvider struct {
	user *domain.User
}

func (p *fakeAuthProvider) UserFromRequest(_ context.Context, r *http.Request) (*domain.User, error) {
	if r.Header.Get("Authorization") == "" {
		return nil, fmt.Errorf("unauthorized")
	}
	return p.user, nil
}

type fakeStoreRepo struct {
	mu     sync.Mutex
	stores map[string]*domain.Store
	nextID int
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{stores: map[string]*domain.Store{}}
}

func (r *fakeStoreRepo) Create(_ context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.stores {
		if existing.ShopifyDomain == store.ShopifyDomain {
			return ports.ErrDuplicateDomain
		}
	}
	if store.ID == "" {
		r.nextID++
		store.ID = fmt.Sprintf("store-%d", r.nextID)
	}
	clone := *store
	r.stores[store.ID] = &clone
	return nil
}

func (r *fakeStoreRepo) GetByID(_ context.Context, storeID, userID string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[storeID]
	if !ok || store.UserID != userID {
		return nil, ports.ErrNotFound
	}
	clone := *store
	return &clone, nil
}

func (r *fakeStoreRepo) GetByDomain(_ context.Context, shopifyDomain string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, store := range r.stores {
		if store.ShopifyDomain == shopifyDomain {
			clone := *store
			return &clone, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *fakeStoreRepo) ListByUser(_ context.Context, userID string) ([]*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Store
	for _, store := range r.stores {
		if store.UserID == userID {
			clone := *store
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeStoreRepo) Update(_ context.Context, storeID, userID string, update *domain.StoreUpdate) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[storeID]
	if !ok || store.UserID != userID {
		return nil, ports.ErrNotFound
	}
	applyUpdate(store, update)
	clone := *store
	return &clone, nil
}

func (r *fakeStoreRepo) UpdateUnscoped(_ context.Context, storeID string, update *domain.StoreUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[storeID]
	if !ok {
		return ports.ErrNotFound
	}
	applyUpdate(store, update)
	return nil
}

func (r *fakeStoreRepo) Delete(_ context.Context, storeID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[storeID]
	if !ok || store.UserID != userID {
		return ports.ErrNotFound
	}
	delete(r.stores, storeID)
	return nil
}

func applyUpdate(store *domain.Store, update *domain.StoreUpdate) {
	if update.Name != nil {
		store.Name = *update.Name
	}
	if update.ShopifyDomain != nil {
		store.ShopifyDomain = *update.ShopifyDomain
	}
	if update.ClientIDEncrypted != nil {
		store.ClientIDEncrypted = *update.ClientIDEncrypted
	}
	if update.ClientSecretEncrypted != nil {
		store.ClientSecretEncrypted = *update.ClientSecretEncrypted
	}
	if update.AccessTokenEncrypted != nil {
		store.AccessTokenEncrypted = *update.AccessTokenEncrypted
	}
	if update.Scopes != nil {
		store.Scopes = append([]string(nil), (*update.Scopes)...)
	}
	if update.WebhookSecret != nil {
		store.WebhookSecret = *update.WebhookSecret
	}
	if update.AutoFulfill != nil {
		store.AutoFulfill = *update.AutoFulfill
	}
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	nextID int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*domain.Order{}}
}

func (r *fakeOrderRepo) Upsert(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := order.StoreID + "|" + order.ShopifyOrderID
	if existing, ok := r.orders[key]; ok {
		order.ID = existing.ID
	} else {
		r.nextID++
		order.ID = fmt.Sprintf("order-%d", r.nextID)
	}
	clone := *order
	r.orders[key] = &clone
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID string, storeIDs []string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.ID == orderID && contains(storeIDs, order.StoreID) {
			clone := *order
			return &clone, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *fakeOrderRepo) ListByStores(_ context.Context, storeIDs []string, limit int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, order := range r.orders {
		if contains(storeIDs, order.StoreID) {
			clone := *order
			out = append(out, &clone)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateShipping(_ context.Context, orderID string, storeIDs []string, update *domain.OrderShippingUpdate) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.ID != orderID || !contains(storeIDs, order.StoreID) {
			continue
		}
		if update.AWBNumber != nil {
			order.AWBNumber = *update.AWBNumber
		}
		if update.InvoiceNumber != nil {
			order.InvoiceNumber = *update.InvoiceNumber
		}
		clone := *order
		return &clone, nil
	}
	return nil, ports.ErrNotFound
}

func (r *fakeOrderRepo) CountByStores(_ context.Context, storeIDs []string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total, cancelled := 0, 0
	for _, order := range r.orders {
		if contains(storeIDs, order.StoreID) {
			total++
			if order.CancelledAt != nil {
				cancelled++
			}
		}
	}
	return total, cancelled, nil
}

// countFor reports the number of stored orders for a store, for polling the
// async webhook dispatch.
func (r *fakeOrderRepo) countFor(storeID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, order := range r.orders {
		if order.StoreID == storeID {
			n++
		}
	}
	return n
}

func (r *fakeOrderRepo) byShopifyID(storeID, shopifyOrderID string) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[storeID+"|"+shopifyOrderID]; ok {
		clone := *order
		return &clone
	}
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*domain.WebhookEvent
	seen   map[string]bool
	nextID int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{seen: map[string]bool{}}
}

func (r *fakeEventRepo) Insert(_ context.Context, event *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ShopifyWebhookID != "" {
		key := event.StoreID + "|" + event.ShopifyWebhookID
		if r.seen[key] {
			return ports.ErrDuplicateEvent
		}
		r.seen[key] = true
	}
	r.nextID++
	event.ID = fmt.Sprintf("event-%d", r.nextID)
	event.CreatedAt = time.Now()
	clone := *event
	r.events = append(r.events, &clone)
	return nil
}

func (r *fakeEventRepo) MarkProcessed(_ context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.ID == eventID {
			event.Processed = true
			return nil
		}
	}
	return ports.ErrNotFound
}

func (r *fakeEventRepo) MarkFailed(_ context.Context, eventID, errText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.ID == eventID {
			event.Error = errText
			event.RetryCount++
			return nil
		}
	}
	return ports.ErrNotFound
}

func (r *fakeEventRepo) ListByStore(_ context.Context, storeID string, limit int) ([]*domain.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WebhookEvent
	for _, event := range r.events {
		if event.StoreID == storeID {
			clone := *event
			out = append(out, &clone)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeEventRepo) count(storeID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, event := range r.events {
		if event.StoreID == storeID {
			n++
		}
	}
	return n
}

type fakeSubsRepo struct {
	mu   sync.Mutex
	subs map[string][]*domain.WebhookSubscription
}

func newFakeSubsRepo() *fakeSubsRepo {
	return &fakeSubsRepo{subs: map[string][]*domain.WebhookSubscription{}}
}

func (r *fakeSubsRepo) Replace(_ context.Context, storeID string, subs []*domain.WebhookSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[storeID] = append([]*domain.WebhookSubscription(nil), subs...)
	return nil
}

func (r *fakeSubsRepo) ListByStore(_ context.Context, storeID string) ([]*domain.WebhookSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.WebhookSubscription(nil), r.subs[storeID]...), nil
}

func (r *fakeSubsRepo) DeleteByStore(_ context.Context, storeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, storeID)
	return nil
}

type fakeShopifyClient struct {
	mu            sync.Mutex
	token         string
	grantedScopes []string
	nextWebhookID int
}

func (c *fakeShopifyClient) AuthorizeURL(shopDomain, clientID, redirectURI, state string) string {
	return fmt.Sprintf("https://%s/admin/oauth/authorize?client_id=%s&state=%s", shopDomain, clientID, state)
}

func (c *fakeShopifyClient) ExchangeToken(_ context.Context, _, _, _, _ string) (string, string, error) {
	return c.token, "", nil
}

func (c *fakeShopifyClient) GrantedScopes(_ context.Context, _, _ string) []string {
	return append([]string(nil), c.grantedScopes...)
}

func (c *fakeShopifyClient) VerifyToken(_ context.Context, _, _ string) error { return nil }

func (c *fakeShopifyClient) CreateWebhook(_ context.Context, _, _ string, topic domain.WebhookTopic, address string) (*ports.RemoteWebhook, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextWebhookID++
	return &ports.RemoteWebhook{ID: fmt.Sprintf("%d", c.nextWebhookID), Topic: topic.String(), Address: address}, nil
}

func (c *fakeShopifyClient) ListWebhooks(_ context.Context, _, _ string) ([]ports.RemoteWebhook, error) {
	return nil, nil
}

func (c *fakeShopifyClient) DeleteWebhook(_ context.Context, _, _, _ string) error { return nil }

func (c *fakeShopifyClient) ListOrders(_ context.Context, _, _ string, _ int) ([]json.RawMessage, error) {
	return nil, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
