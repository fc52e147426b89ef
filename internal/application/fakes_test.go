package application_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"orderdesk/internal/domain"
	"orderdesk/internal/ports"
)

// In-memory fakes for the repository and client ports. They mirror the
// storage-layer contracts the services rely on, including the unique-key
// behavior of the webhook event log.

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
	store.CreatedAt = time.Now()
	store.UpdatedAt = store.CreatedAt
	r.stores[store.ID] = cloneStore(store)
	return nil
}

func (r *fakeStoreRepo) GetByID(_ context.Context, storeID, userID string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[storeID]
	if !ok || store.UserID != userID {
		return nil, ports.ErrNotFound
	}
	return cloneStore(store), nil
}

func (r *fakeStoreRepo) GetByDomain(_ context.Context, shopifyDomain string) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, store := range r.stores {
		if store.ShopifyDomain == shopifyDomain {
			return cloneStore(store), nil
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
			out = append(out, cloneStore(store))
		}
	}
	return out, nil
}

func (r *fakeStoreRepo) Update(ctx context.Context, storeID, userID string, update *domain.StoreUpdate) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[storeID]
	if !ok || store.UserID != userID {
		return nil, ports.ErrNotFound
	}
	applyStoreUpdate(store, update)
	return cloneStore(store), nil
}

func (r *fakeStoreRepo) UpdateUnscoped(_ context.Context, storeID string, update *domain.StoreUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[storeID]
	if !ok {
		return ports.ErrNotFound
	}
	applyStoreUpdate(store, update)
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

func applyStoreUpdate(store *domain.Store, update *domain.StoreUpdate) {
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
	if update.CourierProvider != nil {
		store.CourierProvider = *update.CourierProvider
	}
	if update.InvoiceProvider != nil {
		store.InvoiceProvider = *update.InvoiceProvider
	}
	if update.AutoFulfill != nil {
		store.AutoFulfill = *update.AutoFulfill
	}
	store.UpdatedAt = time.Now()
}

func cloneStore(s *domain.Store) *domain.Store {
	c := *s
	c.Scopes = append([]string(nil), s.Scopes...)
	return &c
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order // keyed by storeID|shopifyOrderID
	nextID int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*domain.Order{}}
}

func orderKey(storeID, shopifyOrderID string) string {
	return storeID + "|" + shopifyOrderID
}

func (r *fakeOrderRepo) Upsert(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := orderKey(order.StoreID, order.ShopifyOrderID)
	if existing, ok := r.orders[key]; ok {
		order.ID = existing.ID
		order.CreatedAt = existing.CreatedAt
	} else {
		r.nextID++
		order.ID = fmt.Sprintf("order-%d", r.nextID)
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = time.Now()
	clone := *order
	r.orders[key] = &clone
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID string, storeIDs []string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.ID == orderID && containsString(storeIDs, order.StoreID) {
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
		if containsString(storeIDs, order.StoreID) {
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
		if order.ID != orderID || !containsString(storeIDs, order.StoreID) {
			continue
		}
		now := time.Now()
		if update.AWBNumber != nil {
			order.AWBNumber = *update.AWBNumber
			order.AWBCreatedAt = &now
		}
		if update.AWBPDFURL != nil {
			order.AWBPDFURL = *update.AWBPDFURL
		}
		if update.InvoiceNumber != nil {
			order.InvoiceNumber = *update.InvoiceNumber
			order.InvoiceCreatedAt = &now
		}
		if update.InvoicePDFURL != nil {
			order.InvoicePDFURL = *update.InvoicePDFURL
		}
		order.UpdatedAt = now
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
		if containsString(storeIDs, order.StoreID) {
			total++
			if order.CancelledAt != nil {
				cancelled++
			}
		}
	}
	return total, cancelled, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*domain.WebhookEvent
	seen   map[string]bool // storeID|shopifyWebhookID
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
			now := time.Now()
			event.Processed = true
			event.ProcessedAt = &now
			event.Error = ""
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
			event.Processed = false
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

// fakeShopifyClient scripts the Admin API surface per test.
type fakeShopifyClient struct {
	mu sync.Mutex

	exchangeErr    error
	token          string
	tokenScope     string
	grantedScopes  []string
	createErr      map[domain.WebhookTopic]error
	alreadyTaken   map[domain.WebhookTopic]bool
	remoteWebhooks []ports.RemoteWebhook
	listErr        error
	deleteErr      map[string]error
	orderPayloads  []json.RawMessage
	listOrdersErr  error

	exchangedCodes  []string
	createdTopics   []domain.WebhookTopic
	deletedWebhooks []string
	nextWebhookID   int
}

func newFakeShopifyClient() *fakeShopifyClient {
	return &fakeShopifyClient{
		token:        "shpat_test_token",
		createErr:    map[domain.WebhookTopic]error{},
		alreadyTaken: map[domain.WebhookTopic]bool{},
		deleteErr:    map[string]error{},
	}
}

func (c *fakeShopifyClient) AuthorizeURL(shopDomain, clientID, redirectURI, state string) string {
	return fmt.Sprintf("https://%s/admin/oauth/authorize?client_id=%s&redirect_uri=%s&state=%s", shopDomain, clientID, redirectURI, state)
}

func (c *fakeShopifyClient) ExchangeToken(_ context.Context, _, _, _, code string) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exchangeErr != nil {
		return "", "", c.exchangeErr
	}
	c.exchangedCodes = append(c.exchangedCodes, code)
	return c.token, c.tokenScope, nil
}

func (c *fakeShopifyClient) GrantedScopes(_ context.Context, _, _ string) []string {
	return append([]string(nil), c.grantedScopes...)
}

func (c *fakeShopifyClient) VerifyToken(_ context.Context, _, _ string) error {
	return nil
}

func (c *fakeShopifyClient) CreateWebhook(_ context.Context, _, _ string, topic domain.WebhookTopic, address string) (*ports.RemoteWebhook, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.createErr[topic]; err != nil {
		return nil, err
	}
	if c.alreadyTaken[topic] {
		return nil, nil
	}
	c.createdTopics = append(c.createdTopics, topic)
	c.nextWebhookID++
	return &ports.RemoteWebhook{
		ID:      fmt.Sprintf("%d", 1000+c.nextWebhookID),
		Topic:   topic.String(),
		Address: address,
	}, nil
}

func (c *fakeShopifyClient) ListWebhooks(_ context.Context, _, _ string) ([]ports.RemoteWebhook, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]ports.RemoteWebhook(nil), c.remoteWebhooks...), nil
}

func (c *fakeShopifyClient) DeleteWebhook(_ context.Context, _, _, webhookID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.deleteErr[webhookID]; err != nil {
		return err
	}
	c.deletedWebhooks = append(c.deletedWebhooks, webhookID)
	return nil
}

func (c *fakeShopifyClient) ListOrders(_ context.Context, _, _ string, _ int) ([]json.RawMessage, error) {
	if c.listOrdersErr != nil {
		return nil, c.listOrdersErr
	}
	return append([]json.RawMessage(nil), c.orderPayloads...), nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
