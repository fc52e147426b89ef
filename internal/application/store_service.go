package application

import (
	"context"
	"fmt"
	"strings"

	"orderdesk/internal/domain"
	"orderdesk/internal/ports"

	"github.com/rs/zerolog"
)

// StoreInput carries the fields a merchant submits when registering a store.
// Credentials arrive in plaintext and are encrypted before persistence.
type StoreInput struct {
	Name          string `json:"name"`
	ShopifyDomain string `json:"shopify_domain"`
	ClientID      string `json:"shopify_client_id"`
	ClientSecret  string `json:"shopify_client_secret"`
}

// StoreUpdateInput carries partial store edits. Nil fields are untouched.
type StoreUpdateInput struct {
	Name          *string `json:"name"`
	ShopifyDomain *string `json:"shopify_domain"`
	ClientID      *string `json:"shopify_client_id"`
	ClientSecret  *string `json:"shopify_client_secret"`
	AutoFulfill   *bool   `json:"auto_fulfill"`
}

// StoreService implements the ownership-scoped store CRUD and the disconnect
// flow.
type StoreService struct {
	stores     ports.StoreRepository
	encryption ports.EncryptionService
	registrar  *WebhookRegistrar
	logger     zerolog.Logger
}

// NewStoreService creates a new store service.
func NewStoreService(stores ports.StoreRepository, enc ports.EncryptionService, registrar *WebhookRegistrar, logger zerolog.Logger) *StoreService {
	return &StoreService{
		stores:     stores,
		encryption: enc,
		registrar:  registrar,
		logger:     logger.With().Str("component", "stores").Logger(),
	}
}

// Create registers a new store for the user. The shop domain is globally
// unique; ErrDuplicateDomain surfaces when another tenant already claimed it.
func (s *StoreService) Create(ctx context.Context, user *domain.User, input *StoreInput) (*domain.Store, error) {
	name := strings.TrimSpace(input.Name)
	shopDomain := normalizeShopDomain(input.ShopifyDomain)
	if name == "" || shopDomain == "" {
		return nil, fmt.Errorf("name and shopify_domain are required")
	}

	store := &domain.Store{
		UserID:        user.ID,
		Name:          name,
		ShopifyDomain: shopDomain,
	}

	var err error
	if input.ClientID != "" {
		if store.ClientIDEncrypted, err = s.encryption.Encrypt(input.ClientID); err != nil {
			return nil, fmt.Errorf("failed to encrypt client id: %w", err)
		}
	}
	if input.ClientSecret != "" {
		if store.ClientSecretEncrypted, err = s.encryption.Encrypt(input.ClientSecret); err != nil {
			return nil, fmt.Errorf("failed to encrypt client secret: %w", err)
		}
	}

	if err := s.stores.Create(ctx, store); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("store_id", store.ID).
		Str("shop", store.ShopifyDomain).
		Msg("Store created")
	return store, nil
}

// Get retrieves one store the user owns.
func (s *StoreService) Get(ctx context.Context, user *domain.User, storeID string) (*domain.Store, error) {
	return s.stores.GetByID(ctx, storeID, user.ID)
}

// List retrieves the user's stores.
func (s *StoreService) List(ctx context.Context, user *domain.User) ([]*domain.Store, error) {
	return s.stores.ListByUser(ctx, user.ID)
}

// Update applies partial edits to a store the user owns. Supplying new client
// credentials replaces the encrypted blobs.
func (s *StoreService) Update(ctx context.Context, user *domain.User, storeID string, input *StoreUpdateInput) (*domain.Store, error) {
	update := &domain.StoreUpdate{
		AutoFulfill: input.AutoFulfill,
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		update.Name = &name
	}
	if input.ShopifyDomain != nil {
		shopDomain := normalizeShopDomain(*input.ShopifyDomain)
		if shopDomain == "" {
			return nil, fmt.Errorf("shopify_domain cannot be empty")
		}
		update.ShopifyDomain = &shopDomain
	}
	if input.ClientID != nil {
		encrypted, err := s.encryption.Encrypt(*input.ClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt client id: %w", err)
		}
		update.ClientIDEncrypted = &encrypted
	}
	if input.ClientSecret != nil {
		encrypted, err := s.encryption.Encrypt(*input.ClientSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt client secret: %w", err)
		}
		update.ClientSecretEncrypted = &encrypted
	}

	return s.stores.Update(ctx, storeID, user.ID, update)
}

// Delete removes the store row entirely. Remote webhooks are cleaned up
// best-effort first when the store is still connected.
func (s *StoreService) Delete(ctx context.Context, user *domain.User, storeID string) error {
	store, err := s.stores.GetByID(ctx, storeID, user.ID)
	if err != nil {
		return err
	}
	s.cleanupRemoteWebhooks(ctx, store)
	return s.stores.Delete(ctx, storeID, user.ID)
}

// Disconnect clears the access token and scopes, leaving the client
// credentials and webhook secret in place for a later reconnect. Remote
// webhook cleanup is best-effort.
func (s *StoreService) Disconnect(ctx context.Context, user *domain.User, storeID string) (*domain.Store, error) {
	store, err := s.stores.GetByID(ctx, storeID, user.ID)
	if err != nil {
		return nil, err
	}
	s.cleanupRemoteWebhooks(ctx, store)

	emptyToken := ""
	emptyScopes := []string{}
	update := &domain.StoreUpdate{
		AccessTokenEncrypted: &emptyToken,
		Scopes:               &emptyScopes,
	}
	updated, err := s.stores.Update(ctx, storeID, user.ID, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("store_id", storeID).
		Str("shop", store.ShopifyDomain).
		Msg("Store disconnected")
	return updated, nil
}

func (s *StoreService) cleanupRemoteWebhooks(ctx context.Context, store *domain.Store) {
	if store.AccessTokenEncrypted == "" {
		return
	}
	var token string
	if err := s.encryption.Decrypt(store.AccessTokenEncrypted, &token); err != nil {
		s.logger.Warn().
			Err(err).
			Str("store_id", store.ID).
			Msg("Cannot decrypt access token for webhook cleanup, skipping")
		return
	}
	s.registrar.UnregisterAll(ctx, store.ID, store.ShopifyDomain, token)
}

// normalizeShopDomain lowercases and strips scheme and trailing slashes so
/// "https://Acme.myshopify.com/" and "acme.myshopify.com" compare equal.
func normalizeShopDomain(d string) string {
	d = strings.TrimSpace(strings.ToLower(d))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	return strings.TrimSuffix(d, "/")
}
