package application_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"orderdesk/internal/application"
	"orderdesk/internal/domain"
	"orderdesk/internal/infrastructure/encryption"
	"orderdesk/internal/infrastructure/shopify"

	"github.com/rs/zerolog"
)

const testEncryptionKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

type oauthFixture struct {
	service *application.OAuthService
	stores  *fakeStoreRepo
	subs    *fakeSubsRepo
	client  *fakeShopifyClient
	enc     *encryption.Service
	store   *domain.Store
	user    *domain.User
}

func newOAuthFixture(t *testing.T) *oauthFixture {
	t.Helper()
	enc, err := encryption.NewService(testEncryptionKey)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	stores := newFakeStoreRepo()
	subs := newFakeSubsRepo()
	client := newFakeShopifyClient()
	registrar := application.NewWebhookRegistrar(client, subs, zerolog.Nop())
	service := application.NewOAuthService(stores, enc, client, registrar, "https://app.example.com", zerolog.Nop())

	clientIDEnc, err := enc.Encrypt("shopify-client-id")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	clientSecretEnc, err := enc.Encrypt("shopify-client-secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	user := &domain.User{ID: "user-1", Email: "merchant@example.com"}
	store := &domain.Store{
		UserID:                user.ID,
		Name:                  "Test Shop",
		ShopifyDomain:         "test.myshopify.com",
		ClientIDEncrypted:     clientIDEnc,
		ClientSecretEncrypted: clientSecretEnc,
	}
	if err := stores.Create(context.Background(), store); err != nil {
		t.Fatalf("create store: %v", err)
	}

	return &oauthFixture{service: service, stores: stores, subs: subs, client: client, enc: enc, store: store, user: user}
}

func (f *oauthFixture) validState(t *testing.T) string {
	t.Helper()
	state, err := shopify.EncodeState(f.store.ID, f.user.ID)
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}
	return state
}

func TestBeginConnectBuildsAuthorizeURL(t *testing.T) {
	f := newOAuthFixture(t)

	authURL, state, err := f.service.BeginConnect(context.Background(), f.user, f.store.ID)
	if err != nil {
		t.Fatalf("BeginConnect: %v", err)
	}
	if !strings.Contains(authURL, "test.myshopify.com") {
		t.Errorf("authorize URL missing shop domain: %s", authURL)
	}
	if !strings.Contains(authURL, state) {
		t.Errorf("authorize URL missing state: %s", authURL)
	}

	decoded, err := shopify.DecodeState(state)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if decoded.StoreID != f.store.ID || decoded.UserID != f.user.ID {
		t.Errorf("state binds %s/%s, want %s/%s", decoded.StoreID, decoded.UserID, f.store.ID, f.user.ID)
	}
}

func TestBeginConnectWithoutCredentialsFails(t *testing.T) {
	f := newOAuthFixture(t)
	bare := &domain.Store{UserID: f.user.ID, Name: "Bare", ShopifyDomain: "bare.myshopify.com"}
	if err := f.stores.Create(context.Background(), bare); err != nil {
		t.Fatalf("create store: %v", err)
	}

	if _, _, err := f.service.BeginConnect(context.Background(), f.user, bare.ID); err == nil {
		t.Fatal("expected error for store without app credentials")
	}
}

func TestHandleCallbackConnectsStore(t *testing.T) {
	f := newOAuthFixture(t)
	f.client.grantedScopes = []string{"read_orders", "write_orders"}
	state := f.validState(t)

	result := f.service.HandleCallback(context.Background(), application.CallbackParams{
		User:        f.user,
		Code:        "auth-code",
		State:       state,
		Shop:        "test.myshopify.com",
		CookieState: state,
	})
	if result != application.ResultConnected {
		t.Fatalf("result = %q, want %q", result, application.ResultConnected)
	}

	updated, err := f.stores.GetByID(context.Background(), f.store.ID, f.user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !updated.Connected() {
		t.Fatal("store not connected after successful callback")
	}

	var token string
	if err := f.enc.Decrypt(updated.AccessTokenEncrypted, &token); err != nil {
		t.Fatalf("Decrypt token: %v", err)
	}
	if token != "shpat_test_token" {
		t.Errorf("stored token = %q, want shpat_test_token", token)
	}
	if len(updated.Scopes) != 2 || updated.Scopes[0] != "read_orders" {
		t.Errorf("scopes = %v, want granted scopes", updated.Scopes)
	}
	if updated.WebhookSecret == "" {
		t.Error("webhook secret not generated")
	}

	subs, _ := f.subs.ListByStore(context.Background(), f.store.ID)
	if len(subs) != len(domain.SubscribedTopics) {
		t.Errorf("persisted %d subscriptions, want %d", len(subs), len(domain.SubscribedTopics))
	}
}

func TestHandleCallbackReusesWebhookSecret(t *testing.T) {
	f := newOAuthFixture(t)
	secret := "existing-secret"
	if _, err := f.stores.Update(context.Background(), f.store.ID, f.user.ID, &domain.StoreUpdate{WebhookSecret: &secret}); err != nil {
		t.Fatalf("seed secret: %v", err)
	}
	state := f.validState(t)

	result := f.service.HandleCallback(context.Background(), application.CallbackParams{
		User: f.user, Code: "auth-code", State: state, CookieState: state,
	})
	if result != application.ResultConnected {
		t.Fatalf("result = %q", result)
	}

	updated, _ := f.stores.GetByID(context.Background(), f.store.ID, f.user.ID)
	if updated.WebhookSecret != "existing-secret" {
		t.Errorf("webhook secret = %q, want the pre-existing one", updated.WebhookSecret)
	}
}

func TestHandleCallbackScopeFallbackChain(t *testing.T) {
	tests := []struct {
		name       string
		granted    []string
		tokenScope string
		want       []string
	}{
		{
			name:    "introspection wins",
			granted: []string{"read_orders"},
			want:    []string{"read_orders"},
		},
		{
			name:       "token response scope when introspection is empty",
			tokenScope: "read_orders, write_orders",
			want:       []string{"read_orders", "write_orders"},
		},
		{
			name: "requested scopes as last resort",
			want: shopify.Scopes,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOAuthFixture(t)
			f.client.grantedScopes = tt.granted
			f.client.tokenScope = tt.tokenScope
			state := f.validState(t)

			result := f.service.HandleCallback(context.Background(), application.CallbackParams{
				User: f.user, Code: "auth-code", State: state, CookieState: state,
			})
			if result != application.ResultConnected {
				t.Fatalf("result = %q", result)
			}

			updated, _ := f.stores.GetByID(context.Background(), f.store.ID, f.user.ID)
			if len(updated.Scopes) != len(tt.want) {
				t.Fatalf("scopes = %v, want %v", updated.Scopes, tt.want)
			}
			for i := range tt.want {
				if updated.Scopes[i] != tt.want[i] {
					t.Errorf("scopes[%d] = %q, want %q", i, updated.Scopes[i], tt.want[i])
				}
			}
		})
	}
}

func TestHandleCallbackErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		params func(f *oauthFixture, t *testing.T) application.CallbackParams
		setup  func(f *oauthFixture)
		want   string
	}{
		{
			name: "missing code",
			params: func(f *oauthFixture, t *testing.T) application.CallbackParams {
				state := f.validState(t)
				return application.CallbackParams{User: f.user, State: state, CookieState: state}
			},
			want: application.ErrCodeNoCode,
		},
		{
			name: "undecodable state",
			params: func(f *oauthFixture, t *testing.T) application.CallbackParams {
				return application.CallbackParams{User: f.user, Code: "c", State: "!!not-base64!!"}
			},
			want: application.ErrCodeInvalidState,
		},
		{
			name: "cookie mismatch",
			params: func(f *oauthFixture, t *testing.T) application.CallbackParams {
				return application.CallbackParams{User: f.user, Code: "c", State: f.validState(t), CookieState: f.validState(t)}
			},
			want: application.ErrCodeInvalidState,
		},
		{
			name: "state user differs from session user",
			params: func(f *oauthFixture, t *testing.T) application.CallbackParams {
				state := f.validState(t)
				return application.CallbackParams{User: &domain.User{ID: "someone-else"}, Code: "c", State: state, CookieState: state}
			},
			want: application.ErrCodeUnauthorized,
		},
		{
			name: "no session user",
			params: func(f *oauthFixture, t *testing.T) application.CallbackParams {
				state := f.validState(t)
				return application.CallbackParams{Code: "c", State: state, CookieState: state}
			},
			want: application.ErrCodeUnauthorized,
		},
		{
			name: "store deleted mid-flow",
			params: func(f *oauthFixture, t *testing.T) application.CallbackParams {
				state := f.validState(t)
				if err := f.stores.Delete(context.Background(), f.store.ID, f.user.ID); err != nil {
					t.Fatalf("delete store: %v", err)
				}
				return application.CallbackParams{User: f.user, Code: "c", State: state, CookieState: state}
			},
			want: application.ErrCodeStoreNotFound,
		},
		{
			name: "shop param does not match store domain",
			params: func(f *oauthFixture, t *testing.T) application.CallbackParams {
				state := f.validState(t)
				return application.CallbackParams{User: f.user, Code: "c", State: state, CookieState: state, Shop: "other.myshopify.com"}
			},
			want: application.ErrCodeDomainMismatch,
		},
		{
			name: "missing app credentials",
			setup: func(f *oauthFixture) {
				empty := ""
				f.stores.Update(context.Background(), f.store.ID, f.user.ID, &domain.StoreUpdate{
					ClientIDEncrypted:     &empty,
					ClientSecretEncrypted: &empty,
				})
			},
			params: func(f *oauthFixture, t *testing.T) application.CallbackParams {
				state := f.validState(t)
				return application.CallbackParams{User: f.user, Code: "c", State: state, CookieState: state}
			},
			want: application.ErrCodeMissingCredentials,
		},
		{
			name: "corrupt credential ciphertext",
			setup: func(f *oauthFixture) {
				garbage := "aa:bb:cc"
				f.stores.Update(context.Background(), f.store.ID, f.user.ID, &domain.StoreUpdate{
					ClientIDEncrypted: &garbage,
				})
			},
			params: func(f *oauthFixture, t *testing.T) application.CallbackParams {
				state := f.validState(t)
				return application.CallbackParams{User: f.user, Code: "c", State: state, CookieState: state}
			},
			want: application.ErrCodeInvalidCredentials,
		},
		{
			name: "token exchange failure",
			setup: func(f *oauthFixture) {
				f.client.exchangeErr = fmt.Errorf("remote rejected the code")
			},
			params: func(f *oauthFixture, t *testing.T) application.CallbackParams {
				state := f.validState(t)
				return application.CallbackParams{User: f.user, Code: "c", State: state, CookieState: state}
			},
			want: application.ErrCodeOAuthFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOAuthFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			params := tt.params(f, t)

			got := f.service.HandleCallback(context.Background(), params)
			if got != tt.want {
				t.Fatalf("result = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleCallbackUnauthorizedWritesNothing(t *testing.T) {
	f := newOAuthFixture(t)
	state := f.validState(t)

	result := f.service.HandleCallback(context.Background(), application.CallbackParams{
		User: &domain.User{ID: "attacker"}, Code: "c", State: state, CookieState: state,
	})
	if result != application.ErrCodeUnauthorized {
		t.Fatalf("result = %q", result)
	}

	store, _ := f.stores.GetByID(context.Background(), f.store.ID, f.user.ID)
	if store.AccessTokenEncrypted != "" || store.WebhookSecret != "" {
		t.Error("rejected callback must not write credentials")
	}
	if len(f.client.exchangedCodes) != 0 {
		t.Error("rejected callback must not exchange the code")
	}
}
