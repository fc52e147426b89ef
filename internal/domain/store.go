package domain

import "time"

// Store is a tenant-owned Shopify connection record. Credentials are stored as
// opaque ciphertext produced by the encryption service; the plaintext never
// touches the database.
type Store struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"user_id"`
	Name                   string    `json:"name"`
	ShopifyDomain          string    `json:"shopify_domain"`
	ClientIDEncrypted      string    `json:"-"`
	ClientSecretEncrypted  string    `json:"-"`
	AccessTokenEncrypted   string    `json:"-"`
	Scopes                 []string  `json:"shopify_scopes"`
	WebhookSecret          string    `json:"-"`
	CourierProvider        string    `json:"courier_provider,omitempty"`
	CourierCredsEncrypted  string    `json:"-"`
	InvoiceProvider        string    `json:"invoice_provider,omitempty"`
	InvoiceCredsEncrypted  string    `json:"-"`
	AutoFulfill            bool      `json:"auto_fulfill"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Connected reports whether the store completed the OAuth flow. A store is
// either fully connected (token and scopes present) or fully disconnected.
func (s *Store) Connected() bool {
	return s.AccessTokenEncrypted != "" && len(s.Scopes) > 0
}

// StoreUpdate carries partial store updates. Nil fields are left untouched;
// pointers to the empty value clear the field.
type StoreUpdate struct {
	Name                  *string
	ShopifyDomain         *string
	ClientIDEncrypted     *string
	ClientSecretEncrypted *string
	AccessTokenEncrypted  *string
	Scopes                *[]string
	WebhookSecret         *string
	CourierProvider       *string
	InvoiceProvider       *string
	AutoFulfill           *bool
}
