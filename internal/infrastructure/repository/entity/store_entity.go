package entity

import (
	"time"

	"orderdesk/internal/domain"
)

// MongoStoreDoc represents a store in MongoDB.
type MongoStoreDoc struct {
	ID                    string    `bson:"_id"`
	UserID                string    `bson:"userId"`
	Name                  string    `bson:"name"`
	ShopifyDomain         string    `bson:"shopifyDomain"`
	ClientIDEncrypted     string    `bson:"clientIdEncrypted,omitempty"`
	ClientSecretEncrypted string    `bson:"clientSecretEncrypted,omitempty"`
	AccessTokenEncrypted  string    `bson:"accessTokenEncrypted,omitempty"`
	Scopes                []string  `bson:"scopes,omitempty"`
	WebhookSecret         string    `bson:"webhookSecret,omitempty"`
	CourierProvider       string    `bson:"courierProvider,omitempty"`
	CourierCredsEncrypted string    `bson:"courierCredsEncrypted,omitempty"`
	InvoiceProvider       string    `bson:"invoiceProvider,omitempty"`
	InvoiceCredsEncrypted string    `bson:"invoiceCredsEncrypted,omitempty"`
	AutoFulfill           bool      `bson:"autoFulfill"`
	CreatedAt             time.Time `bson:"createdAt"`
	UpdatedAt             time.Time `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoStoreDoc) ToDomain() *domain.Store {
	return &domain.Store{
		ID:                    d.ID,
		UserID:                d.UserID,
		Name:                  d.Name,
		ShopifyDomain:         d.ShopifyDomain,
		ClientIDEncrypted:     d.ClientIDEncrypted,
		ClientSecretEncrypted: d.ClientSecretEncrypted,
		AccessTokenEncrypted:  d.AccessTokenEncrypted,
		Scopes:                d.Scopes,
		WebhookSecret:         d.WebhookSecret,
		CourierProvider:       d.CourierProvider,
		CourierCredsEncrypted: d.CourierCredsEncrypted,
		InvoiceProvider:       d.InvoiceProvider,
		InvoiceCredsEncrypted: d.InvoiceCredsEncrypted,
		AutoFulfill:           d.AutoFulfill,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

// MongoStoreDocFromDomain converts a domain entity to a MongoDB document.
func MongoStoreDocFromDomain(store *domain.Store) *MongoStoreDoc {
	return &MongoStoreDoc{
		ID:                    store.ID,
		UserID:                store.UserID,
		Name:                  store.Name,
		ShopifyDomain:         store.ShopifyDomain,
		ClientIDEncrypted:     store.ClientIDEncrypted,
		ClientSecretEncrypted: store.ClientSecretEncrypted,
		AccessTokenEncrypted:  store.AccessTokenEncrypted,
		Scopes:                store.Scopes,
		WebhookSecret:         store.WebhookSecret,
		CourierProvider:       store.CourierProvider,
		CourierCredsEncrypted: store.CourierCredsEncrypted,
		InvoiceProvider:       store.InvoiceProvider,
		InvoiceCredsEncrypted: store.InvoiceCredsEncrypted,
		AutoFulfill:           store.AutoFulfill,
		CreatedAt:             store.CreatedAt,
		UpdatedAt:             store.UpdatedAt,
	}
}
