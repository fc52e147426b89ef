package entity

import (
	"time"

	"orderdesk/internal/domain"
)

// MongoAddressDoc mirrors domain.ShippingAddress in MongoDB.
type MongoAddressDoc struct {
	FirstName string `bson:"firstName,omitempty"`
	LastName  string `bson:"lastName,omitempty"`
	Address1  string `bson:"address1,omitempty"`
	Address2  string `bson:"address2,omitempty"`
	City      string `bson:"city,omitempty"`
	Province  string `bson:"province,omitempty"`
	Country   string `bson:"country,omitempty"`
	Zip       string `bson:"zip,omitempty"`
	Phone     string `bson:"phone,omitempty"`
	Company   string `bson:"company,omitempty"`
}

// MongoLineItemDoc mirrors domain.OrderLineItem in MongoDB.
type MongoLineItemDoc struct {
	ID        string `bson:"id,omitempty"`
	Title     string `bson:"title,omitempty"`
	SKU       string `bson:"sku,omitempty"`
	Quantity  int    `bson:"quantity"`
	Price     string `bson:"price,omitempty"`
	VariantID string `bson:"variantId,omitempty"`
}

// MongoOrderDoc represents an order in MongoDB.
type MongoOrderDoc struct {
	ID                 string             `bson:"_id"`
	StoreID            string             `bson:"storeId"`
	ShopifyOrderID     string             `bson:"shopifyOrderId"`
	ShopifyOrderNumber string             `bson:"shopifyOrderNumber,omitempty"`
	CustomerName       string             `bson:"customerName,omitempty"`
	CustomerEmail      string             `bson:"customerEmail,omitempty"`
	CustomerPhone      string             `bson:"customerPhone,omitempty"`
	ShippingAddress    *MongoAddressDoc   `bson:"shippingAddress,omitempty"`
	LineItems          []MongoLineItemDoc `bson:"lineItems,omitempty"`
	TotalPrice         string             `bson:"totalPrice,omitempty"`
	Currency           string             `bson:"currency"`
	FinancialStatus    string             `bson:"financialStatus,omitempty"`
	FulfillmentStatus  string             `bson:"fulfillmentStatus,omitempty"`
	CancelledAt        *time.Time         `bson:"cancelledAt,omitempty"`
	AWBNumber          string             `bson:"awbNumber,omitempty"`
	AWBCreatedAt       *time.Time         `bson:"awbCreatedAt,omitempty"`
	AWBPDFURL          string             `bson:"awbPdfUrl,omitempty"`
	InvoiceNumber      string             `bson:"invoiceNumber,omitempty"`
	InvoiceCreatedAt   *time.Time         `bson:"invoiceCreatedAt,omitempty"`
	InvoicePDFURL      string             `bson:"invoicePdfUrl,omitempty"`
	ShopifyCreatedAt   *time.Time         `bson:"shopifyCreatedAt,omitempty"`
	SyncedAt           *time.Time         `bson:"syncedAt,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoOrderDoc) ToDomain() *domain.Order {
	order := &domain.Order{
		ID:                 d.ID,
		StoreID:            d.StoreID,
		ShopifyOrderID:     d.ShopifyOrderID,
		ShopifyOrderNumber: d.ShopifyOrderNumber,
		CustomerName:       d.CustomerName,
		CustomerEmail:      d.CustomerEmail,
		CustomerPhone:      d.CustomerPhone,
		TotalPrice:         d.TotalPrice,
		Currency:           d.Currency,
		FinancialStatus:    d.FinancialStatus,
		FulfillmentStatus:  d.FulfillmentStatus,
		CancelledAt:        d.CancelledAt,
		AWBNumber:          d.AWBNumber,
		AWBCreatedAt:       d.AWBCreatedAt,
		AWBPDFURL:          d.AWBPDFURL,
		InvoiceNumber:      d.InvoiceNumber,
		InvoiceCreatedAt:   d.InvoiceCreatedAt,
		InvoicePDFURL:      d.InvoicePDFURL,
		ShopifyCreatedAt:   d.ShopifyCreatedAt,
		SyncedAt:           d.SyncedAt,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	if d.ShippingAddress != nil {
		order.ShippingAddress = &domain.ShippingAddress{
			FirstName: d.ShippingAddress.FirstName,
			LastName:  d.ShippingAddress.LastName,
			Address1:  d.ShippingAddress.Address1,
			Address2:  d.ShippingAddress.Address2,
			City:      d.ShippingAddress.City,
			Province:  d.ShippingAddress.Province,
			Country:   d.ShippingAddress.Country,
			Zip:       d.ShippingAddress.Zip,
			Phone:     d.ShippingAddress.Phone,
			Company:   d.ShippingAddress.Company,
		}
	}
	for _, item := range d.LineItems {
		order.LineItems = append(order.LineItems, domain.OrderLineItem{
			ID:        item.ID,
			Title:     item.Title,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			Price:     item.Price,
			VariantID: item.VariantID,
		})
	}
	return order
}

// MongoOrderDocFromDomain converts a domain entity to a MongoDB document.
func MongoOrderDocFromDomain(order *domain.Order) *MongoOrderDoc {
	doc := &MongoOrderDoc{
		ID:                 order.ID,
		StoreID:            order.StoreID,
		ShopifyOrderID:     order.ShopifyOrderID,
		ShopifyOrderNumber: order.ShopifyOrderNumber,
		CustomerName:       order.CustomerName,
		CustomerEmail:      order.CustomerEmail,
		CustomerPhone:      order.CustomerPhone,
		TotalPrice:         order.TotalPrice,
		Currency:           order.Currency,
		FinancialStatus:    order.FinancialStatus,
		FulfillmentStatus:  order.FulfillmentStatus,
		CancelledAt:        order.CancelledAt,
		AWBNumber:          order.AWBNumber,
		AWBCreatedAt:       order.AWBCreatedAt,
		AWBPDFURL:          order.AWBPDFURL,
		InvoiceNumber:      order.InvoiceNumber,
		InvoiceCreatedAt:   order.InvoiceCreatedAt,
		InvoicePDFURL:      order.InvoicePDFURL,
		ShopifyCreatedAt:   order.ShopifyCreatedAt,
		SyncedAt:           order.SyncedAt,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	if order.ShippingAddress != nil {
		doc.ShippingAddress = &MongoAddressDoc{
			FirstName: order.ShippingAddress.FirstName,
			LastName:  order.ShippingAddress.LastName,
			Address1:  order.ShippingAddress.Address1,
			Address2:  order.ShippingAddress.Address2,
			City:      order.ShippingAddress.City,
			Province:  order.ShippingAddress.Province,
			Country:   order.ShippingAddress.Country,
			Zip:       order.ShippingAddress.Zip,
			Phone:     order.ShippingAddress.Phone,
			Company:   order.ShippingAddress.Company,
		}
	}
	for _, item := range order.LineItems {
		doc.LineItems = append(doc.LineItems, MongoLineItemDoc{
			ID:        item.ID,
			Title:     item.Title,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			Price:     item.Price,
			VariantID: item.VariantID,
		})
	}
	return doc
}
