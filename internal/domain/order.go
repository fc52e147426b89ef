package domain

import "time"

// ShippingAddress is the subset of the Shopify shipping address the dashboard
// shows and the courier stubs will eventually consume.
type ShippingAddress struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	Province  string `json:"province,omitempty"`
	Country   string `json:"country,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
}

// OrderLineItem is the subset of a Shopify line item mirrored locally.
type OrderLineItem struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title,omitempty"`
	SKU       string `json:"sku,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price,omitempty"`
	VariantID string `json:"variant_id,omitempty"`
}

// Order is a denormalized mirror of a remote Shopify order, keyed by
// (store, shopify order id) and upserted idempotently on every webhook
// delivery or manual sync. TotalPrice stays a string so no float rounding
// ever touches money.
type Order struct {
	ID                 string           `json:"id"`
	StoreID            string           `json:"store_id"`
	ShopifyOrderID     string           `json:"shopify_order_id"`
	ShopifyOrderNumber string           `json:"shopify_order_number"`
	CustomerName       string           `json:"customer_name,omitempty"`
	CustomerEmail      string           `json:"customer_email,omitempty"`
	CustomerPhone      string           `json:"customer_phone,omitempty"`
	ShippingAddress    *ShippingAddress `json:"shipping_address,omitempty"`
	LineItems          []OrderLineItem  `json:"line_items,omitempty"`
	TotalPrice         string           `json:"total_price,omitempty"`
	Currency           string           `json:"currency"`
	FinancialStatus    string           `json:"financial_status,omitempty"`
	FulfillmentStatus  string           `json:"fulfillment_status,omitempty"`
	CancelledAt        *time.Time       `json:"cancelled_at,omitempty"`
	AWBNumber          string           `json:"awb_number,omitempty"`
	AWBCreatedAt       *time.Time       `json:"awb_created_at,omitempty"`
	AWBPDFURL          string           `json:"awb_pdf_url,omitempty"`
	InvoiceNumber      string           `json:"invoice_number,omitempty"`
	InvoiceCreatedAt   *time.Time       `json:"invoice_created_at,omitempty"`
	InvoicePDFURL      string           `json:"invoice_pdf_url,omitempty"`
	ShopifyCreatedAt   *time.Time       `json:"shopify_created_at,omitempty"`
	SyncedAt           *time.Time       `json:"synced_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// OrderShippingUpdate attaches locally-generated AWB and invoice identifiers
// to an order. These are stub fields; no courier or invoicing provider is
// called.
type OrderShippingUpdate struct {
	AWBNumber     *string
	AWBPDFURL     *string
	InvoiceNumber *string
	InvoicePDFURL *string
}

// DashboardStats aggregates what the dashboard landing page shows.
type DashboardStats struct {
	StoreCount      int               `json:"store_count"`
	ConnectedStores int               `json:"connected_stores"`
	OrderCount      int               `json:"order_count"`
	CancelledOrders int               `json:"cancelled_orders"`
	Revenue         map[string]string `json:"revenue"` // currency -> exact decimal sum
}
