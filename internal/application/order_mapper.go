package application

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"orderdesk/internal/domain"
)

// flexString decodes a JSON value that Shopify serializes sometimes as a
// string and sometimes as a number (ids, order numbers, prices).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type shopifyAddressPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Province  string `json:"province"`
	Country   string `json:"country"`
	Zip       string `json:"zip"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
}

type shopifyLineItemPayload struct {
	ID        flexString `json:"id"`
	Title     string     `json:"title"`
	SKU       string     `json:"sku"`
	Quantity  int        `json:"quantity"`
	Price     flexString `json:"price"`
	VariantID flexString `json:"variant_id"`
}

type shopifyOrderPayload struct {
	ID          flexString `json:"id"`
	OrderNumber flexString `json:"order_number"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Customer    *struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	} `json:"customer"`
	ShippingAddress   *shopifyAddressPayload   `json:"shipping_address"`
	LineItems         []shopifyLineItemPayload `json:"line_items"`
	TotalPrice        flexString               `json:"total_price"`
	Currency          string                   `json:"currency"`
	FinancialStatus   string                   `json:"financial_status"`
	FulfillmentStatus string                   `json:"fulfillment_status"`
	CancelledAt       *time.Time               `json:"cancelled_at"`
	CreatedAt         *time.Time               `json:"created_at"`
}

// mapShopifyOrder converts a raw Shopify order payload into the local order
// mirror. The same mapping serves webhook deliveries and manual sync so the
// two paths cannot drift. Monetary values stay strings end to end.
func mapShopifyOrder(storeID string, payload []byte) (*domain.Order, error) {
	var p shopifyOrderPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to parse order payload: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("order payload has no id")
	}

	order := &domain.Order{
		StoreID:            storeID,
		ShopifyOrderID:     string(p.ID),
		ShopifyOrderNumber: string(p.OrderNumber),
		CustomerEmail:      p.Email,
		CustomerPhone:      p.Phone,
		TotalPrice:         string(p.TotalPrice),
		Currency:           p.Currency,
		FinancialStatus:    p.FinancialStatus,
		FulfillmentStatus:  p.FulfillmentStatus,
		CancelledAt:        p.CancelledAt,
		ShopifyCreatedAt:   p.CreatedAt,
	}

	if order.ShopifyOrderNumber == "" {
		order.ShopifyOrderNumber = strings.TrimPrefix(p.Name, "#")
	}
	if order.Currency == "" {
		order.Currency = "RON"
	}

	if p.Customer != nil {
		order.CustomerName = strings.TrimSpace(p.Customer.FirstName + " " + p.Customer.LastName)
		if order.CustomerEmail == "" {
			order.CustomerEmail = p.Customer.Email
		}
		if order.CustomerPhone == "" {
			order.CustomerPhone = p.Customer.Phone
		}
	}

	if p.ShippingAddress != nil {
		order.ShippingAddress = &domain.ShippingAddress{
			FirstName: p.ShippingAddress.FirstName,
			LastName:  p.ShippingAddress.LastName,
			Address1:  p.ShippingAddress.Address1,
			Address2:  p.ShippingAddress.Address2,
			City:      p.ShippingAddress.City,
			Province:  p.ShippingAddress.Province,
			Country:   p.ShippingAddress.Country,
			Zip:       p.ShippingAddress.Zip,
			Phone:     p.ShippingAddress.Phone,
			Company:   p.ShippingAddress.Company,
		}
		if order.CustomerPhone == "" {
			order.CustomerPhone = p.ShippingAddress.Phone
		}
	}

	for _, item := range p.LineItems {
		order.LineItems = append(order.LineItems, domain.OrderLineItem{
			ID:        string(item.ID),
			Title:     item.Title,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			Price:     string(item.Price),
			VariantID: string(item.VariantID),
		})
	}

	return order, nil
}
