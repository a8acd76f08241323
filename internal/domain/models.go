package domain

import (
	"strings"
	"time"
)

// Order is a customer order as returned by the commerce backend
type Order struct {
	ID           string                 `json:"id"`
	DisplayID    int                    `json:"display_id"`
	Status       OrderStatus            `json:"status"`
	Email        string                 `json:"email,omitempty"`
	CurrencyCode string                 `json:"currency_code,omitempty"`
	Total        float64                `json:"total"`
	CreatedAt    *time.Time             `json:"created_at,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Address is a cart shipping address. Address1 is the primary line.
type Address struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Address1    string `json:"address_1"`
	Address2    string `json:"address_2,omitempty"`
	City        string `json:"city,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// HasPrimaryLine reports whether the address carries a non-blank first line
func (a *Address) HasPrimaryLine() bool {
	return a != nil && strings.TrimSpace(a.Address1) != ""
}

// ShippingMethod is a delivery option selected on a cart
type ShippingMethod struct {
	ID               string  `json:"id"`
	Name             string  `json:"name,omitempty"`
	ShippingOptionID string  `json:"shipping_option_id,omitempty"`
	Amount           float64 `json:"amount"`
}

// Cart is the shopper's cart. It is fetched fresh per evaluation and treated as read-only.
type Cart struct {
	ID              string           `json:"id"`
	Email           *string          `json:"email"`
	ShippingAddress *Address         `json:"shipping_address"`
	ShippingMethods []ShippingMethod `json:"shipping_methods"`
	RegionID        string           `json:"region_id,omitempty"`
	CurrencyCode    string           `json:"currency_code,omitempty"`
	Total           float64          `json:"total"`
}

// Product is a catalog product with its variants
type Product struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Handle      string     `json:"handle"`
	Description *string    `json:"description"`
	Thumbnail   *string    `json:"thumbnail"`
	Variants    []Variant  `json:"variants"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// SearchPrice is the presentational price of a search result
type SearchPrice struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

// SearchResultItem is one normalized product in a search response
type SearchResultItem struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Handle      string       `json:"handle"`
	Thumbnail   *string      `json:"thumbnail"`
	Description *string      `json:"description"`
	Price       *SearchPrice `json:"price,omitempty"`
}
