package repository

import (
	"context"

	"github.com/jafarshop/storefront/internal/domain"
)

// ProductQuery narrows a product listing
type ProductQuery struct {
	Limit       int
	Offset      int
	CountryCode string
}

// ProductPage is one page of a product listing
type ProductPage struct {
	Products []domain.Product
	Count    int
}

// OrderReader defines order read operations against the commerce backend
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
}

// ProductReader defines catalog read operations against the commerce backend
type ProductReader interface {
	ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error)
}

// CartReader defines cart read operations against the commerce backend
type CartReader interface {
	GetCart(ctx context.Context, id string) (*domain.Cart, error)
}

// Backend aggregates every read operation the storefront consumes
type Backend interface {
	OrderReader
	ProductReader
	CartReader
}
