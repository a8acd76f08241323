package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/repository"
)

// Store reads orders, products and carts straight from the commerce database.
// It implements repository.Backend.
type Store struct {
	*orderRepository
	*productRepository
	*cartRepository
}

var _ repository.Backend = (*Store)(nil)

// NewStore creates a Store over db
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		orderRepository:   newOrderRepository(db, logger),
		productRepository: newProductRepository(db, logger),
		cartRepository:    newCartRepository(db, logger),
	}
}

// ForCustomer returns a copy of the store whose ListOrders is scoped to customerID
func (s *Store) ForCustomer(customerID string) *Store {
	clone := *s
	orders := *s.orderRepository
	orders.customerID = customerID
	clone.orderRepository = &orders
	return &clone
}
