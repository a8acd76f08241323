package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/pkg/errors"
)

const orderColumns = `id, display_id, status, email, currency_code, total, metadata, created_at`

type orderRepository struct {
	db         *sql.DB
	logger     *zap.Logger
	customerID string
}

func newOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1 AND deleted_at IS NULL
	`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get order", zap.String("order_id", id), zap.Error(err))
		return nil, &errors.ErrUpstream{Op: "get order", Err: err}
	}
	return order, nil
}

// ListOrders returns the scoped customer's orders, newest first
func (r *orderRepository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	if r.customerID == "" {
		return nil, &errors.ErrUnauthorized{Message: "customer required to list orders"}
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, r.customerID)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.String("customer_id", r.customerID), zap.Error(err))
		return nil, &errors.ErrUpstream{Op: "list orders", Err: err}
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, &errors.ErrUpstream{Op: "list orders", Err: err}
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, &errors.ErrUpstream{Op: "list orders", Err: err}
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var email sql.NullString
	var currencyCode sql.NullString
	var total sql.NullFloat64
	var metadataJSON []byte
	var createdAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.DisplayID,
		&order.Status,
		&email,
		&currencyCode,
		&total,
		&metadataJSON,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	order.Email = email.String
	order.CurrencyCode = currencyCode.String
	order.Total = total.Float64
	if createdAt.Valid {
		t := createdAt.Time.In(time.UTC)
		order.CreatedAt = &t
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &order.Metadata); err != nil {
			return nil, err
		}
	}
	return &order, nil
}
