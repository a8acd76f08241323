package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/pkg/errors"
)

type cartRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func newCartRepository(db *sql.DB, logger *zap.Logger) *cartRepository {
	return &cartRepository{
		db:     db,
		logger: logger,
	}
}

func (r *cartRepository) GetCart(ctx context.Context, id string) (*domain.Cart, error) {
	query := `
		SELECT id, email, region_id, currency_code, total, shipping_address
		FROM carts
		WHERE id = $1 AND deleted_at IS NULL
	`

	var cart domain.Cart
	var email sql.NullString
	var regionID sql.NullString
	var currencyCode sql.NullString
	var total sql.NullFloat64
	var shippingAddressJSON []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cart.ID,
		&email,
		&regionID,
		&currencyCode,
		&total,
		&shippingAddressJSON,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "cart", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get cart", zap.String("cart_id", id), zap.Error(err))
		return nil, &errors.ErrUpstream{Op: "get cart", Err: err}
	}

	if email.Valid {
		cart.Email = &email.String
	}
	cart.RegionID = regionID.String
	cart.CurrencyCode = currencyCode.String
	cart.Total = total.Float64
	if len(shippingAddressJSON) > 0 && string(shippingAddressJSON) != "null" {
		var address domain.Address
		if err := json.Unmarshal(shippingAddressJSON, &address); err != nil {
			return nil, &errors.ErrUpstream{Op: "get cart", Err: err}
		}
		cart.ShippingAddress = &address
	}

	methods, err := r.shippingMethods(ctx, id)
	if err != nil {
		r.logger.Error("Failed to get cart shipping methods", zap.String("cart_id", id), zap.Error(err))
		return nil, &errors.ErrUpstream{Op: "get cart", Err: err}
	}
	cart.ShippingMethods = methods
	return &cart, nil
}

func (r *cartRepository) shippingMethods(ctx context.Context, cartID string) ([]domain.ShippingMethod, error) {
	query := `
		SELECT id, name, shipping_option_id, amount
		FROM cart_shipping_methods
		WHERE cart_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := []domain.ShippingMethod{}
	for rows.Next() {
		var m domain.ShippingMethod
		var name sql.NullString
		var optionID sql.NullString
		if err := rows.Scan(&m.ID, &name, &optionID, &m.Amount); err != nil {
			return nil, err
		}
		m.Name = name.String
		m.ShippingOptionID = optionID.String
		methods = append(methods, m)
	}
	return methods, rows.Err()
}
