package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/pkg/errors"
)

const defaultProductLimit = 100

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func newProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

// ListProducts returns one page of published products. Variants carry their
// price list for the query's country; prices without a country apply everywhere.
func (r *productRepository) ListProducts(ctx context.Context, q repository.ProductQuery) (*repository.ProductPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultProductLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	var count int
	countQuery := `SELECT COUNT(*) FROM products WHERE status = 'published' AND deleted_at IS NULL`
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
		r.logger.Error("Failed to count products", zap.Error(err))
		return nil, &errors.ErrUpstream{Op: "list products", Err: err}
	}

	products, err := r.listPage(ctx, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, &errors.ErrUpstream{Op: "list products", Err: err}
	}
	if len(products) == 0 {
		return &repository.ProductPage{Products: products, Count: count}, nil
	}

	if err := r.attachVariants(ctx, products, strings.ToLower(q.CountryCode)); err != nil {
		r.logger.Error("Failed to load product variants", zap.Error(err))
		return nil, &errors.ErrUpstream{Op: "list products", Err: err}
	}
	return &repository.ProductPage{Products: products, Count: count}, nil
}

func (r *productRepository) listPage(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	query := `
		SELECT id, title, handle, description, thumbnail, created_at
		FROM products
		WHERE status = 'published' AND deleted_at IS NULL
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		var description sql.NullString
		var thumbnail sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.Title, &p.Handle, &description, &thumbnail, &createdAt); err != nil {
			return nil, err
		}
		if description.Valid {
			p.Description = &description.String
		}
		if thumbnail.Valid {
			p.Thumbnail = &thumbnail.String
		}
		if createdAt.Valid {
			t := createdAt.Time.In(time.UTC)
			p.CreatedAt = &t
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *productRepository) attachVariants(ctx context.Context, products []domain.Product, countryCode string) error {
	productIDs := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		productIDs[i] = p.ID
		index[p.ID] = i
	}

	variantQuery := `
		SELECT id, product_id, title, sku
		FROM product_variants
		WHERE product_id = ANY($1) AND deleted_at IS NULL
		ORDER BY product_id, variant_rank, id
	`
	rows, err := r.db.QueryContext(ctx, variantQuery, pq.Array(productIDs))
	if err != nil {
		return err
	}

	type variantRef struct {
		product int
		variant int
	}
	var variantIDs []string
	refs := make(map[string]variantRef)
	for rows.Next() {
		var v domain.Variant
		var productID string
		var title sql.NullString
		var sku sql.NullString
		if err := rows.Scan(&v.ID, &productID, &title, &sku); err != nil {
			rows.Close()
			return err
		}
		v.Title = title.String
		v.SKU = sku.String
		i, ok := index[productID]
		if !ok {
			continue
		}
		products[i].Variants = append(products[i].Variants, v)
		refs[v.ID] = variantRef{product: i, variant: len(products[i].Variants) - 1}
		variantIDs = append(variantIDs, v.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(variantIDs) == 0 {
		return nil
	}

	priceQuery := `
		SELECT variant_id, amount, currency_code
		FROM variant_prices
		WHERE variant_id = ANY($1) AND (country_code IS NULL OR country_code = $2)
		ORDER BY variant_id, amount
	`
	priceRows, err := r.db.QueryContext(ctx, priceQuery, pq.Array(variantIDs), countryCode)
	if err != nil {
		return err
	}
	defer priceRows.Close()

	lists := make(map[string][]domain.PriceEntry, len(variantIDs))
	for priceRows.Next() {
		var variantID string
		var amount sql.NullFloat64
		var currencyCode sql.NullString
		if err := priceRows.Scan(&variantID, &amount, &currencyCode); err != nil {
			return err
		}
		entry := domain.PriceEntry{CurrencyCode: currencyCode.String}
		if amount.Valid {
			entry.Amount = domain.Amount(amount.Float64)
		}
		lists[variantID] = append(lists[variantID], entry)
	}
	if err := priceRows.Err(); err != nil {
		return err
	}

	// Variants without any price row keep a nil Price
	for variantID, entries := range lists {
		ref, ok := refs[variantID]
		if !ok {
			continue
		}
		products[ref.product].Variants[ref.variant].Price = domain.PriceList{Entries: entries}
	}
	return nil
}
