package postgres

import (
	"context"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/pkg/errors"
)

var orderRowColumns = []string{"id", "display_id", "status", "email", "currency_code", "total", "metadata", "created_at"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, nil), mock
}

func TestGetOrder(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
		WithArgs("order_01").
		WillReturnRows(sqlmock.NewRows(orderRowColumns).
			AddRow("order_01", 7, "shipped", "jane@example.com", "eur", 42.5, []byte(`{"gift":true}`), created))

	order, err := store.GetOrder(context.Background(), "order_01")
	require.NoError(t, err)
	assert.Equal(t, 7, order.DisplayID)
	assert.Equal(t, domain.OrderStatusShipped, order.Status)
	assert.Equal(t, "jane@example.com", order.Email)
	assert.Equal(t, true, order.Metadata["gift"])
	require.NotNil(t, order.CreatedAt)
	assert.True(t, created.Equal(*order.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
		WithArgs("order_missing").
		WillReturnRows(sqlmock.NewRows(orderRowColumns))

	_, err := store.GetOrder(context.Background(), "order_missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestGetOrder_DatabaseError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
		WithArgs("order_01").
		WillReturnError(stderrors.New("connection refused"))

	_, err := store.GetOrder(context.Background(), "order_01")
	var upstream *errors.ErrUpstream
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "get order", upstream.Op)
}

func TestListOrders_RequiresCustomer(t *testing.T) {
	store, mock := newMockStore(t)

	_, err := store.ListOrders(context.Background())
	assert.True(t, errors.IsUnauthorized(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrders_ForCustomer(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE customer_id = $1")).
		WithArgs("cus_01").
		WillReturnRows(sqlmock.NewRows(orderRowColumns).
			AddRow("order_02", 2, "pending", nil, "eur", 10.0, nil, nil).
			AddRow("order_01", 1, "completed", nil, "eur", 5.0, nil, nil))

	orders, err := store.ForCustomer("cus_01").ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "order_02", orders[0].ID)
	assert.Nil(t, orders[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = store.ListOrders(context.Background())
	assert.True(t, errors.IsUnauthorized(err), "ForCustomer must not scope the original store")
}

func TestListProducts_LoadsVariantsAndPrices(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM products")).
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "handle", "description", "thumbnail", "created_at"}).
			AddRow("prod_1", "RollyGraph", "rollygraph", "A rolling graph", nil, created).
			AddRow("prod_2", "Mug", "mug", nil, "https://cdn.example.com/mug.png", nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM product_variants")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "title", "sku"}).
			AddRow("var_1", "prod_1", "Default", "RG-1").
			AddRow("var_2", "prod_2", "Large", nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM variant_prices")).
		WithArgs(sqlmock.AnyArg(), "es").
		WillReturnRows(sqlmock.NewRows([]string{"variant_id", "amount", "currency_code"}).
			AddRow("var_1", 12.5, "eur").
			AddRow("var_1", nil, "usd"))

	page, err := store.ListProducts(context.Background(), repository.ProductQuery{CountryCode: "ES"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	require.Len(t, page.Products, 2)

	rolly := page.Products[0]
	require.NotNil(t, rolly.Description)
	assert.Equal(t, "A rolling graph", *rolly.Description)
	assert.Nil(t, rolly.Thumbnail)
	require.Len(t, rolly.Variants, 1)
	assert.Equal(t, "RG-1", rolly.Variants[0].SKU)
	list, ok := rolly.Variants[0].Price.(domain.PriceList)
	require.True(t, ok)
	require.Len(t, list.Entries, 2)
	assert.Equal(t, 12.5, *list.Entries[0].Amount)
	assert.Nil(t, list.Entries[1].Amount)

	mug := page.Products[1]
	assert.Nil(t, mug.Description)
	require.Len(t, mug.Variants, 1)
	assert.Nil(t, mug.Variants[0].Price, "no price rows means no representation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProducts_EmptyPageSkipsVariantQueries(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM products")).
		WithArgs(10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "handle", "description", "thumbnail", "created_at"}))

	page, err := store.ListProducts(context.Background(), repository.ProductQuery{Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProducts_CountFails(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products")).
		WillReturnError(stderrors.New("timeout"))

	_, err := store.ListProducts(context.Background(), repository.ProductQuery{})
	assert.True(t, errors.IsUpstream(err))
}

func TestGetCart(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM carts")).
		WithArgs("cart_01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "region_id", "currency_code", "total", "shipping_address"}).
			AddRow("cart_01", "jane@example.com", "reg_eu", "eur", 30.0, []byte(`{"address_1":"Calle Mayor 1","city":"Madrid"}`)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_shipping_methods")).
		WithArgs("cart_01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "shipping_option_id", "amount"}).
			AddRow("sm_1", "Standard", "so_1", 4.5))

	cart, err := store.GetCart(context.Background(), "cart_01")
	require.NoError(t, err)
	require.NotNil(t, cart.Email)
	assert.Equal(t, "jane@example.com", *cart.Email)
	require.NotNil(t, cart.ShippingAddress)
	assert.Equal(t, "Calle Mayor 1", cart.ShippingAddress.Address1)
	require.Len(t, cart.ShippingMethods, 1)
	assert.Equal(t, "Standard", cart.ShippingMethods[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCart_WithoutAddressOrEmail(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM carts")).
		WithArgs("cart_02").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "region_id", "currency_code", "total", "shipping_address"}).
			AddRow("cart_02", nil, nil, nil, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_shipping_methods")).
		WithArgs("cart_02").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "shipping_option_id", "amount"}))

	cart, err := store.GetCart(context.Background(), "cart_02")
	require.NoError(t, err)
	assert.Nil(t, cart.Email)
	assert.Nil(t, cart.ShippingAddress)
	assert.Empty(t, cart.ShippingMethods)
}

func TestGetCart_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM carts")).
		WithArgs("cart_missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "region_id", "currency_code", "total", "shipping_address"}))

	_, err := store.GetCart(context.Background(), "cart_missing")
	assert.True(t, errors.IsNotFound(err))
}
