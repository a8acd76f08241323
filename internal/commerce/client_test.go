package commerce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/metrics"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	opts = append([]Option{withRetryInterval(time.Millisecond)}, opts...)
	return NewClient(server.URL+"/", "pk_test", nil, opts...), &hits
}

func TestGetOrder_DecodesOrderAndSendsKey(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/store/orders/order_01", r.URL.Path)
		assert.Equal(t, "pk_test", r.Header.Get("x-publishable-api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"order":{"id":"order_01","display_id":42,"status":"shipped","total":19.5}}`))
	})

	order, err := client.GetOrder(context.Background(), "order_01")
	require.NoError(t, err)
	assert.Equal(t, 42, order.DisplayID)
	assert.Equal(t, domain.OrderStatusShipped, order.Status)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGetOrder_NotFoundIsNotRetried(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"type":"not_found","message":"Order with id: order_x was not found"}`))
	})

	_, err := client.GetOrder(context.Background(), "order_x")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"cart":{"id":"cart_01","email":"a@b.c","shipping_methods":[]}}`))
	})

	cart, err := client.GetCart(context.Background(), "cart_01")
	require.NoError(t, err)
	assert.Equal(t, "cart_01", cart.ID)
	assert.Equal(t, int32(2), hits.Load())
}

func TestGet_GivesUpAfterMaxRetries(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"database unavailable"}`))
	}, WithMaxRetries(2))

	_, err := client.ListProducts(context.Background(), repository.ProductQuery{Limit: 10})
	require.Error(t, err)
	var upstream *errors.ErrUpstream
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "list products", upstream.Op)
	assert.Equal(t, "database unavailable", upstream.Message(""))
	assert.Equal(t, int32(3), hits.Load())
}

func TestGet_ClientErrorsAreNotRetried(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`invalid country`))
	})

	_, err := client.ListProducts(context.Background(), repository.ProductQuery{CountryCode: "zz"})
	require.Error(t, err)
	assert.True(t, errors.IsUpstream(err))
	assert.Contains(t, err.Error(), "invalid country")
	assert.Equal(t, int32(1), hits.Load())
}

func TestListOrders_RequiresBearerToken(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a token")
	})

	_, err := client.ListOrders(context.Background())
	assert.True(t, errors.IsUnauthorized(err))
	assert.Zero(t, hits.Load())
}

func TestListOrders_ForwardsBearerToken(t *testing.T) {
	base, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/store/customers/me/orders", r.URL.Path)
		assert.Equal(t, "Bearer tok_123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"orders":[{"id":"order_01","display_id":1,"status":"pending"},{"id":"order_02","display_id":2,"status":"completed"}]}`))
	})

	orders, err := base.WithBearerToken("Bearer tok_123").ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, domain.OrderStatusCompleted, orders[1].Status)
	assert.Empty(t, base.bearerToken, "WithBearerToken must not mutate the receiver")
}

func TestListOrders_Unauthorized(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
	})

	_, err := client.WithBearerToken("expired").ListOrders(context.Background())
	var unauthorized *errors.ErrUnauthorized
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, "Unauthorized", unauthorized.Message)
	assert.Equal(t, int32(1), hits.Load())
}

func TestListProducts_QueryAndPriceShapes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/store/products", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "es", r.URL.Query().Get("country_code"))
		assert.Empty(t, r.URL.Query().Get("offset"))
		_, _ = w.Write([]byte(`{
			"count": 2,
			"products": [
				{"id":"prod_1","title":"RollyGraph","handle":"rollygraph","variants":[
					{"id":"var_1","calculated_price":{"calculated_amount":12.5,"currency_code":"eur"}}
				]},
				{"id":"prod_2","title":"Mug","handle":"mug","created_at":"2026-01-02T03:04:05Z","variants":[
					{"id":"var_2","prices":[{"amount":"9.99","currency_code":"eur"},{"amount":7,"currency_code":"usd"}]}
				]}
			]
		}`))
	})

	page, err := client.ListProducts(context.Background(), repository.ProductQuery{Limit: 100, CountryCode: "ES"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	require.Len(t, page.Products, 2)

	calculated, ok := page.Products[0].Variants[0].Price.(domain.CalculatedPrice)
	require.True(t, ok)
	assert.Equal(t, 12.5, *calculated.Amount)

	list, ok := page.Products[1].Variants[0].Price.(domain.PriceList)
	require.True(t, ok)
	require.Len(t, list.Entries, 2)
	assert.Equal(t, 9.99, *list.Entries[0].Amount)
	require.NotNil(t, page.Products[1].CreatedAt)
}

func TestGet_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"order":`))
	})

	_, err := client.GetOrder(context.Background(), "order_01")
	assert.True(t, errors.IsUpstream(err))
}

func TestGet_MissingEnvelopeIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.GetCart(context.Background(), "cart_01")
	assert.True(t, errors.IsNotFound(err))
}

func TestGet_NotConfigured(t *testing.T) {
	_, err := NewClient("", "pk", nil).GetOrder(context.Background(), "order_01")
	assert.True(t, errors.IsUpstream(err))
}

func TestGet_CanceledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetOrder(ctx, "order_01")
	assert.True(t, errors.IsUpstream(err))
}

func TestGet_RecordsLatency(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"order":{"id":"order_01","status":"pending"}}`))
	}, WithMetrics(m))

	_, err := client.GetOrder(context.Background(), "order_01")
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(m.CommerceRequestTime, "storefront_commerce_request_duration_seconds"))
}
