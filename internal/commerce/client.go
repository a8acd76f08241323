// Package commerce is the HTTP adapter for the commerce backend's store API.
package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/metrics"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/pkg/errors"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3

	publishableKeyHeader = "x-publishable-api-key"
	maxErrorBody         = 4096
)

// Client calls the store API with the storefront's publishable key
type Client struct {
	baseURL        string
	publishableKey string
	bearerToken    string
	httpClient     *http.Client
	maxRetries     int
	retryInterval  time.Duration
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

var _ repository.Backend = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxRetries sets how many times a failed request is retried after the first attempt
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func withRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

// NewClient creates a store API client
func NewClient(baseURL, publishableKey string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL:        strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		publishableKey: publishableKey,
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		maxRetries:     DefaultMaxRetries,
		retryInterval:  500 * time.Millisecond,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBearerToken returns a copy of the client that forwards token as the
// customer's credentials. Customer-scoped calls such as ListOrders need it.
func (c *Client) WithBearerToken(token string) *Client {
	clone := *c
	clone.bearerToken = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	return &clone
}

// GetOrder fetches a single order by ID
func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var out struct {
		Order *domain.Order `json:"order"`
	}
	err := c.get(ctx, request{
		op:       "get order",
		path:     "/store/orders/" + url.PathEscape(id),
		resource: "order",
		id:       id,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Order == nil {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id}
	}
	return out.Order, nil
}

// ListOrders lists the orders of the customer identified by the bearer token
func (c *Client) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	if c.bearerToken == "" {
		return nil, &errors.ErrUnauthorized{Message: "customer token required to list orders"}
	}
	var out struct {
		Orders []*domain.Order `json:"orders"`
	}
	if err := c.get(ctx, request{op: "list orders", path: "/store/customers/me/orders"}, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// ListProducts fetches one page of the catalog, priced for the query's country
func (c *Client) ListProducts(ctx context.Context, query repository.ProductQuery) (*repository.ProductPage, error) {
	params := url.Values{}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Offset > 0 {
		params.Set("offset", strconv.Itoa(query.Offset))
	}
	if query.CountryCode != "" {
		params.Set("country_code", strings.ToLower(query.CountryCode))
	}

	var out struct {
		Products []domain.Product `json:"products"`
		Count    int              `json:"count"`
	}
	if err := c.get(ctx, request{op: "list products", path: "/store/products", query: params}, &out); err != nil {
		return nil, err
	}
	return &repository.ProductPage{Products: out.Products, Count: out.Count}, nil
}

// GetCart fetches a cart by ID
func (c *Client) GetCart(ctx context.Context, id string) (*domain.Cart, error) {
	var out struct {
		Cart *domain.Cart `json:"cart"`
	}
	err := c.get(ctx, request{
		op:       "get cart",
		path:     "/store/carts/" + url.PathEscape(id),
		resource: "cart",
		id:       id,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Cart == nil {
		return nil, &errors.ErrNotFound{Resource: "cart", ID: id}
	}
	return out.Cart, nil
}

type request struct {
	op       string
	path     string
	query    url.Values
	resource string
	id       string
}

// statusError is a non-2xx response; 5xx ones are retried
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf("commerce backend returned %d", e.status)
}

// get performs a GET with retries and decodes the JSON body into out. Every
// returned error is one of the pkg/errors types.
func (c *Client) get(ctx context.Context, r request, out interface{}) error {
	if c.baseURL == "" {
		return &errors.ErrUpstream{Op: r.op, Err: fmt.Errorf("commerce client not configured: base URL required")}
	}
	u, err := url.Parse(c.baseURL + r.path)
	if err != nil {
		return &errors.ErrUpstream{Op: r.op, Err: err}
	}
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	bo.MaxInterval = 5 * time.Second

	started := time.Now()
	attempt := 0
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		body, err := c.do(ctx, u.String(), r)
		if err != nil {
			c.logger.Warn("Commerce request failed",
				zap.String("op", r.op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return body, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
	)
	c.metrics.ObserveCommerceRequest(r.op, time.Since(started))
	if err != nil {
		return errors.Classify(r.op, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &errors.ErrUpstream{Op: r.op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, rawURL string, r request) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.publishableKey != "" {
		req.Header.Set(publishableKeyHeader, c.publishableKey)
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return body, nil
	}

	message := errorMessage(resp.Body)
	switch {
	case resp.StatusCode == http.StatusNotFound && r.resource != "":
		return nil, backoff.Permanent(&errors.ErrNotFound{Resource: r.resource, ID: r.id})
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, backoff.Permanent(&errors.ErrUnauthorized{Message: message})
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &statusError{status: resp.StatusCode, message: message}
	default:
		return nil, backoff.Permanent(&statusError{status: resp.StatusCode, message: message})
	}
}

// errorMessage extracts the backend's {"message": ...} text, falling back to the raw body
func errorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(raw))
}
