package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/storefront/internal/commerce"
	"github.com/jafarshop/storefront/internal/config"
)

func TestOpen_HTTPDriverForwardsAuthorization(t *testing.T) {
	seen := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"orders":[]}`))
	}))
	defer server.Close()

	cfg := &config.Config{
		Driver:   config.DriverHTTP,
		Commerce: config.CommerceConfig{BaseURL: server.URL, Timeout: time.Second},
	}
	b, err := Open(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	defer b.Close()

	_, ok := b.Backend.(*commerce.Client)
	assert.True(t, ok)

	_, err = b.OrdersFor("Bearer cus_token").ListOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer cus_token", <-seen)

	assert.Same(t, b.Backend, b.OrdersFor(""))
}

func TestOpen_PostgresDriverUnreachable(t *testing.T) {
	cfg := &config.Config{
		Driver: config.DriverPostgres,
		Database: config.DatabaseConfig{
			Host: "127.0.0.1", Port: "1", User: "u", Password: "p", DBName: "d", SSLMode: "disable",
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Open(ctx, cfg, nil, nil)
	assert.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Driver: "grpc"}, nil, nil)
	assert.Error(t, err)
}
