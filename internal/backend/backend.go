// Package backend selects and builds the commerce read adapter from config.
package backend

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/commerce"
	"github.com/jafarshop/storefront/internal/config"
	"github.com/jafarshop/storefront/internal/metrics"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/internal/repository/postgres"
)

// Backend is the configured read adapter plus the per-caller order scoping
type Backend struct {
	repository.Backend

	client *commerce.Client
	store  *postgres.Store
	db     *sql.DB
}

// Open builds the adapter named by cfg.Driver
func Open(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case config.DriverHTTP, "":
		client := commerce.NewClient(cfg.Commerce.BaseURL, cfg.Commerce.PublishableKey, logger,
			commerce.WithTimeout(cfg.Commerce.Timeout),
			commerce.WithMaxRetries(cfg.Commerce.MaxRetries),
			commerce.WithMetrics(m),
		)
		logger.Info("Using commerce store API", zap.String("base_url", cfg.Commerce.BaseURL))
		return &Backend{Backend: client, client: client}, nil

	case config.DriverPostgres:
		db, err := postgres.NewConnection(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		store := postgres.NewStore(db, logger)
		logger.Info("Using commerce database read replica",
			zap.String("host", cfg.Database.Host),
			zap.String("db", cfg.Database.DBName),
		)
		return &Backend{Backend: store, store: store, db: db}, nil

	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Driver)
	}
}

// OrdersFor scopes order reads to a caller. For the store API the caller's
// Authorization header is forwarded; the database adapter has no notion of a
// caller token and serves unscoped reads.
func (b *Backend) OrdersFor(authorization string) repository.OrderReader {
	if b.client != nil && authorization != "" {
		return b.client.WithBearerToken(authorization)
	}
	return b.Backend
}

// ForCustomer scopes order listing to a known customer: a bearer token for the
// store API, a customer ID for the database adapter.
func (b *Backend) ForCustomer(customer string) repository.OrderReader {
	if customer == "" {
		return b.Backend
	}
	if b.store != nil {
		return b.store.ForCustomer(customer)
	}
	return b.client.WithBearerToken(customer)
}

// Close releases the database connection, if any
func (b *Backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
