package catalog

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/metrics"
	"github.com/jafarshop/storefront/internal/repository"
	"github.com/jafarshop/storefront/pkg/errors"
)

const (
	// SearchCurrencyCode is the currency shown next to search prices. Search
	// prices are presentational and never used for checkout math.
	SearchCurrencyCode = "eur"

	// SearchFailedMessage is reported when the upstream error carries no text
	SearchFailedMessage = "Failed to search products"

	queryRequiredMessage = "Search query is required"
	defaultSearchLimit   = 100
)

// SearchRequest is a free-text catalog search
type SearchRequest struct {
	Query       string
	CountryCode string
}

// SearchResponse is the normalized search payload
type SearchResponse struct {
	Products []domain.SearchResultItem `json:"products"`
	Count    int                       `json:"count"`
}

// Searcher filters a fetched product page against a free-text query
type Searcher struct {
	products repository.ProductReader
	limit    int
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewSearcher creates a Searcher. limit <= 0 uses the default page size.
func NewSearcher(products repository.ProductReader, limit int, m *metrics.Metrics, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return &Searcher{
		products: products,
		limit:    limit,
		metrics:  m,
		logger:   logger,
	}
}

// Search returns the products whose title or description contains the query,
// case-insensitively. An empty query fails with ErrInvalidRequest before any fetch.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	query := req.Query
	if strings.TrimSpace(query) == "" {
		s.metrics.Search("invalid")
		return nil, &errors.ErrInvalidRequest{Message: queryRequiredMessage, Field: "q"}
	}

	page, err := s.products.ListProducts(ctx, repository.ProductQuery{
		Limit:       s.limit,
		CountryCode: req.CountryCode,
	})
	if err != nil {
		s.logger.Error("Search: product listing failed", zap.String("query", query), zap.Error(err))
		s.metrics.Search("upstream_error")
		var upstream *errors.ErrUpstream
		if !stderrors.As(err, &upstream) {
			upstream = &errors.ErrUpstream{Op: "list products", Err: err}
		}
		return nil, upstream
	}
	if page == nil {
		page = &repository.ProductPage{}
	}

	items := FilterProducts(page.Products, query)
	s.logger.Debug("Search completed",
		zap.String("query", query),
		zap.String("country_code", req.CountryCode),
		zap.Int("fetched", len(page.Products)),
		zap.Int("matched", len(items)),
	)
	s.metrics.Search("ok")
	return &SearchResponse{Products: items, Count: len(items)}, nil
}

// FilterProducts keeps products whose title or description contains query,
// ignoring case, and normalizes them into search result items.
func FilterProducts(products []domain.Product, query string) []domain.SearchResultItem {
	needle := strings.ToLower(query)
	items := make([]domain.SearchResultItem, 0)
	for _, p := range products {
		if !matches(p, needle) {
			continue
		}
		items = append(items, toSearchResult(p))
	}
	return items
}

func matches(p domain.Product, needle string) bool {
	if strings.Contains(strings.ToLower(p.Title), needle) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), needle)
}

func toSearchResult(p domain.Product) domain.SearchResultItem {
	item := domain.SearchResultItem{
		ID:          p.ID,
		Title:       p.Title,
		Handle:      p.Handle,
		Thumbnail:   p.Thumbnail,
		Description: p.Description,
	}
	if len(p.Variants) > 0 && p.Variants[0].Price != nil {
		item.Price = &domain.SearchPrice{
			Amount:       fmt.Sprintf("%.2f", ResolvePrice(p.Variants[0])),
			CurrencyCode: SearchCurrencyCode,
		}
	}
	return item
}
