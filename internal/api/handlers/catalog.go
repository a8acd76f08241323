package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/catalog"
	"github.com/jafarshop/storefront/internal/repository"
)

// HandleSearch handles GET /v1/search?q=&countryCode=
func HandleSearch(searcher *catalog.Searcher, defaultCountry string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := searcher.Search(c.Request.Context(), catalog.SearchRequest{
			Query:       c.Query("q"),
			CountryCode: countryCode(c, defaultCountry),
		})
		if err != nil {
			respondError(c, err, catalog.SearchFailedMessage, logger)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleListProducts handles GET /v1/products?sort=&countryCode=
// The page is fetched once and sorted locally; unknown sort modes leave backend order.
func HandleListProducts(products repository.ProductReader, limit int, defaultCountry string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode := catalog.ParseSortMode(c.DefaultQuery("sort", string(catalog.SortRecency)))

		page, err := products.ListProducts(c.Request.Context(), repository.ProductQuery{
			Limit:       limit,
			CountryCode: countryCode(c, defaultCountry),
		})
		if err != nil {
			respondError(c, err, "Failed to list products", logger)
			return
		}
		if page == nil {
			page = &repository.ProductPage{}
		}

		sorted := catalog.SortProducts(page.Products, mode)
		logger.Debug("Products listed", zap.String("sort", string(mode)), zap.Int("count", len(sorted)))
		c.JSON(http.StatusOK, gin.H{
			"products": sorted,
			"count":    page.Count,
			"sort":     mode,
		})
	}
}
