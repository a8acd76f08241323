package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/api/middleware"
	"github.com/jafarshop/storefront/pkg/errors"
)

// respondError writes err as {"message": ...} with the status its type maps to.
// fallback is used when an upstream failure carries no text.
func respondError(c *gin.Context, err error, fallback string, logger *zap.Logger) {
	var (
		invalid      *errors.ErrInvalidRequest
		notFound     *errors.ErrNotFound
		unauthorized *errors.ErrUnauthorized
		upstream     *errors.ErrUpstream
	)
	// An upstream failure wins over whatever typed error it wraps.
	switch {
	case stderrors.As(err, &upstream):
		logger.Error("Upstream request failed",
			zap.String("op", upstream.Op),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": upstream.Message(fallback)})
	case stderrors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"message": invalid.Error()})
	case stderrors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFound.Error()})
	case stderrors.As(err, &unauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": unauthorized.Error()})
	default:
		logger.Error("Unclassified error", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		message := fallback
		if message == "" {
			message = errors.GenericUpstreamMessage
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": message})
	}
}

// countryCode resolves the request's country: explicit query value, then the
// region cookie, then defaultCountry.
func countryCode(c *gin.Context, defaultCountry string) string {
	if code := c.Query("countryCode"); code != "" {
		return code
	}
	if region, ok := middleware.GetRegionFromContext(c); ok {
		return region
	}
	return defaultCountry
}
