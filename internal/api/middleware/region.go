package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	RegionContextKey        = "region"
	DefaultRegionCookieName = "_region"
)

// RegionMiddleware makes sure every session carries a region cookie. When the
// cookie is missing it is set once to defaultCountry; handlers read the value
// with GetRegionFromContext.
func RegionMiddleware(cookieName, defaultCountry string, logger *zap.Logger) gin.HandlerFunc {
	if cookieName == "" {
		cookieName = DefaultRegionCookieName
	}
	defaultCountry = strings.ToLower(strings.TrimSpace(defaultCountry))
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		region, err := c.Cookie(cookieName)
		region = strings.ToLower(strings.TrimSpace(region))
		if err != nil || region == "" {
			region = defaultCountry
			// Session cookie: MaxAge 0 lets it expire with the browser session
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     cookieName,
				Value:    region,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			logger.Debug("Region cookie set", zap.String("region", region))
		}

		c.Set(RegionContextKey, region)
		c.Next()
	}
}

// GetRegionFromContext returns the region resolved by RegionMiddleware
func GetRegionFromContext(c *gin.Context) (string, bool) {
	region, exists := c.Get(RegionContextKey)
	if !exists {
		return "", false
	}
	r, ok := region.(string)
	return r, ok && r != ""
}
