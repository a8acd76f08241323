package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/checkout"
	"github.com/jafarshop/storefront/internal/repository"
)

// HandleGetCheckoutStep handles GET /v1/carts/:id/checkout-step
// The cart is fetched fresh on every call; the step is never stored.
func HandleGetCheckoutStep(carts repository.CartReader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID := c.Param("id")
		cart, err := carts.GetCart(c.Request.Context(), cartID)
		if err != nil {
			respondError(c, err, "Failed to load cart", logger)
			return
		}

		step := checkout.ResolveStep(cart)
		c.JSON(http.StatusOK, gin.H{
			"cart_id": cartID,
			"step":    step,
		})
	}
}
