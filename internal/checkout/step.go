// Package checkout derives the checkout phase from the current cart contents.
package checkout

import (
	"strings"

	"github.com/jafarshop/storefront/internal/domain"
)

// ResolveStep returns the next checkout step for cart. It keeps no history:
// the same cart always yields the same step, so checkout can be re-entered at
// any step. A missing address line or email always means the address step.
func ResolveStep(cart *domain.Cart) domain.CheckoutStep {
	if cart == nil || !cart.ShippingAddress.HasPrimaryLine() || !hasEmail(cart) {
		return domain.CheckoutStepAddress
	}
	if len(cart.ShippingMethods) == 0 {
		return domain.CheckoutStepDelivery
	}
	return domain.CheckoutStepPayment
}

func hasEmail(cart *domain.Cart) bool {
	return cart.Email != nil && strings.TrimSpace(*cart.Email) != ""
}
