package domain

// OrderStatus is the backend-owned order status. Values outside the known
// set are carried through unchanged.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusRequiresAction OrderStatus = "requires_action"
	OrderStatusFulfilled      OrderStatus = "fulfilled"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCanceled       OrderStatus = "canceled"
	OrderStatusArchived       OrderStatus = "archived"
)

// IsKnown reports whether the status is one this storefront has a label for
func (s OrderStatus) IsKnown() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusRequiresAction,
		OrderStatusFulfilled,
		OrderStatusShipped,
		OrderStatusCompleted,
		OrderStatusCanceled,
		OrderStatusArchived:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further status change is expected
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled || s == OrderStatusArchived
}

func (s OrderStatus) String() string {
	return string(s)
}

// CheckoutStep is the next stage a shopper must complete. It is derived from
// the cart on every evaluation and never stored.
type CheckoutStep string

const (
	CheckoutStepAddress  CheckoutStep = "address"
	CheckoutStepDelivery CheckoutStep = "delivery"
	CheckoutStepPayment  CheckoutStep = "payment"
)

func (s CheckoutStep) String() string {
	return string(s)
}
