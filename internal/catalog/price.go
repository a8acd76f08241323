package catalog

import (
	"math"

	"github.com/jafarshop/storefront/internal/domain"
)

// ResolvePrice returns the comparable price of a variant. Missing or invalid
// amounts resolve to 0, which callers treat as "unknown/cheapest", not "free".
func ResolvePrice(v domain.Variant) float64 {
	if v.Price == nil {
		return 0
	}
	r := &priceResolver{}
	v.Price.Accept(r)
	return r.amount
}

// ProductPrice returns the lowest resolved price across the product's variants.
// A product without variants is priced at +Inf.
func ProductPrice(p domain.Product) float64 {
	if len(p.Variants) == 0 {
		return math.Inf(1)
	}
	lowest := math.Inf(1)
	for _, v := range p.Variants {
		if price := ResolvePrice(v); price < lowest {
			lowest = price
		}
	}
	return lowest
}

type priceResolver struct {
	amount float64
}

func (r *priceResolver) VisitCalculated(p domain.CalculatedPrice) {
	r.amount = sanitize(p.Amount)
}

func (r *priceResolver) VisitList(p domain.PriceList) {
	if len(p.Entries) == 0 {
		r.amount = 0
		return
	}
	lowest := math.Inf(1)
	for _, entry := range p.Entries {
		if amount := sanitize(entry.Amount); amount < lowest {
			lowest = amount
		}
	}
	r.amount = lowest
}

// sanitize maps absent, NaN, infinite and negative amounts to 0
func sanitize(amount *float64) float64 {
	if amount == nil {
		return 0
	}
	f := *amount
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
