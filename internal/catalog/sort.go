package catalog

import (
	"sort"
	"strings"

	"github.com/jafarshop/storefront/internal/domain"
)

// SortMode selects the catalog ordering
type SortMode string

const (
	SortPriceAscending  SortMode = "price_asc"
	SortPriceDescending SortMode = "price_desc"
	SortRecency         SortMode = "created_at"
)

// ParseSortMode maps a query value to a SortMode. Unknown values are returned
// as-is and sort as a no-op.
func ParseSortMode(raw string) SortMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "price_asc", "price_ascending":
		return SortPriceAscending
	case "price_desc", "price_descending":
		return SortPriceDescending
	case "created_at", "recency":
		return SortRecency
	default:
		return SortMode(raw)
	}
}

// SortProducts returns a sorted copy of products. Ties keep their input order.
func SortProducts(products []domain.Product, mode SortMode) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)

	switch mode {
	case SortPriceAscending, SortPriceDescending:
		prices := make([]float64, len(out))
		for i, p := range out {
			prices[i] = ProductPrice(p)
		}
		descending := mode == SortPriceDescending
		stableSort(out, func(a, b int) bool {
			if descending {
				return prices[a] > prices[b]
			}
			return prices[a] < prices[b]
		})
	case SortRecency:
		stableSort(out, func(a, b int) bool {
			ta, tb := out[a].CreatedAt, out[b].CreatedAt
			switch {
			case ta == nil:
				return false
			case tb == nil:
				return true
			default:
				return ta.After(*tb)
			}
		})
	}
	return out
}

// stableSort reorders products by less, where less compares positions in the
// original order.
func stableSort(products []domain.Product, less func(a, b int) bool) {
	idx := make([]int, len(products))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return less(idx[i], idx[j])
	})
	sorted := make([]domain.Product, len(products))
	for i, j := range idx {
		sorted[i] = products[j]
	}
	copy(products, sorted)
}
