package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort keys accepted by SortProducts.
const (
	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortVendor    = "vendor"
)

// CategoryAll disables category filtering.
const CategoryAll = "all"

// CombineSources returns local products followed by the normalized remote
// ones, each in its original order. Nothing is de-duplicated; remote ids
// are namespaced by the API client so they do not collide with local ids.
func CombineSources(local []Product, remote []RemoteProduct) []Product {
	out := make([]Product, 0, len(local)+len(remote))
	out = append(out, local...)
	for _, r := range remote {
		out = append(out, NormalizeForCart(r))
	}
	return out
}

// FilterByCategory matches category exactly; "all" returns the input as is.
func FilterByCategory(products []Product, category string) []Product {
	if category == CategoryAll {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// FilterByPriceRange keeps products whose parsed price is within [min, max].
// Unparseable prices count as zero.
func FilterByPriceRange(products []Product, min, max float64) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		v := PriceOrZero(p.Price)
		if v >= min && v <= max {
			out = append(out, p)
		}
	}
	return out
}

// SortProducts returns a stably sorted copy. Unknown keys return a copy in
// input order.
func SortProducts(products []Product, key string) []Product {
	out := make([]Product, len(products))
	copy(out, products)

	switch key {
	case SortName:
		col := collate.New(language.English)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Name, out[j].Name) < 0
		})
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool {
			return PriceOrZero(out[i].Price) < PriceOrZero(out[j].Price)
		})
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool {
			return PriceOrZero(out[i].Price) > PriceOrZero(out[j].Price)
		})
	case SortVendor:
		col := collate.New(language.English)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(vendorKey(out[i]), vendorKey(out[j])) < 0
		})
	}
	return out
}

func vendorKey(p Product) string {
	if p.Origin != OriginRemote || p.Remote == nil {
		return ""
	}
	return p.Remote.Vendor
}
