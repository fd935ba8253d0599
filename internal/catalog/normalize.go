package catalog

import "strings"

// Discriminate reports whether l is remote-origin. Every other function in
// this file dispatches on it.
func Discriminate(l Listing) bool {
	switch v := l.(type) {
	case RemoteProduct:
		return true
	case *RemoteProduct:
		return v != nil
	case Product:
		return v.Origin == OriginRemote
	case *Product:
		return v != nil && v.Origin == OriginRemote
	default:
		return false
	}
}

// NormalizeForCart maps a listing into the local Product shape. Local
// products are returned unchanged.
func NormalizeForCart(l Listing) Product {
	switch v := l.(type) {
	case Product:
		return v
	case *Product:
		if v == nil {
			return Product{}
		}
		return *v
	case RemoteProduct:
		return fromRemote(v)
	case *RemoteProduct:
		if v == nil {
			return Product{}
		}
		return fromRemote(*v)
	default:
		return Product{}
	}
}

func fromRemote(r RemoteProduct) Product {
	return Product{
		ID:             r.ID,
		Name:           r.Name,
		Price:          r.Price,
		Category:       r.Category,
		Image:          r.Image,
		Images:         cloneStrings(r.Images),
		Description:    r.Description,
		InStock:        r.InStock,
		Benefits:       []string{},
		SkinType:       []string{},
		KeyIngredients: []string{},
		AllIngredients: "",
		HowToUse:       []string{},
		Size:           "",
		Origin:         OriginRemote,
		Remote: &RemoteMeta{
			Handle:      r.Handle,
			Vendor:      r.Vendor,
			ProductType: r.ProductType,
			Tags:        cloneStrings(r.Tags),
			ShopifyID:   r.ShopifyID,
		},
	}
}

// ResolveDisplayURL returns the product page path: remote products with a
// handle are routed by slug, everything else by id.
func ResolveDisplayURL(l Listing) string {
	if Discriminate(l) {
		if h := handleOf(l); h != "" {
			return "/products/" + h
		}
	}
	return "/product/" + NormalizeForCart(l).ID
}

// DisplayName renders "name by vendor" for remote products with a vendor.
func DisplayName(l Listing) string {
	p := NormalizeForCart(l)
	if Discriminate(l) {
		if v := vendorOf(l); v != "" {
			return p.Name + " by " + v
		}
	}
	return p.Name
}

// IsValidProduct is a structural guard used before display. It accepts
// typed listings and loosely decoded JSON objects.
func IsValidProduct(v any) bool {
	switch p := v.(type) {
	case Product:
		return nonEmpty(p.ID, p.Name, p.Price, p.Image)
	case *Product:
		return p != nil && nonEmpty(p.ID, p.Name, p.Price, p.Image)
	case RemoteProduct:
		return nonEmpty(p.ID, p.Name, p.Price, p.Image)
	case *RemoteProduct:
		return p != nil && nonEmpty(p.ID, p.Name, p.Price, p.Image)
	case map[string]any:
		for _, k := range []string{"id", "name", "price", "image"} {
			s, ok := p[k].(string)
			if !ok || strings.TrimSpace(s) == "" {
				return false
			}
		}
		_, ok := p["inStock"].(bool)
		return ok
	default:
		return false
	}
}

func handleOf(l Listing) string {
	switch v := l.(type) {
	case RemoteProduct:
		return v.Handle
	case *RemoteProduct:
		return v.Handle
	}
	if p := NormalizeForCart(l); p.Remote != nil {
		return p.Remote.Handle
	}
	return ""
}

func vendorOf(l Listing) string {
	switch v := l.(type) {
	case RemoteProduct:
		return v.Vendor
	case *RemoteProduct:
		return v.Vendor
	}
	if p := NormalizeForCart(l); p.Remote != nil {
		return p.Remote.Vendor
	}
	return ""
}

func nonEmpty(vals ...string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
