// Package catalog holds the storefront's product shapes and the pure
// functions that reconcile the static local catalog with records fetched
// from the remote commerce API.
package catalog

// Origin discriminates where a product record came from.
type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
)

func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Product is the shape used by the cart, search and display code. Local
// catalog entries carry the skincare detail fields; remote-origin products
// carry empty detail fields and a Remote passthrough block.
type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Price          string   `json:"price"`
	Category       string   `json:"category"`
	Image          string   `json:"image"`
	Images         []string `json:"images"`
	Description    string   `json:"description"`
	InStock        bool     `json:"inStock"`
	Benefits       []string `json:"benefits"`
	SkinType       []string `json:"skinType"`
	KeyIngredients []string `json:"keyIngredients"`
	AllIngredients string   `json:"allIngredients"`
	HowToUse       []string `json:"howToUse"`
	Size           string   `json:"size"`

	Origin Origin      `json:"origin"`
	Remote *RemoteMeta `json:"remote,omitempty"`
}

// RemoteMeta is the remote-only metadata kept on a normalized product.
type RemoteMeta struct {
	Handle      string   `json:"handle"`
	Vendor      string   `json:"vendor,omitempty"`
	ProductType string   `json:"productType,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ShopifyID   string   `json:"shopifyId"`
}

// Variant is one purchasable option of a remote product.
type Variant struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Available       bool              `json:"available"`
	Price           string            `json:"price"`
	SelectedOptions map[string]string `json:"selectedOptions,omitempty"`
}

// RemoteProduct is one record as built from a commerce API response.
type RemoteProduct struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	Images      []string  `json:"images"`
	InStock     bool      `json:"inStock"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"productType"`
	Tags        []string  `json:"tags"`
	Variants    []Variant `json:"variants"`
	ShopifyID   string    `json:"shopifyId"`
}

// Listing is the closed set of product shapes: Product and RemoteProduct.
type Listing interface {
	listing()
}

func (Product) listing()       {}
func (RemoteProduct) listing() {}

// Page is one page of remote results.
type Page struct {
	Products    []RemoteProduct `json:"products"`
	HasNextPage bool            `json:"hasNextPage"`
	EndCursor   string          `json:"endCursor,omitempty"`
}

// PageRequest selects a page; After is the cursor returned by the previous page.
type PageRequest struct {
	Count int
	After string
}
