package shopify

import (
	"encoding/json"
	"strings"

	"github.com/suran0330/kicholgy-sub001/internal/catalog"
)

// IDPrefix namespaces remote product ids so they never collide with ids in
// the local catalog.
const IDPrefix = "shopify-"

// DefaultCategory is used for products without a product type.
const DefaultCategory = "Uncategorized"

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type imageNode struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type variantNode struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	AvailableForSale bool   `json:"availableForSale"`
	Price            money  `json:"price"`
	SelectedOptions  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"selectedOptions"`
}

type productNode struct {
	ID               string   `json:"id"`
	Handle           string   `json:"handle"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Vendor           string   `json:"vendor"`
	ProductType      string   `json:"productType"`
	Tags             []string `json:"tags"`
	AvailableForSale bool     `json:"availableForSale"`
	PriceRange       struct {
		MinVariantPrice money `json:"minVariantPrice"`
	} `json:"priceRange"`
	Images struct {
		Edges []struct {
			Node imageNode `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Variants struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

type productConnection struct {
	Edges []struct {
		Node productNode `json:"node"`
	} `json:"edges"`
	PageInfo struct {
		HasNextPage bool    `json:"hasNextPage"`
		EndCursor   *string `json:"endCursor"`
	} `json:"pageInfo"`
}

type productsData struct {
	Products productConnection `json:"products"`
}

type collectionData struct {
	Collection *struct {
		Products productConnection `json:"products"`
	} `json:"collection"`
}

type productData struct {
	Product *productNode `json:"product"`
}

func (c productConnection) page() *catalog.Page {
	p := &catalog.Page{
		Products:    make([]catalog.RemoteProduct, 0, len(c.Edges)),
		HasNextPage: c.PageInfo.HasNextPage,
	}
	if c.PageInfo.EndCursor != nil {
		p.EndCursor = *c.PageInfo.EndCursor
	}
	for _, e := range c.Edges {
		p.Products = append(p.Products, toRemote(e.Node))
	}
	return p
}

// toRemote maps one API node into the remote-normalized product record.
func toRemote(n productNode) catalog.RemoteProduct {
	images := make([]string, 0, len(n.Images.Edges))
	for _, e := range n.Images.Edges {
		if e.Node.URL != "" {
			images = append(images, e.Node.URL)
		}
	}
	image := ""
	if len(images) > 0 {
		image = images[0]
	}

	variants := make([]catalog.Variant, 0, len(n.Variants.Edges))
	for _, e := range n.Variants.Edges {
		v := e.Node
		opts := make(map[string]string, len(v.SelectedOptions))
		for _, o := range v.SelectedOptions {
			opts[o.Name] = o.Value
		}
		variants = append(variants, catalog.Variant{
			ID:              v.ID,
			Title:           v.Title,
			Available:       v.AvailableForSale,
			Price:           formatMoney(v.Price),
			SelectedOptions: opts,
		})
	}

	category := strings.TrimSpace(n.ProductType)
	if category == "" {
		category = DefaultCategory
	}
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}

	return catalog.RemoteProduct{
		ID:          IDPrefix + n.Handle,
		Handle:      n.Handle,
		Name:        n.Title,
		Description: n.Description,
		Price:       formatMoney(n.PriceRange.MinVariantPrice),
		Category:    category,
		Image:       image,
		Images:      images,
		InStock:     n.AvailableForSale,
		Vendor:      n.Vendor,
		ProductType: n.ProductType,
		Tags:        tags,
		Variants:    variants,
		ShopifyID:   n.ID,
	}
}

// formatMoney renders an API amount in the catalog's "$7.99" form. An
// unparseable amount is passed through so the catalog price guard sees it.
func formatMoney(m money) string {
	f, err := catalog.ParsePrice(m.Amount)
	if err != nil {
		return m.Amount
	}
	return catalog.FormatPrice(f)
}
