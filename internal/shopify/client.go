// Package shopify is a small client for the Shopify Storefront GraphQL API,
// returning records already mapped into catalog.RemoteProduct.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/suran0330/kicholgy-sub001/internal/catalog"
)

const (
	DefaultAPIVersion = "2024-01"
	DefaultPageSize   = 20
	maxPageSize       = 250
	maxResponseBytes  = 8 << 20
)

var (
	ErrNotConfigured = errors.New("shopify: storefront API is not configured")
	ErrNotFound      = errors.New("shopify: not found")
)

// Config selects the store. Endpoint overrides the URL derived from
// StoreDomain and APIVersion.
type Config struct {
	StoreDomain     string
	StorefrontToken string
	APIVersion      string
	Endpoint        string
	Timeout         time.Duration
}

type Client struct {
	endpoint string
	token    string
	http     *http.Client
	log      *zap.Logger
	byHandle singleflight.Group
}

func New(cfg Config, httpClient *http.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	domain := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(cfg.StoreDomain), "https://"), "/")
	if endpoint == "" && domain != "" {
		version := cfg.APIVersion
		if version == "" {
			version = DefaultAPIVersion
		}
		endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", domain, version)
	}
	return &Client{
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.StorefrontToken),
		http:     httpClient,
		log:      log,
	}
}

// IsConfigured gates every other call.
func (c *Client) IsConfigured() bool {
	return c.endpoint != "" && c.token != ""
}

func (c *Client) ListProducts(ctx context.Context, req catalog.PageRequest) (*catalog.Page, error) {
	return c.products(ctx, req, nil)
}

func (c *Client) FeaturedProducts(ctx context.Context, count int) ([]catalog.RemoteProduct, error) {
	page, err := c.products(ctx, catalog.PageRequest{Count: count}, map[string]any{"query": "tag:featured"})
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

func (c *Client) RecentProducts(ctx context.Context, count int) ([]catalog.RemoteProduct, error) {
	page, err := c.products(ctx, catalog.PageRequest{Count: count}, map[string]any{"sortKey": "CREATED_AT", "reverse": true})
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

func (c *Client) BestSellingProducts(ctx context.Context, count int) ([]catalog.RemoteProduct, error) {
	page, err := c.products(ctx, catalog.PageRequest{Count: count}, map[string]any{"sortKey": "BEST_SELLING"})
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

// CollectionProducts pages through one collection. An unknown collection
// handle fails with ErrNotFound.
func (c *Client) CollectionProducts(ctx context.Context, handle string, req catalog.PageRequest) (*catalog.Page, error) {
	vars := map[string]any{"handle": handle, "first": pageSize(req.Count)}
	if req.After != "" {
		vars["after"] = req.After
	}
	var data collectionData
	if err := c.do(ctx, collectionProductsQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Collection == nil {
		return nil, fmt.Errorf("%w: collection %q", ErrNotFound, handle)
	}
	return data.Collection.Products.page(), nil
}

// ProductByHandle fetches one product. Concurrent lookups of the same
// handle share a single request; that request is detached from any one
// caller's cancellation and bounded by the client timeout instead.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*catalog.RemoteProduct, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.byHandle.DoChan(handle, func() (any, error) {
		var data productData
		if err := c.do(shared, productByHandleQuery, map[string]any{"handle": handle}, &data); err != nil {
			return nil, err
		}
		if data.Product == nil {
			return nil, fmt.Errorf("%w: product %q", ErrNotFound, handle)
		}
		p := toRemote(*data.Product)
		return &p, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p := *res.Val.(*catalog.RemoteProduct)
		return &p, nil
	}
}

func (c *Client) products(ctx context.Context, req catalog.PageRequest, extra map[string]any) (*catalog.Page, error) {
	vars := map[string]any{"first": pageSize(req.Count)}
	if req.After != "" {
		vars["after"] = req.After
	}
	for k, v := range extra {
		vars[k] = v
	}
	var data productsData
	if err := c.do(ctx, productsQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Products.page(), nil
}

func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("shopify: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("shopify: read response: %w", err)
	}
	c.log.Debug("shopify: graphql call",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("shopify: unexpected status %d", resp.StatusCode)
	}

	var gr graphQLResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("shopify: decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("shopify: graphql: %s", strings.Join(msgs, "; "))
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return errors.New("shopify: empty response data")
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("shopify: decode data: %w", err)
	}
	return nil
}

func pageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}
