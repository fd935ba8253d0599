// Package fetch drives paged loads of remote products for one query and
// keeps the loaded list, loading flag, error text and pagination cursor.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/suran0330/kicholgy-sub001/internal/catalog"
)

type Mode string

const (
	ModeAll         Mode = "all"
	ModeFeatured    Mode = "featured"
	ModeRecent      Mode = "recent"
	ModeBestSelling Mode = "bestselling"
	ModeCollection  Mode = "collection"
)

// ParseMode accepts the mode names used in query strings.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAll, ModeFeatured, ModeRecent, ModeBestSelling, ModeCollection:
		return m, nil
	case "":
		return ModeAll, nil
	default:
		return "", fmt.Errorf("fetch: unknown mode %q", s)
	}
}

// Paged reports whether the mode supports cursors.
func (m Mode) Paged() bool {
	return m == ModeAll || m == ModeCollection
}

// Query selects what an Orchestrator loads. Collection is required for
// ModeCollection.
type Query struct {
	Mode       Mode
	Collection string
	PageSize   int
}

// Catalog is the remote API surface the orchestrator needs.
type Catalog interface {
	IsConfigured() bool
	ListProducts(ctx context.Context, req catalog.PageRequest) (*catalog.Page, error)
	FeaturedProducts(ctx context.Context, count int) ([]catalog.RemoteProduct, error)
	RecentProducts(ctx context.Context, count int) ([]catalog.RemoteProduct, error)
	BestSellingProducts(ctx context.Context, count int) ([]catalog.RemoteProduct, error)
	CollectionProducts(ctx context.Context, handle string, req catalog.PageRequest) (*catalog.Page, error)
}

const (
	MsgNotConfigured = "Shopify is not configured. Set SHOPIFY_STORE_DOMAIN and SHOPIFY_STOREFRONT_TOKEN."
	MsgNoProducts    = "No products found."
)

var errNoProducts = errors.New("no products returned")

type State struct {
	Query       Query                   `json:"-"`
	Products    []catalog.RemoteProduct `json:"products"`
	Loading     bool                    `json:"loading"`
	Error       string                  `json:"error,omitempty"`
	HasNextPage bool                    `json:"hasNextPage"`
	EndCursor   string                  `json:"endCursor,omitempty"`
}

// Orchestrator serialises state changes behind a mutex. Every load takes
// a generation number; a response whose generation is no longer current
// is dropped.
type Orchestrator struct {
	mu     sync.Mutex
	client Catalog
	log    *zap.Logger
	state  State
	gen    uint64
}

func New(client Catalog, q Query, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		client: client,
		log:    log,
		state:  State{Query: q, Products: []catalog.RemoteProduct{}},
	}
}

// Load fetches the current query. With appendMode the next page is added
// to the loaded products, otherwise they are replaced.
func (o *Orchestrator) Load(ctx context.Context, appendMode bool) State {
	return o.load(ctx, appendMode, false)
}

// LoadMore loads the next page. It does nothing when there is no next page
// or a load is in flight.
func (o *Orchestrator) LoadMore(ctx context.Context) State {
	return o.load(ctx, true, true)
}

// Refresh resets the cursor and reloads from the first page.
func (o *Orchestrator) Refresh(ctx context.Context) State {
	o.mu.Lock()
	o.state.EndCursor = ""
	o.state.HasNextPage = false
	o.mu.Unlock()
	return o.load(ctx, false, false)
}

// SetQuery switches the query, invalidates any in-flight load and starts
// a fresh one.
func (o *Orchestrator) SetQuery(ctx context.Context, q Query) State {
	o.mu.Lock()
	o.gen++
	o.state.Query = q
	o.state.Loading = false
	o.state.EndCursor = ""
	o.state.HasNextPage = false
	o.mu.Unlock()
	return o.load(ctx, false, false)
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Normalized returns the loaded products in cart shape.
func (o *Orchestrator) Normalized() []catalog.Product {
	s := o.Snapshot()
	out := make([]catalog.Product, 0, len(s.Products))
	for _, p := range s.Products {
		out = append(out, catalog.NormalizeForCart(p))
	}
	return out
}

func (o *Orchestrator) snapshotLocked() State {
	s := o.state
	s.Products = make([]catalog.RemoteProduct, len(o.state.Products))
	copy(s.Products, o.state.Products)
	return s
}

func (o *Orchestrator) load(ctx context.Context, appendMode, guarded bool) State {
	o.mu.Lock()
	if guarded && (!o.state.HasNextPage || o.state.Loading) {
		defer o.mu.Unlock()
		return o.snapshotLocked()
	}
	if o.client == nil || !o.client.IsConfigured() {
		o.state.Error = MsgNotConfigured
		o.state.Loading = false
		defer o.mu.Unlock()
		return o.snapshotLocked()
	}
	o.gen++
	gen := o.gen
	q := o.state.Query
	cursor := ""
	if appendMode {
		cursor = o.state.EndCursor
	}
	o.state.Loading = true
	o.state.Error = ""
	o.mu.Unlock()

	page, err := o.call(ctx, q, cursor)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		o.log.Debug("fetch: dropping stale response", zap.String("mode", string(q.Mode)), zap.Uint64("generation", gen))
		return o.snapshotLocked()
	}
	o.state.Loading = false

	if err == nil && (page == nil || len(page.Products) == 0) {
		err = errNoProducts
	}
	if err != nil {
		o.state.Error = errorMessage(q, err)
		o.log.Warn("fetch: load failed",
			zap.String("mode", string(q.Mode)),
			zap.Bool("append", appendMode),
			zap.Error(err),
		)
		if !appendMode {
			o.state.Products = []catalog.RemoteProduct{}
			o.state.HasNextPage = false
			o.state.EndCursor = ""
		}
		return o.snapshotLocked()
	}

	if appendMode {
		o.state.Products = append(o.state.Products, page.Products...)
	} else {
		o.state.Products = append([]catalog.RemoteProduct{}, page.Products...)
	}
	o.state.HasNextPage = q.Mode.Paged() && page.HasNextPage
	o.state.EndCursor = page.EndCursor
	return o.snapshotLocked()
}

func (o *Orchestrator) call(ctx context.Context, q Query, cursor string) (*catalog.Page, error) {
	req := catalog.PageRequest{Count: q.PageSize, After: cursor}
	list := func(ps []catalog.RemoteProduct, err error) (*catalog.Page, error) {
		if err != nil || ps == nil {
			return nil, err
		}
		return &catalog.Page{Products: ps}, nil
	}
	switch q.Mode {
	case ModeAll, "":
		return o.client.ListProducts(ctx, req)
	case ModeFeatured:
		return list(o.client.FeaturedProducts(ctx, q.PageSize))
	case ModeRecent:
		return list(o.client.RecentProducts(ctx, q.PageSize))
	case ModeBestSelling:
		return list(o.client.BestSellingProducts(ctx, q.PageSize))
	case ModeCollection:
		if q.Collection == "" {
			return nil, errors.New("collection handle is required")
		}
		return o.client.CollectionProducts(ctx, q.Collection, req)
	default:
		return nil, fmt.Errorf("unknown mode %q", q.Mode)
	}
}

func errorMessage(q Query, err error) string {
	if errors.Is(err, errNoProducts) {
		return MsgNoProducts
	}
	mode := q.Mode
	if mode == "" {
		mode = ModeAll
	}
	return fmt.Sprintf("Failed to load %s products: %v", mode, err)
}
