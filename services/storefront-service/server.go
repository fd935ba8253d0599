package main

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suran0330/kicholgy-sub001/internal/catalog"
	"github.com/suran0330/kicholgy-sub001/internal/config"
	"github.com/suran0330/kicholgy-sub001/internal/fetch"
	"github.com/suran0330/kicholgy-sub001/internal/shopify"
)

// remoteCatalog is the Shopify client surface the handlers use.
type remoteCatalog interface {
	fetch.Catalog
	ProductByHandle(ctx context.Context, handle string) (*catalog.RemoteProduct, error)
}

type server struct {
	cfg      *config.Config
	log      *zap.Logger
	mode     string
	local    *catalog.Local
	remote   remoteCatalog
	sessions *sessionRegistry
	cache    *remoteCache
}

var errProductNotFound = errors.New("product not found")

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(withServerDefaults)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/sessions", s.handleNewSession)
	r.Get("/v1/categories", s.handleCategories)

	r.Route("/v1/products", func(r chi.Router) {
		r.Get("/", s.handleListProducts)
		r.Get("/{id}", s.handleGetProduct)
	})

	r.Route("/v1/remote", func(r chi.Router) {
		r.Get("/home", s.handleHome)
		r.Delete("/cache", s.handleInvalidateCache)
		r.Get("/products/{handle}", s.handleRemoteProduct)
		r.Group(func(r chi.Router) {
			r.Use(s.sessions.requireSession)
			r.Get("/products", s.handleRemoteProducts)
			r.Post("/products/more", s.handleRemoteMore)
			r.Post("/products/refresh", s.handleRemoteRefresh)
		})
	})

	r.Route("/v1/cart", func(r chi.Router) {
		r.Use(s.sessions.requireSession)
		r.Get("/", s.handleGetCart)
		r.Delete("/", s.handleClearCart)
		r.Get("/summary", s.handleCartSummary)
		r.Post("/items", s.handleAddItem)
		r.Put("/items/{id}", s.handleSetQuantity)
		r.Delete("/items/{id}", s.handleRemoveItem)
		r.Post("/open", s.handleCartVisibility)
		r.Post("/close", s.handleCartVisibility)
		r.Post("/toggle", s.handleCartVisibility)
	})

	r.Route("/v1/auth", func(r chi.Router) {
		r.Use(s.sessions.requireSession)
		r.Get("/", s.handleAuthState)
		r.Post("/login", s.handleLogin)
		r.Post("/signup", s.handleSignup)
		r.Post("/logout", s.handleLogout)
		r.Put("/user", s.handleUpdateUser)
		r.Post("/modals/{name}/{action}", s.handleModal)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"module":   s.cfg.ModuleName,
		"service":  "storefront-service",
		"mode":     s.mode,
		"shopify":  s.remote != nil && s.remote.IsConfigured(),
		"sessions": s.sessions.len(),
	})
}

func (s *server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": uuid.NewString()})
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func (s *server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.local.Categories()})
}

// handleListProducts serves the merged listing. source selects local,
// remote or all; remote products come from the first page of the store.
func (s *server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := strings.ToLower(strings.TrimSpace(q.Get("source")))
	if source == "" {
		source = "local"
	}
	if source != "local" && source != "remote" && source != "all" {
		writeError(w, http.StatusBadRequest, "source must be local, remote or all")
		return
	}
	lo, hasMin, err := floatParam(r, "min")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hi, hasMax, err := floatParam(r, "max")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sortKey := strings.TrimSpace(q.Get("sort"))
	switch sortKey {
	case "", catalog.SortName, catalog.SortPriceLow, catalog.SortPriceHigh, catalog.SortVendor:
	default:
		writeError(w, http.StatusBadRequest, "unknown sort "+sortKey)
		return
	}

	var local []catalog.Product
	if source != "remote" {
		local = s.local.All()
	}
	var remote []catalog.RemoteProduct
	remoteError := ""
	if source != "local" {
		remote, remoteError = s.firstRemotePage(r.Context(), intParam(r, "count", s.cfg.Catalog.PageSize, 1, 250))
	}

	items := catalog.CombineSources(local, remote)
	if category := strings.TrimSpace(q.Get("category")); category != "" {
		items = catalog.FilterByCategory(items, category)
	}
	if hasMin || hasMax {
		if !hasMin {
			lo = 0
		}
		if !hasMax {
			hi = math.Inf(1)
		}
		items = catalog.FilterByPriceRange(items, lo, hi)
	}
	if sortKey != "" {
		items = catalog.SortProducts(items, sortKey)
	}
	items = s.displayable(items)

	resp := map[string]any{"items": items, "count": len(items)}
	if remoteError != "" {
		resp["remoteError"] = remoteError
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) firstRemotePage(ctx context.Context, count int) ([]catalog.RemoteProduct, string) {
	if s.remote == nil || !s.remote.IsConfigured() {
		return nil, fetch.MsgNotConfigured
	}
	page, err := s.remote.ListProducts(ctx, catalog.PageRequest{Count: count})
	if err != nil {
		s.log.Warn("remote listing failed", zap.Error(err))
		return nil, err.Error()
	}
	return page.Products, ""
}

// displayable drops records that would render broken.
func (s *server) displayable(items []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, 0, len(items))
	for _, p := range items {
		if !catalog.IsValidProduct(p) {
			s.log.Warn("hiding incomplete product", zap.String("product_id", p.ID))
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	p, err := s.resolveProduct(r.Context(), id, "")
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"item":        p,
		"url":         catalog.ResolveDisplayURL(p),
		"displayName": catalog.DisplayName(p),
		"related":     s.local.Related(p.ID, s.cfg.Catalog.RelatedLimit),
	})
}

// resolveProduct finds a cart-shaped product by handle (remote) or by id
// (local first, then a namespaced remote id).
func (s *server) resolveProduct(ctx context.Context, id, handle string) (catalog.Product, error) {
	if handle = strings.TrimSpace(handle); handle != "" {
		rp, err := s.remoteByHandle(ctx, handle)
		if err != nil {
			return catalog.Product{}, err
		}
		return catalog.NormalizeForCart(*rp), nil
	}
	if id == "" {
		return catalog.Product{}, errProductNotFound
	}
	if p, ok := s.local.ByID(id); ok {
		return p, nil
	}
	if strings.HasPrefix(id, shopify.IDPrefix) {
		rp, err := s.remoteByHandle(ctx, strings.TrimPrefix(id, shopify.IDPrefix))
		if err != nil {
			return catalog.Product{}, err
		}
		return catalog.NormalizeForCart(*rp), nil
	}
	return catalog.Product{}, errProductNotFound
}

func (s *server) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errProductNotFound), errors.Is(err, shopify.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, shopify.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, fetch.MsgNotConfigured)
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
