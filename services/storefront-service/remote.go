package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/suran0330/kicholgy-sub001/internal/catalog"
	"github.com/suran0330/kicholgy-sub001/internal/fetch"
)

type remoteListResponse struct {
	fetch.State
	Mode       fetch.Mode `json:"mode"`
	Collection string     `json:"collection,omitempty"`
}

func listResponse(st fetch.State) remoteListResponse {
	return remoteListResponse{State: st, Mode: st.Query.Mode, Collection: st.Query.Collection}
}

// handleRemoteProducts returns the session's remote listing for the
// requested query. A new session or a changed query triggers a load; an
// unchanged query returns what is already loaded.
func (s *server) handleRemoteProducts(w http.ResponseWriter, r *http.Request) {
	mode, err := fetch.ParseMode(strings.TrimSpace(r.URL.Query().Get("mode")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := fetch.Query{
		Mode:       mode,
		Collection: strings.TrimSpace(r.URL.Query().Get("collection")),
		PageSize:   intParam(r, "count", s.cfg.Catalog.PageSize, 1, 250),
	}
	if q.Mode == fetch.ModeCollection && q.Collection == "" {
		writeError(w, http.StatusBadRequest, "collection is required for mode collection")
		return
	}

	o, created := sessionFrom(r).orchestrator(s.remote, q, s.log)
	var st fetch.State
	switch {
	case created:
		st = o.Load(r.Context(), false)
	case o.Snapshot().Query != q:
		st = o.SetQuery(r.Context(), q)
	default:
		st = o.Snapshot()
	}
	writeJSON(w, http.StatusOK, listResponse(st))
}

func (s *server) handleRemoteMore(w http.ResponseWriter, r *http.Request) {
	o := sessionFrom(r).currentOrchestrator()
	if o == nil {
		writeError(w, http.StatusConflict, "no remote listing loaded")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(o.LoadMore(r.Context())))
}

func (s *server) handleRemoteRefresh(w http.ResponseWriter, r *http.Request) {
	o := sessionFrom(r).currentOrchestrator()
	if o == nil {
		writeError(w, http.StatusConflict, "no remote listing loaded")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(o.Refresh(r.Context())))
}

func (s *server) handleRemoteProduct(w http.ResponseWriter, r *http.Request) {
	handle := strings.TrimSpace(chi.URLParam(r, "handle"))
	rp, err := s.remoteByHandle(r.Context(), handle)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"item":        rp,
		"normalized":  catalog.NormalizeForCart(*rp),
		"url":         catalog.ResolveDisplayURL(*rp),
		"displayName": catalog.DisplayName(*rp),
	})
}

func (s *server) remoteByHandle(ctx context.Context, handle string) (*catalog.RemoteProduct, error) {
	if handle == "" {
		return nil, errProductNotFound
	}
	key := productCacheKey(handle)
	if item, ok := s.cache.get(key); ok && item.Product != nil {
		p := *item.Product
		return &p, nil
	}
	rp, err := s.remote.ProductByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	s.cache.set(key, cacheItem{Product: rp})
	return rp, nil
}

// handleHome fetches the featured, recent and best-selling lists in
// parallel. A list that fails is reported under errors; the request fails
// only when all of them do.
func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	if !s.remote.IsConfigured() {
		writeError(w, http.StatusServiceUnavailable, fetch.MsgNotConfigured)
		return
	}
	count := intParam(r, "count", 8, 1, 50)
	key := homeCacheKey(count)
	if item, ok := s.cache.get(key); ok && item.Feed != nil {
		feed := *item.Feed
		feed.Cached = true
		writeJSON(w, http.StatusOK, feed)
		return
	}

	var (
		mu   sync.Mutex
		feed = homeFeed{Errors: map[string]string{}}
	)
	lists := []struct {
		name string
		load func(context.Context, int) ([]catalog.RemoteProduct, error)
		dst  *[]catalog.RemoteProduct
	}{
		{"featured", s.remote.FeaturedProducts, &feed.Featured},
		{"recent", s.remote.RecentProducts, &feed.Recent},
		{"bestSelling", s.remote.BestSellingProducts, &feed.BestSelling},
	}

	g, ctx := errgroup.WithContext(r.Context())
	for _, l := range lists {
		l := l
		g.Go(func() error {
			products, err := l.load(ctx, count)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
					return err
				}
				feed.Errors[l.name] = err.Error()
				s.log.Warn("home feed list failed", zap.String("list", l.name), zap.Error(err))
				*l.dst = []catalog.RemoteProduct{}
				return nil
			}
			if products == nil {
				products = []catalog.RemoteProduct{}
			}
			*l.dst = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeError(w, http.StatusRequestTimeout, err.Error())
		return
	}

	if len(feed.Errors) == len(lists) {
		writeJSON(w, http.StatusBadGateway, feed)
		return
	}
	if len(feed.Errors) == 0 {
		feed.Errors = nil
		cached := feed
		s.cache.set(key, cacheItem{Feed: &cached})
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *server) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("prefix"))
	s.cache.invalidatePrefix(prefix)
	writeJSON(w, http.StatusOK, map[string]string{"invalidated": prefix})
}
