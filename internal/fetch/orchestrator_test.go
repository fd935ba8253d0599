package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/suran0330/kicholgy-sub001/internal/catalog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	method string
	handle string
	req    catalog.PageRequest
}

type fakeCatalog struct {
	mu         sync.Mutex
	configured bool
	calls      []call
	pages      []*catalog.Page
	errs       []error
	gate       map[int]chan struct{}
}

func (f *fakeCatalog) IsConfigured() bool { return f.configured }

func (f *fakeCatalog) next(c call) (*catalog.Page, error) {
	f.mu.Lock()
	i := len(f.calls)
	f.calls = append(f.calls, c)
	gate := f.gate[i]
	var page *catalog.Page
	var err error
	if i < len(f.pages) {
		page = f.pages[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return page, err
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCatalog) ListProducts(_ context.Context, req catalog.PageRequest) (*catalog.Page, error) {
	return f.next(call{method: "list", req: req})
}

func (f *fakeCatalog) list(method string, count int) ([]catalog.RemoteProduct, error) {
	p, err := f.next(call{method: method, req: catalog.PageRequest{Count: count}})
	if p == nil {
		return nil, err
	}
	return p.Products, err
}

func (f *fakeCatalog) FeaturedProducts(_ context.Context, count int) ([]catalog.RemoteProduct, error) {
	return f.list("featured", count)
}

func (f *fakeCatalog) RecentProducts(_ context.Context, count int) ([]catalog.RemoteProduct, error) {
	return f.list("recent", count)
}

func (f *fakeCatalog) BestSellingProducts(_ context.Context, count int) ([]catalog.RemoteProduct, error) {
	return f.list("bestselling", count)
}

func (f *fakeCatalog) CollectionProducts(_ context.Context, handle string, req catalog.PageRequest) (*catalog.Page, error) {
	return f.next(call{method: "collection", handle: handle, req: req})
}

func products(prefix string, n int) []catalog.RemoteProduct {
	out := make([]catalog.RemoteProduct, n)
	for i := range out {
		h := fmt.Sprintf("%s-%d", prefix, i)
		out[i] = catalog.RemoteProduct{ID: "shopify-" + h, Handle: h, Name: h, Price: "$10.00", Image: "/x.jpg", InStock: true}
	}
	return out
}

func TestLoadUnconfiguredNeverCallsClient(t *testing.T) {
	f := &fakeCatalog{configured: false}
	o := New(f, Query{Mode: ModeAll}, zap.NewNop())

	s := o.Load(context.Background(), false)
	assert.Equal(t, MsgNotConfigured, s.Error)
	assert.Empty(t, s.Products)
	assert.False(t, s.Loading)
	assert.Zero(t, f.callCount())
}

func TestLoadAndLoadMore(t *testing.T) {
	f := &fakeCatalog{
		configured: true,
		pages: []*catalog.Page{
			{Products: products("a", 2), HasNextPage: true, EndCursor: "c1"},
			{Products: products("b", 1), HasNextPage: false, EndCursor: "c2"},
		},
	}
	o := New(f, Query{Mode: ModeAll, PageSize: 2}, zap.NewNop())
	ctx := context.Background()

	s := o.Load(ctx, false)
	require.Empty(t, s.Error)
	assert.Len(t, s.Products, 2)
	assert.True(t, s.HasNextPage)
	assert.Equal(t, "c1", s.EndCursor)

	s = o.LoadMore(ctx)
	assert.Len(t, s.Products, 3)
	assert.False(t, s.HasNextPage)
	assert.Equal(t, "c1", f.calls[1].req.After, "load more reuses the cursor")
	assert.Equal(t, 2, f.calls[1].req.Count)

	s = o.LoadMore(ctx)
	assert.Len(t, s.Products, 3)
	assert.Equal(t, 2, f.callCount(), "no next page means no call")
}

func TestLoadMoreFailurePreservesProducts(t *testing.T) {
	f := &fakeCatalog{
		configured: true,
		pages:      []*catalog.Page{{Products: products("a", 2), HasNextPage: true, EndCursor: "c1"}},
		errs:       []error{nil, errors.New("network down")},
	}
	o := New(f, Query{Mode: ModeAll}, zap.NewNop())
	ctx := context.Background()

	o.Load(ctx, false)
	s := o.LoadMore(ctx)
	assert.Len(t, s.Products, 2)
	assert.Contains(t, s.Error, "network down")
	assert.False(t, s.Loading)
}

func TestRefreshFailureClearsProducts(t *testing.T) {
	f := &fakeCatalog{
		configured: true,
		pages:      []*catalog.Page{{Products: products("a", 2), HasNextPage: true, EndCursor: "c1"}},
		errs:       []error{nil, errors.New("boom")},
	}
	o := New(f, Query{Mode: ModeAll}, zap.NewNop())
	ctx := context.Background()

	o.Load(ctx, false)
	s := o.Refresh(ctx)
	assert.Empty(t, s.Products)
	assert.Contains(t, s.Error, "boom")
	assert.False(t, s.HasNextPage)
	assert.Equal(t, "", f.calls[1].req.After, "refresh starts from the first page")
}

func TestEmptyResultIsFailure(t *testing.T) {
	f := &fakeCatalog{configured: true, pages: []*catalog.Page{nil}}
	o := New(f, Query{Mode: ModeFeatured, PageSize: 4}, zap.NewNop())

	s := o.Load(context.Background(), false)
	assert.Equal(t, MsgNoProducts, s.Error)
	assert.Empty(t, s.Products)
}

func TestUnpagedModesNeverReportNextPage(t *testing.T) {
	for _, mode := range []Mode{ModeFeatured, ModeRecent, ModeBestSelling} {
		t.Run(string(mode), func(t *testing.T) {
			f := &fakeCatalog{configured: true, pages: []*catalog.Page{{Products: products("x", 3)}}}
			o := New(f, Query{Mode: mode, PageSize: 3}, zap.NewNop())

			s := o.Load(context.Background(), false)
			require.Empty(t, s.Error)
			assert.Len(t, s.Products, 3)
			assert.False(t, s.HasNextPage)
			assert.Equal(t, string(mode), f.calls[0].method)
			assert.Equal(t, 3, f.calls[0].req.Count)
		})
	}
}

func TestCollectionMode(t *testing.T) {
	f := &fakeCatalog{configured: true, pages: []*catalog.Page{{Products: products("c", 1), HasNextPage: true, EndCursor: "n"}}}
	o := New(f, Query{Mode: ModeCollection, Collection: "serums"}, zap.NewNop())

	s := o.Load(context.Background(), false)
	assert.True(t, s.HasNextPage)
	assert.Equal(t, "serums", f.calls[0].handle)

	missing := New(&fakeCatalog{configured: true}, Query{Mode: ModeCollection}, zap.NewNop())
	s = missing.Load(context.Background(), false)
	assert.Contains(t, s.Error, "collection handle is required")
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeCatalog{
		configured: true,
		pages: []*catalog.Page{
			{Products: products("old", 2)},
			{Products: products("new", 1)},
		},
		gate: map[int]chan struct{}{0: gate},
	}
	o := New(f, Query{Mode: ModeFeatured}, zap.NewNop())
	ctx := context.Background()

	done := make(chan State, 1)
	go func() { done <- o.Load(ctx, false) }()
	require.Eventually(t, func() bool { return f.callCount() == 1 }, time.Second, time.Millisecond)

	s := o.SetQuery(ctx, Query{Mode: ModeBestSelling})
	require.Len(t, s.Products, 1)
	assert.Equal(t, "new-0", s.Products[0].Handle)

	close(gate)
	<-done

	s = o.Snapshot()
	require.Len(t, s.Products, 1, "stale featured response must not overwrite bestselling results")
	assert.Equal(t, "new-0", s.Products[0].Handle)
	assert.False(t, s.Loading)
}

func TestLoadMoreIgnoredWhileLoading(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeCatalog{
		configured: true,
		pages: []*catalog.Page{
			{Products: products("a", 1), HasNextPage: true, EndCursor: "c1"},
			{Products: products("b", 1), HasNextPage: true, EndCursor: "c2"},
		},
		gate: map[int]chan struct{}{1: gate},
	}
	o := New(f, Query{Mode: ModeAll}, zap.NewNop())
	ctx := context.Background()
	o.Load(ctx, false)

	done := make(chan State, 1)
	go func() { done <- o.LoadMore(ctx) }()
	require.Eventually(t, func() bool { return o.Snapshot().Loading }, time.Second, time.Millisecond)

	o.LoadMore(ctx)
	assert.Equal(t, 2, f.callCount())

	close(gate)
	s := <-done
	assert.Len(t, s.Products, 2)
}

func TestNormalized(t *testing.T) {
	f := &fakeCatalog{configured: true, pages: []*catalog.Page{{Products: products("n", 2)}}}
	o := New(f, Query{Mode: ModeRecent}, zap.NewNop())
	o.Load(context.Background(), false)

	got := o.Normalized()
	require.Len(t, got, 2)
	assert.Equal(t, catalog.OriginRemote, got[0].Origin)
	assert.Equal(t, "n-0", got[0].Remote.Handle)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAll, m)

	m, err = ParseMode("bestselling")
	require.NoError(t, err)
	assert.Equal(t, ModeBestSelling, m)

	_, err = ParseMode("trending")
	assert.Error(t, err)
}
