package cart

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/suran0330/kicholgy-sub001/internal/catalog"
	"github.com/suran0330/kicholgy-sub001/internal/store"
)

var (
	productA = catalog.Product{ID: "a", Name: "Cleanser", Price: "$7.99", Image: "/a.jpg", InStock: true}
	productB = catalog.Product{ID: "b", Name: "Serum", Price: "$15.99", Image: "/b.jpg", InStock: true}
)

func newCart(t *testing.T) (*Cart, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return New(context.Background(), mem, zap.NewNop()), mem
}

func TestAddSameProductMergesQuantity(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	c.Add(ctx, productA, 1)
	s := c.Add(ctx, productA, 2)

	require.Len(t, s.Items, 1)
	assert.Equal(t, 3, s.Items[0].Quantity)
}

func TestAddOpensCart(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	require.False(t, c.State().IsOpen)

	s := c.Add(ctx, productA, 1)
	assert.True(t, s.IsOpen)
}

func TestAddCoercesNonPositiveQuantity(t *testing.T) {
	s := Reduce(State{}, Add{Product: productA, Quantity: 0})
	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.Items[0].Quantity)
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		quantity  int
		wantItems int
		wantQty   int
	}{
		{"zero removes", 0, 0, 0},
		{"negative removes", -1, 0, 0},
		{"positive replaces", 5, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newCart(t)
			c.Add(ctx, productA, 2)

			s := c.SetQuantity(ctx, productA.ID, tt.quantity)
			require.Len(t, s.Items, tt.wantItems)
			if tt.wantItems > 0 {
				assert.Equal(t, tt.wantQty, s.Items[0].Quantity)
			}
		})
	}
}

func TestSetQuantityUnknownProductIsNoop(t *testing.T) {
	s := Reduce(State{Items: []LineItem{{Product: productA, Quantity: 1}}}, SetQuantity{ProductID: "zzz", Quantity: 4})
	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.Items[0].Quantity)
}

func TestItemCountAfterRemove(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	c.Add(ctx, productA, 2)
	c.Add(ctx, productB, 3)
	c.Remove(ctx, productA.ID)

	assert.Equal(t, 3, c.ItemCount())
}

func TestRemoveMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	c.Add(ctx, productA, 1)

	s := c.Remove(ctx, "missing")
	assert.Len(t, s.Items, 1)
}

func TestSubtotal(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)

	c.Add(ctx, productA, 2)
	c.Add(ctx, productB, 1)
	assert.InDelta(t, 31.97, c.Subtotal(), 1e-9)

	c.SetQuantity(ctx, productB.ID, 2)
	assert.InDelta(t, 47.96, c.Subtotal(), 1e-9, "recomputed after mutation")
}

func TestSubtotalInvalidPriceCountsZero(t *testing.T) {
	bad := catalog.Product{ID: "bad", Price: "call us"}
	total, invalid := Subtotal([]LineItem{{Product: productA, Quantity: 1}, {Product: bad, Quantity: 3}})
	assert.InDelta(t, 7.99, total, 1e-9)
	assert.Equal(t, []string{"bad"}, invalid)
}

func TestClearKeepsVisibility(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t)
	c.Add(ctx, productA, 1)

	s := c.Clear(ctx)
	assert.Empty(t, s.Items)
	assert.True(t, s.IsOpen)
}

func TestVisibilityActionsLeaveItems(t *testing.T) {
	ctx := context.Background()
	c, mem := newCart(t)
	c.Add(ctx, productA, 1)
	before, _, _ := mem.Get(ctx, StorageKey)

	s := c.Close(ctx)
	assert.False(t, s.IsOpen)
	s = c.Toggle(ctx)
	assert.True(t, s.IsOpen)
	s = c.Toggle(ctx)
	assert.False(t, s.IsOpen)
	s = c.Open(ctx)
	assert.True(t, s.IsOpen)
	assert.Len(t, s.Items, 1)

	after, _, _ := mem.Get(ctx, StorageKey)
	assert.Equal(t, before, after)
}

func TestPersistsEveryItemMutation(t *testing.T) {
	ctx := context.Background()
	c, mem := newCart(t)

	c.Add(ctx, productA, 2)
	raw, ok, err := mem.Get(ctx, StorageKey)
	require.NoError(t, err)
	require.True(t, ok)

	var items []LineItem
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	require.Len(t, items, 1)
	assert.Equal(t, productA, items[0].Product, "full product snapshot is stored")
	assert.Equal(t, 2, items[0].Quantity)

	c.Clear(ctx)
	raw, _, _ = mem.Get(ctx, StorageKey)
	assert.JSONEq(t, `[]`, raw)
}

func TestHydratesFromStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	first := New(ctx, mem, zap.NewNop())
	first.Add(ctx, productA, 2)
	first.Add(ctx, productB, 1)

	second := New(ctx, mem, zap.NewNop())
	s := second.State()
	require.Len(t, s.Items, 2)
	assert.Equal(t, "a", s.Items[0].Product.ID)
	assert.Equal(t, 3, second.ItemCount())
	assert.False(t, s.IsOpen, "visibility is not persisted")
}

func TestCorruptSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, StorageKey, "{not json"))

	c := New(ctx, mem, zap.NewNop())
	assert.Empty(t, c.State().Items)
}

func TestHydrateSanitizesItems(t *testing.T) {
	s := Reduce(State{}, Hydrate{Items: []LineItem{
		{Product: productA, Quantity: 1},
		{Product: productB, Quantity: 0},
		{Product: productA, Quantity: 2},
	}})
	require.Len(t, s.Items, 1)
	assert.Equal(t, 3, s.Items[0].Quantity)
}

type failingStore struct{ store.Store }

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("backend down")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("backend down")
}

func TestStoreFailuresDoNotBreakOperations(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, failingStore{}, zap.NewNop())

	s := c.Add(ctx, productA, 1)
	assert.Len(t, s.Items, 1)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	in := State{Items: []LineItem{{Product: productA, Quantity: 1}}}
	_ = Reduce(in, Add{Product: productA, Quantity: 4})
	_ = Reduce(in, SetQuantity{ProductID: productA.ID, Quantity: 9})
	assert.Equal(t, 1, in.Items[0].Quantity)
}

func TestQuantityIsCapped(t *testing.T) {
	s := Reduce(State{}, Add{Product: productA, Quantity: math.MaxInt})
	s = Reduce(s, Add{Product: productA, Quantity: 1})
	require.Len(t, s.Items, 1)
	assert.Equal(t, MaxQuantity, s.Items[0].Quantity)
	assert.Equal(t, MaxQuantity, ItemCount(s.Items))

	s = Reduce(s, SetQuantity{ProductID: productA.ID, Quantity: math.MaxInt})
	assert.Equal(t, MaxQuantity, s.Items[0].Quantity)
	subtotal, invalid := Subtotal(s.Items)
	assert.Empty(t, invalid)
	assert.InDelta(t, 7.99*MaxQuantity, subtotal, 1e-6)

	s = Reduce(State{}, Hydrate{Items: []LineItem{
		{Product: productB, Quantity: math.MaxInt},
		{Product: productB, Quantity: math.MaxInt},
	}})
	require.Len(t, s.Items, 1)
	assert.Equal(t, MaxQuantity, s.Items[0].Quantity)
}
