package cart

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/suran0330/kicholgy-sub001/internal/catalog"
	"github.com/suran0330/kicholgy-sub001/internal/store"
)

// StorageKey is the cart's key in its session-scoped store.
const StorageKey = "cart"

// Cart owns one cart state. All mutation goes through Dispatch.
type Cart struct {
	mu    sync.Mutex
	state State
	store store.Store
	log   *zap.Logger
}

// New builds a cart and hydrates it from st. A missing or undecodable
// snapshot leaves the cart empty; the failure is logged, not returned.
func New(ctx context.Context, st store.Store, log *zap.Logger) *Cart {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cart{state: State{Items: []LineItem{}}, store: st, log: log}

	raw, ok, err := st.Get(ctx, StorageKey)
	if err != nil {
		log.Warn("cart: read persisted cart", zap.Error(err))
		return c
	}
	if !ok {
		return c
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Warn("cart: discarding corrupt persisted cart", zap.Error(err))
		return c
	}
	c.state = Reduce(c.state, Hydrate{Items: items})
	return c
}

// Dispatch applies a and persists the items when a can change them.
func (c *Cart) Dispatch(ctx context.Context, a Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Reduce(c.state, a)
	if changesItems(a) {
		c.persist(ctx)
	}
	return c.snapshot()
}

func (c *Cart) persist(ctx context.Context) {
	raw, err := json.Marshal(c.state.Items)
	if err != nil {
		c.log.Error("cart: encode items", zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, StorageKey, string(raw)); err != nil {
		c.log.Error("cart: persist items", zap.Error(err))
	}
}

// State returns a copy of the current state.
func (c *Cart) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Cart) snapshot() State {
	items := make([]LineItem, len(c.state.Items))
	copy(items, c.state.Items)
	return State{Items: items, IsOpen: c.state.IsOpen}
}

func (c *Cart) Add(ctx context.Context, p catalog.Product, quantity int) State {
	return c.Dispatch(ctx, Add{Product: p, Quantity: quantity})
}

func (c *Cart) Remove(ctx context.Context, productID string) State {
	return c.Dispatch(ctx, Remove{ProductID: productID})
}

func (c *Cart) SetQuantity(ctx context.Context, productID string, quantity int) State {
	return c.Dispatch(ctx, SetQuantity{ProductID: productID, Quantity: quantity})
}

func (c *Cart) Clear(ctx context.Context) State  { return c.Dispatch(ctx, Clear{}) }
func (c *Cart) Open(ctx context.Context) State   { return c.Dispatch(ctx, Open{}) }
func (c *Cart) Close(ctx context.Context) State  { return c.Dispatch(ctx, Close{}) }
func (c *Cart) Toggle(ctx context.Context) State { return c.Dispatch(ctx, Toggle{}) }

func (c *Cart) ItemCount() int {
	return ItemCount(c.State().Items)
}

// Subtotal recomputes the subtotal from the current items on every call.
func (c *Cart) Subtotal() float64 {
	total, invalid := Subtotal(c.State().Items)
	for _, id := range invalid {
		c.log.Warn("cart: unparseable price counted as zero", zap.String("product_id", id))
	}
	return total
}
