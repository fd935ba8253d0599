// Package cart is the shopping cart state machine: a pure reducer over a
// closed set of actions, and a Cart store that owns one state, applies
// actions in dispatch order and persists the line items.
package cart

import "github.com/suran0330/kicholgy-sub001/internal/catalog"

// MaxQuantity caps one line item. Larger requests are clamped to it.
const MaxQuantity = 9999

// LineItem is one product in the cart. Quantity is always in [1, MaxQuantity].
type LineItem struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

type State struct {
	Items  []LineItem `json:"items"`
	IsOpen bool       `json:"isOpen"`
}

// Action is the closed set of cart intents.
type Action interface {
	cartAction()
}

type (
	Add struct {
		Product  catalog.Product
		Quantity int
	}
	Remove      struct{ ProductID string }
	SetQuantity struct {
		ProductID string
		Quantity  int
	}
	Clear   struct{}
	Open    struct{}
	Close   struct{}
	Toggle  struct{}
	Hydrate struct{ Items []LineItem }
)

func (Add) cartAction()         {}
func (Remove) cartAction()      {}
func (SetQuantity) cartAction() {}
func (Clear) cartAction()       {}
func (Open) cartAction()        {}
func (Close) cartAction()       {}
func (Toggle) cartAction()      {}
func (Hydrate) cartAction()     {}

// Reduce returns the state after applying a. The input state is not modified.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Add:
		qty := clampQuantity(a.Quantity)
		items := cloneItems(s.Items)
		if i := indexOf(items, a.Product.ID); i >= 0 {
			items[i].Quantity = addQuantity(items[i].Quantity, qty)
		} else {
			items = append(items, LineItem{Product: a.Product, Quantity: qty})
		}
		return State{Items: items, IsOpen: true}
	case Remove:
		return State{Items: without(s.Items, a.ProductID), IsOpen: s.IsOpen}
	case SetQuantity:
		if a.Quantity <= 0 {
			return State{Items: without(s.Items, a.ProductID), IsOpen: s.IsOpen}
		}
		items := cloneItems(s.Items)
		if i := indexOf(items, a.ProductID); i >= 0 {
			items[i].Quantity = clampQuantity(a.Quantity)
		}
		return State{Items: items, IsOpen: s.IsOpen}
	case Clear:
		return State{Items: []LineItem{}, IsOpen: s.IsOpen}
	case Open:
		return State{Items: s.Items, IsOpen: true}
	case Close:
		return State{Items: s.Items, IsOpen: false}
	case Toggle:
		return State{Items: s.Items, IsOpen: !s.IsOpen}
	case Hydrate:
		return State{Items: sanitize(a.Items), IsOpen: s.IsOpen}
	default:
		return s
	}
}

// changesItems reports whether a may alter the item list.
func changesItems(a Action) bool {
	switch a.(type) {
	case Add, Remove, SetQuantity, Clear:
		return true
	default:
		return false
	}
}

// ItemCount is the sum of quantities across all line items.
func ItemCount(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Subtotal sums price × quantity in integer cents. Line items whose price
// does not parse contribute nothing and are returned in invalid.
func Subtotal(items []LineItem) (subtotal float64, invalid []string) {
	var cents int64
	for _, it := range items {
		p, err := catalog.ParsePrice(it.Product.Price)
		if err != nil {
			invalid = append(invalid, it.Product.ID)
			continue
		}
		cents += catalog.Cents(p) * int64(it.Quantity)
	}
	return float64(cents) / 100, invalid
}

func indexOf(items []LineItem, id string) int {
	for i, it := range items {
		if it.Product.ID == id {
			return i
		}
	}
	return -1
}

func without(items []LineItem, id string) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if it.Product.ID != id {
			out = append(out, it)
		}
	}
	return out
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)
	return out
}

// sanitize drops entries that would break the one-line-per-product and
// positive-quantity invariants; later duplicates fold into the first.
func sanitize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 || it.Product.ID == "" {
			continue
		}
		if i := indexOf(out, it.Product.ID); i >= 0 {
			out[i].Quantity = addQuantity(out[i].Quantity, it.Quantity)
			continue
		}
		it.Quantity = clampQuantity(it.Quantity)
		out = append(out, it)
	}
	return out
}

func clampQuantity(q int) int {
	switch {
	case q < 1:
		return 1
	case q > MaxQuantity:
		return MaxQuantity
	default:
		return q
	}
}

// addQuantity sums two positive quantities without overflowing.
func addQuantity(a, b int) int {
	if b >= MaxQuantity-a {
		return MaxQuantity
	}
	return a + b
}
