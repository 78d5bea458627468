package cart

import (
	"sync"

	"github.com/angelmondragon/foodcart-backend/internal/catalog"
	"github.com/angelmondragon/foodcart-backend/pkg/money"
)

// LineItem is one distinct product in the cart and how many units of it were added.
type LineItem struct {
	ID        string
	Name      string
	UnitPrice money.Cents
	Tag       string
	ImageRef  string
	Quantity  int
}

// LineTotal is the unit price times the quantity.
func (li LineItem) LineTotal() money.Cents {
	return li.UnitPrice.Times(li.Quantity)
}

// Ledger owns the line items of a single cart. Ids are unique and every stored
// quantity is at least 1; mutations are serialized so concurrent callers always
// observe their own writes.
type Ledger struct {
	mu       sync.RWMutex
	order    []string
	items    map[string]*LineItem
	revision uint64

	// held for the duration of a checkout; never taken while holding mu.
	checkout sync.Mutex
}

// NewLedger returns an empty cart.
func NewLedger() *Ledger {
	return &Ledger{items: make(map[string]*LineItem)}
}

// AddItem adds one unit of item. An existing line keeps its first-seen name and
// price and only its quantity grows. Items must come from catalog.Parse so the
// unit price is known to be non-negative.
func (l *Ledger) AddItem(item catalog.Item) {
	l.AddItemQuantity(item, 1)
}

// AddItemQuantity behaves like qty successive AddItem calls. qty <= 0 is a no-op.
func (l *Ledger) AddItemQuantity(item catalog.Item, qty int) {
	if qty <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.items[item.ID]; ok {
		existing.Quantity += qty
		l.revision++
		return
	}
	l.items[item.ID] = &LineItem{
		ID:        item.ID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Tag:       item.Tag,
		ImageRef:  item.ImageRef,
		Quantity:  qty,
	}
	l.order = append(l.order, item.ID)
	l.revision++
}

// RemoveItem deletes the line with the given id. Missing ids are ignored.
func (l *Ledger) RemoveItem(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeLocked(id)
}

// SetQuantity replaces the quantity of an existing line. qty <= 0 removes the
// line; an unknown id is left alone rather than created.
func (l *Ledger) SetQuantity(id string, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if qty <= 0 {
		l.removeLocked(id)
		return
	}
	existing, ok := l.items[id]
	if !ok || existing.Quantity == qty {
		return
	}
	existing.Quantity = qty
	l.revision++
}

// Clear empties the cart.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.order = nil
	l.items = make(map[string]*LineItem)
	l.revision++
}

// Deduct takes the given quantities out of the cart, removing lines that reach
// zero. Units added after lines were copied stay in the cart. Lines absent from
// the cart are ignored.
func (l *Ledger) Deduct(lines []LineItem) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, li := range lines {
		if li.Quantity <= 0 {
			continue
		}
		existing, ok := l.items[li.ID]
		if !ok {
			continue
		}
		if existing.Quantity <= li.Quantity {
			l.removeLocked(li.ID)
			continue
		}
		existing.Quantity -= li.Quantity
		l.revision++
	}
}

// TryBeginCheckout claims the cart for a single checkout. It returns false while
// another checkout holds the claim; otherwise the caller must call the returned
// release func.
func (l *Ledger) TryBeginCheckout() (release func(), ok bool) {
	if !l.checkout.TryLock() {
		return nil, false
	}
	return l.checkout.Unlock, true
}

func (l *Ledger) removeLocked(id string) {
	if _, ok := l.items[id]; !ok {
		return
	}
	delete(l.items, id)
	for i, candidate := range l.order {
		if candidate == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.revision++
}

// Items returns a copy of the lines in insertion order.
func (l *Ledger) Items() []LineItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]LineItem, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.items[id])
	}
	return out
}

// Item looks up a single line.
func (l *Ledger) Item(id string) (LineItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	li, ok := l.items[id]
	if !ok {
		return LineItem{}, false
	}
	return *li, true
}

// ItemCount is the total number of units across all lines.
func (l *Ledger) ItemCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, li := range l.items {
		count += li.Quantity
	}
	return count
}

// Len is the number of distinct lines.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// IsEmpty reports whether the cart has no lines.
func (l *Ledger) IsEmpty() bool {
	return l.Len() == 0
}

// Subtotal sums unit price times quantity over every line, in exact cents.
func (l *Ledger) Subtotal() money.Cents {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total money.Cents
	for _, li := range l.items {
		total += li.LineTotal()
	}
	return total
}

// Totals reads the subtotal and item count under one lock so they describe the same state.
func (l *Ledger) Totals() (money.Cents, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var (
		subtotal money.Cents
		count    int
	)
	for _, li := range l.items {
		subtotal += li.LineTotal()
		count += li.Quantity
	}
	return subtotal, count
}

// Revision increases on every state change; callers use it to detect unsaved mutations.
func (l *Ledger) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}
