package cart

import (
	"strings"

	"github.com/angelmondragon/foodcart-backend/pkg/money"
)

// Snapshot is the serializable form of a ledger used by persistence collaborators.
type Snapshot struct {
	Items []SnapshotItem `json:"items"`
}

// SnapshotItem mirrors LineItem with explicit json names.
type SnapshotItem struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Tag            string `json:"tag,omitempty"`
	ImageRef       string `json:"image_ref,omitempty"`
	Quantity       int    `json:"quantity"`
}

// Snapshot captures the current lines in insertion order.
func (l *Ledger) Snapshot() Snapshot {
	items := l.Items()
	snap := Snapshot{Items: make([]SnapshotItem, 0, len(items))}
	for _, li := range items {
		snap.Items = append(snap.Items, SnapshotItem{
			ID:             li.ID,
			Name:           li.Name,
			UnitPriceCents: int64(li.UnitPrice),
			Tag:            li.Tag,
			ImageRef:       li.ImageRef,
			Quantity:       li.Quantity,
		})
	}
	return snap
}

// Restore rebuilds a ledger from a snapshot. Entries without an id, with a
// negative price or with a non-positive quantity are dropped; repeated ids are
// merged into the first occurrence.
func Restore(snap Snapshot) *Ledger {
	l := NewLedger()
	for _, entry := range snap.Items {
		id := strings.TrimSpace(entry.ID)
		if id == "" || entry.Quantity <= 0 || entry.UnitPriceCents < 0 {
			continue
		}
		if existing, ok := l.items[id]; ok {
			existing.Quantity += entry.Quantity
			continue
		}
		l.items[id] = &LineItem{
			ID:        id,
			Name:      entry.Name,
			UnitPrice: money.Cents(entry.UnitPriceCents),
			Tag:       entry.Tag,
			ImageRef:  entry.ImageRef,
			Quantity:  entry.Quantity,
		}
		l.order = append(l.order, id)
	}
	return l
}
