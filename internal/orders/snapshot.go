package orders

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// SnapshotItem keeps just enough of a line item to rebuild a usable order
// from cache: id, quantity and unit price.
type SnapshotItem struct {
	ID       string          `json:"id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Snapshot is the reduced projection of an Order persisted in the durable
// cache. It exists to keep the cache entry small under storage quotas; it is
// never authoritative and is always superseded by a fresh backend read.
type Snapshot struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	CreatedAt     string          `json:"createdAt"`
	Email         string          `json:"email"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Items         []SnapshotItem  `json:"items,omitempty"`
}

// Compact projects an order down to its cacheable snapshot.
func Compact(o Order) Snapshot {
	items := make([]SnapshotItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, SnapshotItem{ID: it.ID, Quantity: it.Quantity, Price: it.Price})
	}
	return Snapshot{
		ID:            o.ID,
		Status:        o.Status,
		TotalAmount:   o.TotalAmount,
		CreatedAt:     o.CreatedAt,
		Email:         o.Email(),
		PaymentMethod: o.PaymentMethod,
		Items:         items,
	}
}

// CompactAll projects the limit most recent orders (by createdAt) into
// snapshots, newest last. limit <= 0 keeps everything.
func CompactAll(list []Order, limit int) []Snapshot {
	sorted := make([]Order, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt < sorted[j].CreatedAt
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[len(sorted)-limit:]
	}
	snaps := make([]Snapshot, 0, len(sorted))
	for _, o := range sorted {
		snaps = append(snaps, Compact(o))
	}
	return snaps
}

// Order rebuilds a partial Order from the snapshot for degraded display.
// Item names, full shipping details and payment proof are not recoverable.
func (s Snapshot) Order() Order {
	items := make([]LineItem, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, LineItem{ID: it.ID, Quantity: it.Quantity, Price: it.Price})
	}
	return Order{
		ID:            s.ID,
		Items:         items,
		TotalAmount:   s.TotalAmount,
		ShippingInfo:  ShippingInfo{Email: s.Email},
		PaymentMethod: s.PaymentMethod,
		Status:        s.Status,
		CreatedAt:     s.CreatedAt,
	}
}

// MatchesEmail mirrors Order.MatchesEmail for cached entries. Snapshots
// persisted by older storefront builds may miss the email entirely; those
// never match and are effectively skipped by callers.
func (s Snapshot) MatchesEmail(email string) bool {
	return s.Email != "" && strings.EqualFold(s.Email, email)
}
