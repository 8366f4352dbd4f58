package cache

import (
	"context"

	"github.com/ahadu-market/ordersync/internal/orders"
)

// DefaultKey is the cache key the storefront has always persisted its order
// backup under.
const DefaultKey = "persistedOrders"

// SnapshotStore is the durable key-value collaborator holding the bounded
// order backup. Implementations persist one document: the JSON-encoded
// snapshot array. Save errors are reported to the caller, who is expected to
// log and move on; a full cache must never fail a reconciliation.
type SnapshotStore interface {
	Save(ctx context.Context, snaps []orders.Snapshot) error
	Load(ctx context.Context) ([]orders.Snapshot, error)
}
