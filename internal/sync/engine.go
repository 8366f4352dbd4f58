package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ahadu-market/ordersync/internal/cache"
	"github.com/ahadu-market/ordersync/internal/metrics"
	"github.com/ahadu-market/ordersync/internal/notify"
	"github.com/ahadu-market/ordersync/internal/orders"
)

// ReadWriteService is the storefront order API as the engine sees it. The
// four list methods are the network fallback tiers, in priority order.
type ReadWriteService interface {
	LookupOrders(ctx context.Context, email string) ([]orders.Order, error)
	DirectLookupOrders(ctx context.Context, email string) ([]orders.Order, error)
	ListAllOrders(ctx context.Context) ([]orders.Order, error)
	ListUserOrders(ctx context.Context, email string) ([]orders.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (orders.Order, error)
}

// Source names for Result.Source and metrics.
const (
	SourceLookup       = "lookup"
	SourceDirectLookup = "direct-lookup"
	SourceListAll      = "list-all"
	SourceUserOrders   = "user-orders"
	SourceCache        = "cache"
	SourceNone         = "none"
)

var (
	// ErrEmailRequired is returned when Reconcile is called without an
	// email; the engine refuses to operate on an unknown identity.
	ErrEmailRequired = errors.New("email is required")

	// ErrAllSourcesExhausted is returned when every network tier errored
	// and the cache fallback had nothing usable.
	ErrAllSourcesExhausted = errors.New("all order sources exhausted")

	// ErrReconcileInFlight is returned when a reconciliation is already
	// running; overlapping calls are rejected rather than raced.
	ErrReconcileInFlight = errors.New("reconcile already in progress")

	// ErrStatusUpdateUnconfirmed wraps a status-update transport failure
	// after the local optimistic write was applied. Callers that see it
	// should trigger a fresh Reconcile to settle the discrepancy.
	ErrStatusUpdateUnconfirmed = errors.New("status update applied locally but not confirmed by server")
)

// Result is the outcome of one reconciliation.
type Result struct {
	Orders          []orders.Order `json:"orders"`
	ChangedOrderIDs []string       `json:"changed_order_ids"`
	// Degraded marks a result served from the cache fallback; the UI should
	// say it is showing cached/backup orders.
	Degraded bool   `json:"degraded"`
	Source   string `json:"source"`
}

// EngineConfig groups the engine's injected collaborators.
type EngineConfig struct {
	Service  ReadWriteService
	Cache    cache.SnapshotStore
	Notifier notify.Notifier  // optional; defaults to notify.Nop
	Metrics  metrics.Recorder // optional; defaults to metrics.Nop
	// SnapshotLimit bounds how many snapshots are persisted per save
	// (most recent by createdAt). Defaults to 3.
	SnapshotLimit int
}

// Engine reconciles a customer's order list from redundant backend read
// paths and a durable snapshot cache. It is the sole owner of the in-memory
// order list: only Reconcile (full replace) and RequestStatusChange (single
// record patch) mutate it.
type Engine struct {
	svc           ReadWriteService
	cache         cache.SnapshotStore
	notifier      notify.Notifier
	metrics       metrics.Recorder
	snapshotLimit int

	mu       sync.Mutex
	inFlight bool
	current  []orders.Order
}

// NewEngine builds an engine from cfg, filling optional collaborators with
// no-ops.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.SnapshotLimit <= 0 {
		cfg.SnapshotLimit = 3
	}
	return &Engine{
		svc:           cfg.Service,
		cache:         cfg.Cache,
		notifier:      cfg.Notifier,
		metrics:       cfg.Metrics,
		snapshotLimit: cfg.SnapshotLimit,
	}
}

// Orders returns a copy of the current in-memory order list.
func (e *Engine) Orders() []orders.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]orders.Order, len(e.current))
	copy(out, e.current)
	return out
}

// tier is one read strategy in the network fallback chain.
type tier struct {
	name string
	// filtered marks tiers whose result must be filtered by email
	// client-side (the role-scoped full listing).
	filtered bool
	fetch    func(ctx context.Context, email string) ([]orders.Order, error)
}

func (e *Engine) tiers() []tier {
	return []tier{
		{name: SourceLookup, fetch: e.svc.LookupOrders},
		{name: SourceDirectLookup, fetch: e.svc.DirectLookupOrders},
		{name: SourceListAll, filtered: true, fetch: func(ctx context.Context, _ string) ([]orders.Order, error) {
			return e.svc.ListAllOrders(ctx)
		}},
		{name: SourceUserOrders, fetch: e.svc.ListUserOrders},
	}
}

// Reconcile produces the authoritative order list for email, walking the
// network tiers in priority order and falling back to the snapshot cache
// when every network path fails or comes back empty. The first non-empty
// tier short-circuits the chain. background suppresses all user-facing
// notifications for passive polling.
func (e *Engine) Reconcile(ctx context.Context, email string, background bool) (*Result, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return nil, ErrReconcileInFlight
	}
	e.inFlight = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}()

	var (
		fetched  []orders.Order
		source   string
		failures int
	)
	netTiers := e.tiers()
	for _, t := range netTiers {
		list, err := t.fetch(ctx, email)
		if err != nil {
			// strategy failed, try the next one
			log.Printf("sync: %s tier failed: %v", t.name, err)
			failures++
			continue
		}
		if t.filtered {
			list = filterByEmail(list, email)
		}
		if len(list) > 0 {
			fetched = list
			source = t.name
			break
		}
	}

	if source == "" {
		// every network tier failed or returned nothing; try the backup
		snaps := e.loadCached(ctx, email)
		if len(snaps) > 0 {
			res := e.commit(snapsToOrders(snaps), SourceCache, true)
			e.metrics.ReconcileServed(ctx, SourceCache, true)
			if !background {
				e.notifier.Notify(ctx, notify.SeverityWarning, "Showing cached orders - connectivity issues detected.")
			}
			return res, nil
		}

		if failures == len(netTiers) {
			// true failure: nothing was reachable and the cache is empty
			e.metrics.ReconcileFailed(ctx)
			if !background {
				e.notifier.Notify(ctx, notify.SeverityError, "Couldn't refresh orders. Please try again.")
			}
			return nil, ErrAllSourcesExhausted
		}

		// at least one tier answered and legitimately had no orders for
		// this customer (new user); an empty list is the authoritative
		// result, not an error
		fetched = nil
		source = SourceNone
	}

	res := e.commit(fetched, source, false)

	if source != SourceNone {
		e.persist(ctx, res.Orders)
	}
	e.metrics.ReconcileServed(ctx, source, false)

	if !background {
		if n := len(res.ChangedOrderIDs); n > 0 {
			plural := ""
			if n > 1 {
				plural = "s"
			}
			e.notifier.Notify(ctx, notify.SeveritySuccess, fmt.Sprintf("%d order status update%s detected!", n, plural))
		} else {
			e.notifier.Notify(ctx, notify.SeveritySuccess, "Orders are up to date!")
		}
	}
	return res, nil
}

// commit diffs the incoming list against the previous in-memory list and
// replaces it wholesale. Changed ids are reported in incoming-list order:
// orders that are new, plus orders whose status differs.
func (e *Engine) commit(incoming []orders.Order, source string, degraded bool) *Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := make(map[string]orders.Order, len(e.current))
	for _, o := range e.current {
		prev[o.ID] = o
	}

	var changed []string
	for _, o := range incoming {
		old, ok := prev[o.ID]
		if !ok || old.Status != o.Status {
			changed = append(changed, o.ID)
		}
	}

	e.current = incoming

	out := make([]orders.Order, len(incoming))
	copy(out, incoming)
	return &Result{
		Orders:          out,
		ChangedOrderIDs: changed,
		Degraded:        degraded,
		Source:          source,
	}
}

// persist writes the bounded snapshot projection of list to the durable
// cache. Failures (quota, transport) are logged, never propagated: the cache
// is a best-effort backup.
func (e *Engine) persist(ctx context.Context, list []orders.Order) {
	if e.cache == nil || len(list) == 0 {
		return
	}
	snaps := orders.CompactAll(list, e.snapshotLimit)
	if err := e.cache.Save(ctx, snaps); err != nil {
		log.Printf("sync: persist snapshots: %v", err)
	}
}

// loadCached reads the backup snapshots matching email, skipping malformed
// entries. Any cache error degrades to an empty result.
func (e *Engine) loadCached(ctx context.Context, email string) []orders.Snapshot {
	if e.cache == nil {
		return nil
	}
	snaps, err := e.cache.Load(ctx)
	if err != nil {
		log.Printf("sync: load snapshots: %v", err)
		return nil
	}
	var matched []orders.Snapshot
	for _, s := range snaps {
		if s.ID == "" || s.Email == "" {
			log.Printf("sync: skipping malformed cached order %q", s.ID)
			continue
		}
		if s.MatchesEmail(email) {
			matched = append(matched, s)
		}
	}
	return matched
}

func snapsToOrders(snaps []orders.Snapshot) []orders.Order {
	out := make([]orders.Order, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.Order())
	}
	return out
}

func filterByEmail(list []orders.Order, email string) []orders.Order {
	var out []orders.Order
	for _, o := range list {
		if o.Email() == "" {
			// malformed record: no owner to match against
			log.Printf("sync: skipping order %q without shipping email", o.ID)
			continue
		}
		if o.MatchesEmail(email) {
			out = append(out, o)
		}
	}
	return out
}

// RequestStatusChange asks the backend to move orderID to status. On success
// the matching in-memory order is replaced with the backend's authoritative
// record. On transport failure the status is overwritten locally and the
// returned error wraps the cause with ErrStatusUpdateUnconfirmed, so callers
// can tell "applied optimistically" from "confirmed by server". A stricter
// design would leave state untouched on failure; the optimistic overwrite is
// kept deliberately to match the storefront's behavior.
func (e *Engine) RequestStatusChange(ctx context.Context, orderID, status string) (orders.Order, error) {
	if orderID == "" {
		return orders.Order{}, errors.New("order id is required")
	}

	updated, err := e.svc.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		e.metrics.StatusUpdateFailed(ctx)
		patched, found := e.patchStatus(orderID, status)
		if !found {
			return orders.Order{}, fmt.Errorf("update order %s: %w", orderID, err)
		}
		return patched, fmt.Errorf("%w: %v", ErrStatusUpdateUnconfirmed, err)
	}

	e.replaceOrder(updated)
	return updated, nil
}

// patchStatus applies the local optimistic overwrite. Returns the patched
// copy and whether the order was present in memory.
func (e *Engine) patchStatus(orderID, status string) (orders.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.current {
		if e.current[i].ID == orderID {
			e.current[i].Status = status
			return e.current[i], true
		}
	}
	return orders.Order{}, false
}

func (e *Engine) replaceOrder(updated orders.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.current {
		if e.current[i].ID == updated.ID {
			e.current[i] = updated
			return
		}
	}
}
