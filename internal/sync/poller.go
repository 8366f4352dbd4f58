package sync

import (
	"context"
	"errors"
	"log"
	"time"
)

// Reconciler is the slice of the engine the poller drives.
type Reconciler interface {
	Reconcile(ctx context.Context, email string, background bool) (*Result, error)
}

// Poller periodically triggers a background reconciliation for one customer.
// It is owned by the caller, not the engine: the engine never schedules its
// own refreshes, and a poller can be stopped without touching engine state.
type Poller struct {
	target   Reconciler
	email    string
	interval time.Duration
	// initialDelay schedules a quicker first refresh after Start to catch
	// updates that landed while the customer was away. 0 disables it.
	initialDelay time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewPoller builds a poller reconciling email every interval, with an
// optional quicker first refresh.
func NewPoller(target Reconciler, email string, interval, initialDelay time.Duration) *Poller {
	return &Poller{
		target:       target,
		email:        email,
		interval:     interval,
		initialDelay: initialDelay,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the polling loop. It returns immediately; the loop runs
// until Stop is called or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

// Stop halts the loop and waits for it to exit. Safe to call once.
func (p *Poller) Stop() {
	close(p.stop)
	<-p.done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	if p.initialDelay > 0 {
		select {
		case <-time.After(p.initialDelay):
			p.refresh(ctx)
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		}
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.refresh(ctx)
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	_, err := p.target.Reconcile(ctx, p.email, true)
	switch {
	case err == nil:
	case errors.Is(err, ErrReconcileInFlight):
		// a manual refresh is running; this cycle is redundant anyway
	default:
		log.Printf("poller: reconcile %s: %v", p.email, err)
	}
}
