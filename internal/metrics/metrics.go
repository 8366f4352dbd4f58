package metrics

import "context"

// Recorder receives engine outcome counters. Recording is best-effort; no
// implementation may fail a reconciliation.
type Recorder interface {
	// ReconcileServed counts a successful reconciliation, tagged with the
	// tier that served it and whether the result was degraded (cache-fed).
	ReconcileServed(ctx context.Context, source string, degraded bool)
	// ReconcileFailed counts an all-sources-exhausted reconciliation.
	ReconcileFailed(ctx context.Context)
	// StatusUpdateFailed counts a status update that fell back to the local
	// optimistic write.
	StatusUpdateFailed(ctx context.Context)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) ReconcileServed(ctx context.Context, source string, degraded bool) {}
func (Nop) ReconcileFailed(ctx context.Context)                               {}
func (Nop) StatusUpdateFailed(ctx context.Context)                            {}
