package notify

import (
	"context"
	"log"
)

// Severity of a user-facing notification.
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Notifier is a fire-and-forget user notification channel. Implementations
// must never block reconciliation on delivery and must swallow their own
// transport errors.
type Notifier interface {
	Notify(ctx context.Context, severity, message string)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(ctx context.Context, severity, message string) {}

// LogNotifier writes notifications to the process log, for local runs.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, severity, message string) {
	log.Printf("[notify] %s: %s", severity, message)
}
