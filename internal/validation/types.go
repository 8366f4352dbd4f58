package validation

// SyncQuery is the query payload for GET /orders/sync.
type SyncQuery struct {
	Email string `form:"email" validate:"required,email"` // customer natural key
	// Background marks passive polling: suppresses user-facing toasts.
	Background bool `form:"background"`
}

// UpdateStatusRequest is the body for PUT /orders/:orderID/status. The
// backend stays the authority on transition legality; only the vocabulary is
// checked here.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered completed cancelled"`
}
