package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ahadu-market/ordersync/internal/orders"
	ordersync "github.com/ahadu-market/ordersync/internal/sync"
)

// stubEngine returns canned results.
type stubEngine struct {
	result *ordersync.Result
	err    error

	updated   orders.Order
	updateErr error

	gotEmail      string
	gotBackground bool
	gotOrderID    string
	gotStatus     string
}

func (s *stubEngine) Reconcile(ctx context.Context, email string, background bool) (*ordersync.Result, error) {
	s.gotEmail = email
	s.gotBackground = background
	return s.result, s.err
}

func (s *stubEngine) RequestStatusChange(ctx context.Context, orderID, status string) (orders.Order, error) {
	s.gotOrderID = orderID
	s.gotStatus = status
	return s.updated, s.updateErr
}

func newTestRouter(engine OrderSyncer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterOrderRoutes(r, HandlerConfig{Engine: engine})
	return r
}

func TestSyncEndpoint_Success(t *testing.T) {
	stub := &stubEngine{
		result: &ordersync.Result{
			Orders:          []orders.Order{{ID: "O1", Status: orders.StatusShipped}},
			ChangedOrderIDs: []string{"O1"},
			Source:          ordersync.SourceLookup,
		},
	}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/sync?email=user@x.com&background=true", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.gotEmail != "user@x.com" || !stub.gotBackground {
		t.Fatalf("engine called with email=%q background=%v", stub.gotEmail, stub.gotBackground)
	}

	var body struct {
		Total           int      `json:"total"`
		ChangedOrderIDs []string `json:"changed_order_ids"`
		Degraded        bool     `json:"degraded"`
		Source          string   `json:"source"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Total != 1 || len(body.ChangedOrderIDs) != 1 || body.Source != ordersync.SourceLookup {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestSyncEndpoint_MissingEmail(t *testing.T) {
	stub := &stubEngine{}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/sync", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if stub.gotEmail != "" {
		t.Fatal("engine must not be called without an email")
	}
}

func TestSyncEndpoint_InvalidEmail(t *testing.T) {
	r := newTestRouter(&stubEngine{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/sync?email=not-an-email", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSyncEndpoint_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"in flight", ordersync.ErrReconcileInFlight, http.StatusConflict},
		{"exhausted", ordersync.ErrAllSourcesExhausted, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&stubEngine{err: tc.err})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/orders/sync?email=user@x.com", nil)
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestStatusEndpoint_Success(t *testing.T) {
	stub := &stubEngine{
		updated: orders.Order{ID: "O1", Status: orders.StatusShipped},
	}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/orders/O1/status", strings.NewReader(`{"status":"shipped"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.gotOrderID != "O1" || stub.gotStatus != orders.StatusShipped {
		t.Fatalf("engine called with id=%q status=%q", stub.gotOrderID, stub.gotStatus)
	}
}

func TestStatusEndpoint_RejectsUnknownStatus(t *testing.T) {
	stub := &stubEngine{}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/orders/O1/status", strings.NewReader(`{"status":"teleported"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if stub.gotOrderID != "" {
		t.Fatal("engine must not be called for an unknown status")
	}
}

func TestStatusEndpoint_UnconfirmedUpdate(t *testing.T) {
	stub := &stubEngine{
		updated:   orders.Order{ID: "O1", Status: orders.StatusShipped},
		updateErr: ordersync.ErrStatusUpdateUnconfirmed,
	}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/orders/O1/status", strings.NewReader(`{"status":"shipped"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var body struct {
		Error string       `json:"error"`
		Order orders.Order `json:"order"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error != "status_update_unconfirmed" || body.Order.Status != orders.StatusShipped {
		t.Fatalf("unexpected body: %+v", body)
	}
}
