package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ahadu-market/ordersync/internal/middlewares"
	"github.com/ahadu-market/ordersync/internal/orders"
	ordersync "github.com/ahadu-market/ordersync/internal/sync"
	"github.com/ahadu-market/ordersync/internal/validation"
)

// OrderSyncer is the engine surface the handlers need.
type OrderSyncer interface {
	Reconcile(ctx context.Context, email string, background bool) (*ordersync.Result, error)
	RequestStatusChange(ctx context.Context, orderID, status string) (orders.Order, error)
}

// HandlerConfig groups dependencies for the order sync handlers.
type HandlerConfig struct {
	Engine OrderSyncer
}

// RegisterOrderRoutes registers the order sync API.
func RegisterOrderRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.GET("/orders/sync", func(c *gin.Context) {
		ctx := c.Request.Context()

		var ok bool
		defer func() { middlewares.RecordOrderOperation("sync", ok) }()

		var q validation.SyncQuery
		if err := validation.BindQueryAndValidate(c, &q, v); err != nil {
			// BindQueryAndValidate already wrote a 400
			return
		}

		res, err := cfg.Engine.Reconcile(ctx, q.Email, q.Background)
		switch {
		case err == nil:
		case errors.Is(err, ordersync.ErrEmailRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email_required"})
			return
		case errors.Is(err, ordersync.ErrReconcileInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "sync_in_progress"})
			return
		case errors.Is(err, ordersync.ErrAllSourcesExhausted):
			c.JSON(http.StatusBadGateway, gin.H{"error": "all_sources_exhausted"})
			return
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sync_failed", "detail": err.Error()})
			return
		}

		ok = true
		c.Header("X-Request-Id", requestID(c))
		c.JSON(http.StatusOK, gin.H{
			"orders":            res.Orders,
			"total":             len(res.Orders),
			"changed_order_ids": res.ChangedOrderIDs,
			"degraded":          res.Degraded,
			"source":            res.Source,
		})
	})

	r.PUT("/orders/:orderID/status", func(c *gin.Context) {
		ctx := c.Request.Context()

		var ok bool
		defer func() { middlewares.RecordOrderOperation("update_status", ok) }()

		orderID := c.Param("orderID")
		var req validation.UpdateStatusRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		updated, err := cfg.Engine.RequestStatusChange(ctx, orderID, req.Status)
		if err != nil {
			if errors.Is(err, ordersync.ErrStatusUpdateUnconfirmed) {
				// the optimistic local write already happened; hand the
				// caller the patched record so it can reconcile later
				c.JSON(http.StatusBadGateway, gin.H{
					"error": "status_update_unconfirmed",
					"order": updated,
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "status_update_failed", "detail": err.Error()})
			return
		}

		ok = true
		c.JSON(http.StatusOK, gin.H{"order": updated})
	})
}

func requestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-Id"); id != "" {
		return id
	}
	return uuid.NewString()
}
