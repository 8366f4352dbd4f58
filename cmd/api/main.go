package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	internalaws "github.com/ahadu-market/ordersync/internal/aws"
	"github.com/ahadu-market/ordersync/internal/backend"
	"github.com/ahadu-market/ordersync/internal/cache"
	"github.com/ahadu-market/ordersync/internal/handlers"
	"github.com/ahadu-market/ordersync/internal/metrics"
	"github.com/ahadu-market/ordersync/internal/middlewares"
	"github.com/ahadu-market/ordersync/internal/notify"
	ordersync "github.com/ahadu-market/ordersync/internal/sync"
)

func setupRouter(engine handlers.OrderSyncer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.PrometheusMiddleware())

	// health + metrics
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterOrderRoutes(r, handlers.HandlerConfig{Engine: engine})

	return r
}

func buildEngine(ctx context.Context) (*ordersync.Engine, error) {
	clients, err := internalaws.NewAWSClients(ctx)
	if err != nil {
		return nil, err
	}

	svc := backend.NewClient(os.Getenv("ORDERS_API_URL"), nil)

	var store cache.SnapshotStore
	switch os.Getenv("CACHE_BACKEND") {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		store = cache.NewRedisStore(rdb, os.Getenv("CACHE_KEY"), 0)
	default:
		store = cache.NewDynamoStore(clients.DynamoDB, os.Getenv("SNAPSHOTS_TABLE"), os.Getenv("CACHE_KEY"))
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if queueURL := os.Getenv("NOTIFICATIONS_QUEUE_URL"); queueURL != "" {
		notifier = notify.NewSQSNotifier(clients.SQS, queueURL)
	}

	limit, _ := strconv.Atoi(os.Getenv("SNAPSHOT_LIMIT"))

	return ordersync.NewEngine(ordersync.EngineConfig{
		Service:       svc,
		Cache:         store,
		Notifier:      notifier,
		Metrics:       metrics.NewCloudWatchRecorder(clients.CloudWatch),
		SnapshotLimit: limit,
	}), nil
}

func main() {
	// .env is optional; real environments inject vars directly
	_ = godotenv.Load()

	engine, err := buildEngine(context.Background())
	if err != nil {
		log.Fatalf("failed to init engine: %v", err)
	}

	r := setupRouter(engine)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := os.Getenv("LISTEN_ADDR")
		if addr == "" {
			addr = ":8080"
		}
		// the storefront frontend calls this API directly during development
		handler := cors.Default().Handler(r)
		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		log.Printf("running local server on %s", addr)
		if err := srv.ListenAndServe(); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
