package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	internalaws "github.com/ahadu-market/ordersync/internal/aws"
	"github.com/ahadu-market/ordersync/internal/backend"
	"github.com/ahadu-market/ordersync/internal/cache"
	"github.com/ahadu-market/ordersync/internal/metrics"
	ordersync "github.com/ahadu-market/ordersync/internal/sync"
)

// The poller keeps snapshot backups warm for a configured set of customers.
// As a Lambda it runs once per scheduled event; locally it owns ticker-driven
// pollers, one per email.

func syncEmails() []string {
	var emails []string
	for _, e := range strings.Split(os.Getenv("SYNC_EMAILS"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			emails = append(emails, e)
		}
	}
	return emails
}

func buildEngine(ctx context.Context) (*ordersync.Engine, error) {
	clients, err := internalaws.NewAWSClients(ctx)
	if err != nil {
		return nil, err
	}
	return ordersync.NewEngine(ordersync.EngineConfig{
		Service: backend.NewClient(os.Getenv("ORDERS_API_URL"), nil),
		Cache:   cache.NewDynamoStore(clients.DynamoDB, os.Getenv("SNAPSHOTS_TABLE"), os.Getenv("CACHE_KEY")),
		Metrics: metrics.NewCloudWatchRecorder(clients.CloudWatch),
		// background polls never notify, so no notifier is wired
	}), nil
}

func handleScheduledEvent(engine *ordersync.Engine) func(context.Context, events.CloudWatchEvent) error {
	return func(ctx context.Context, ev events.CloudWatchEvent) error {
		emails := syncEmails()
		log.Printf("scheduled sync (%s) for %d customers", ev.ID, len(emails))
		for _, email := range emails {
			if _, err := engine.Reconcile(ctx, email, true); err != nil {
				// keep going; one customer's outage should not starve the rest
				log.Printf("sync %s: %v", email, err)
			}
		}
		return nil
	}
}

func main() {
	_ = godotenv.Load()

	engine, err := buildEngine(context.Background())
	if err != nil {
		log.Fatalf("failed to init engine: %v", err)
	}

	if os.Getenv("RUN_LOCAL") == "true" {
		interval := 60 * time.Second
		if v := os.Getenv("SYNC_INTERVAL"); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				interval = d
			}
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		var pollers []*ordersync.Poller
		for _, email := range syncEmails() {
			// quicker first refresh to catch updates that landed while down
			p := ordersync.NewPoller(engine, email, interval, 30*time.Second)
			p.Start(ctx)
			pollers = append(pollers, p)
		}
		if len(pollers) == 0 {
			log.Fatal("SYNC_EMAILS is empty, nothing to poll")
		}
		log.Printf("polling %d customers every %s", len(pollers), interval)

		<-ctx.Done()
		for _, p := range pollers {
			p.Stop()
		}
		return
	}

	lambda.Start(handleScheduledEvent(engine))
}
