package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/ahadu-market/ordersync/internal/aws"
	"github.com/ahadu-market/ordersync/internal/orders"
)

// snapshotRecord is the shape persisted in the snapshot DynamoDB table. The
// whole snapshot array lives in one item as a JSON payload, mirroring the
// single-key layout the storefront used in browser storage.
type snapshotRecord struct {
	CacheKey  string    `dynamodbav:"cache_key"` // PK
	Payload   string    `dynamodbav:"payload"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// DynamoStore persists order snapshots in a DynamoDB table.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
	cacheKey  string
	nowFunc   func() time.Time
}

// NewDynamoStore returns a store writing under cacheKey in tableName. An
// empty cacheKey falls back to DefaultKey.
func NewDynamoStore(client aws.DynamoDBAPI, tableName, cacheKey string) *DynamoStore {
	if cacheKey == "" {
		cacheKey = DefaultKey
	}
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		cacheKey:  cacheKey,
		nowFunc:   time.Now,
	}
}

// Save overwrites the stored snapshot document. Callers bound the slice
// before saving; the store persists whatever it is given.
func (s *DynamoStore) Save(ctx context.Context, snaps []orders.Snapshot) error {
	payload, err := json.Marshal(snaps)
	if err != nil {
		return fmt.Errorf("marshal snapshots: %w", err)
	}

	rec := snapshotRecord{
		CacheKey:  s.cacheKey,
		Payload:   string(payload),
		UpdatedAt: s.nowFunc(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("put snapshots (%s): %w", apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("put snapshots: %w", err)
	}
	return nil
}

// Load fetches the stored snapshot document. Returns (nil, nil) if nothing
// has been persisted yet.
func (s *DynamoStore) Load(ctx context.Context) ([]orders.Snapshot, error) {
	key := map[string]types.AttributeValue{
		"cache_key": &types.AttributeValueMemberS{Value: s.cacheKey},
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("get snapshots: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var rec snapshotRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}

	var snaps []orders.Snapshot
	if err := json.Unmarshal([]byte(rec.Payload), &snaps); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return snaps, nil
}
