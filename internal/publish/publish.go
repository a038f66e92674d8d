package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/gearhound/gearpage-scraper/internal/models"
)

// RedisClient is the subset of redis operations the publisher needs,
// narrowed for testing.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// BatchPublisher forwards persisted page batches onto a Redis stream so
// downstream consumers can pick them up without watching the filesystem.
type BatchPublisher struct {
	redis  RedisClient
	stream string
	logger *slog.Logger
}

func NewBatchPublisher(client RedisClient, stream string) *BatchPublisher {
	return &BatchPublisher{
		redis:  client,
		stream: stream,
		logger: slog.Default().With("component", "batch_publisher"),
	}
}

func (p *BatchPublisher) Publish(ctx context.Context, batch *models.PageBatch) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	err = p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"query":        batch.Query,
			"page":         batch.Page,
			"result_count": batch.ResultCount,
			"payload":      payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish batch to stream %s: %w", p.stream, err)
	}

	p.logger.Debug("published batch", "stream", p.stream, "page", batch.Page)
	return nil
}

func (p *BatchPublisher) Close() error {
	return p.redis.Close()
}
