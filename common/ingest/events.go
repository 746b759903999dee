package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Edustart-Tech/media-server/common/logger"
	rediscommon "github.com/Edustart-Tech/media-server/common/redis"
)

// StreamAssetEvents is the Redis stream carrying asset lifecycle events to
// the background workers
const StreamAssetEvents = "media.asset.events"

// Event kinds. Created and reingest trigger the orchestrator, deleted
// triggers the reaper.
const (
	EventAssetCreated  = "created"
	EventAssetReingest = "reingest"
	EventAssetDeleted  = "deleted"
)

// AssetEvent is the payload contract between the API server and the
// workers. Delivery is at-least-once; consumers must be idempotent.
type AssetEvent struct {
	AssetID   string `json:"asset_id"`
	EventKind string `json:"event_kind"`
}

// Publisher emits asset lifecycle events to the job stream
type Publisher struct {
	redis *rediscommon.Client
	log   *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(redis *rediscommon.Client, log *logger.Logger) *Publisher {
	return &Publisher{
		redis: redis,
		log:   log,
	}
}

// Publish appends an asset event to the stream
func (p *Publisher) Publish(ctx context.Context, assetID uuid.UUID, eventKind string) error {
	payload, err := json.Marshal(AssetEvent{
		AssetID:   assetID.String(),
		EventKind: eventKind,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal asset event: %w", err)
	}

	id, err := p.redis.AddToStream(ctx, StreamAssetEvents, map[string]interface{}{
		"event": string(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to publish asset event: %w", err)
	}

	p.log.Info("published asset event",
		"asset_id", assetID,
		"event_kind", eventKind,
		"message_id", id,
	)

	return nil
}
