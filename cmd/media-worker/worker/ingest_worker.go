package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Edustart-Tech/media-server/common/ingest"
	"github.com/Edustart-Tech/media-server/common/logger"
	rediscommon "github.com/Edustart-Tech/media-server/common/redis"
)

const (
	// ingestLockTTL bounds how long one worker can hold an asset's
	// ingest lock before another may take over
	ingestLockTTL = 5 * time.Minute

	// pendingRetryAfter is how long an unacked message stays with its
	// original consumer before the claim pass redelivers it
	pendingRetryAfter = 1 * time.Minute
)

// streamClient is the slice of the Redis wrapper the worker uses
type streamClient interface {
	CreateStreamGroup(ctx context.Context, stream, group string) error
	ReadFromStreamGroup(ctx context.Context, group, consumer, stream string, count int64, block time.Duration) ([]goredis.XStream, error)
	ClaimPendingMessages(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]goredis.XMessage, error)
	AckStreamMessage(ctx context.Context, stream, group, messageID string) error
	SetNX(ctx context.Context, key, value string, expiry time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Ingestor runs the ingestion pipeline for one asset
type Ingestor interface {
	Ingest(ctx context.Context, assetID uuid.UUID) error
}

// SandboxReaper removes one asset's extracted sandbox
type SandboxReaper interface {
	Reap(ctx context.Context, assetID uuid.UUID) error
}

// IngestWorker consumes asset lifecycle events from the Redis stream and
// dispatches them: created and reingest events run the ingestion
// orchestrator, deleted events run the sandbox reaper.
type IngestWorker struct {
	redis         streamClient
	orchestrator  Ingestor
	reaper        SandboxReaper
	logger        *logger.Logger
	stream        string
	consumerGroup string
	consumerName  string
}

// NewIngestWorker creates a new ingest worker
func NewIngestWorker(redisClient *rediscommon.Client, orchestrator Ingestor, reaper SandboxReaper, log *logger.Logger) *IngestWorker {
	return &IngestWorker{
		redis:         redisClient,
		orchestrator:  orchestrator,
		reaper:        reaper,
		logger:        log,
		stream:        ingest.StreamAssetEvents,
		consumerGroup: "media_ingest_workers",
		consumerName:  fmt.Sprintf("media_worker_%s", uuid.New().String()[:8]),
	}
}

// Start begins processing asset events until the context is cancelled
func (w *IngestWorker) Start(ctx context.Context) error {
	w.logger.Info("starting ingest worker",
		"stream", w.stream,
		"consumer_group", w.consumerGroup,
		"consumer_name", w.consumerName)

	if err := w.redis.CreateStreamGroup(ctx, w.stream, w.consumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("ingest worker stopping")
			return nil
		default:
			if err := w.processNextBatch(ctx); err != nil {
				w.logger.Error("failed to process batch", "error", err)
				time.Sleep(1 * time.Second) // Back off on error
			}
		}
	}
}

// processNextBatch redelivers stale pending messages, then reads and
// processes one batch of new events
func (w *IngestWorker) processNextBatch(ctx context.Context) error {
	claimed, err := w.redis.ClaimPendingMessages(ctx, w.stream, w.consumerGroup, w.consumerName, pendingRetryAfter, 10)
	if err != nil {
		return fmt.Errorf("XAUTOCLAIM error: %w", err)
	}
	w.processMessages(ctx, claimed)

	streams, err := w.redis.ReadFromStreamGroup(ctx, w.consumerGroup, w.consumerName, w.stream, 10, 5*time.Second)
	if err != nil {
		return fmt.Errorf("XREADGROUP error: %w", err)
	}

	if streams == nil {
		// Timeout, no messages
		return nil
	}

	for _, stream := range streams {
		w.processMessages(ctx, stream.Messages)
	}

	return nil
}

// processMessages handles a slice of messages, ACKing each one only when
// its handler succeeded. A failed message stays pending so the claim pass
// redelivers it; an ACK here would forfeit the at-least-once contract the
// orchestrator's error split relies on.
func (w *IngestWorker) processMessages(ctx context.Context, messages []goredis.XMessage) {
	for _, message := range messages {
		if err := w.handleMessage(ctx, message); err != nil {
			w.logger.Error("failed to handle asset event, leaving pending",
				"message_id", message.ID, "error", err)
			continue
		}

		if err := w.redis.AckStreamMessage(ctx, w.stream, w.consumerGroup, message.ID); err != nil {
			w.logger.Error("failed to ACK message", "message_id", message.ID, "error", err)
		}
	}
}

// handleMessage decodes and dispatches one asset event. Undecodable
// messages return nil; redelivering them cannot help, so they get ACKed
// rather than poisoning the pending list.
func (w *IngestWorker) handleMessage(ctx context.Context, message goredis.XMessage) error {
	raw, ok := message.Values["event"].(string)
	if !ok {
		w.logger.Warn("message has no event payload, dropping", "message_id", message.ID)
		return nil
	}

	var event ingest.AssetEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		w.logger.Warn("undecodable asset event, dropping", "message_id", message.ID, "error", err)
		return nil
	}

	assetID, err := uuid.Parse(event.AssetID)
	if err != nil {
		w.logger.Warn("invalid asset_id in event, dropping", "message_id", message.ID, "error", err)
		return nil
	}

	w.logger.Info("processing asset event",
		"asset_id", assetID,
		"event_kind", event.EventKind,
		"message_id", message.ID)

	switch event.EventKind {
	case ingest.EventAssetCreated, ingest.EventAssetReingest:
		return w.ingestLocked(ctx, assetID)
	case ingest.EventAssetDeleted:
		return w.reaper.Reap(ctx, assetID)
	default:
		w.logger.Warn("unknown event kind, skipping", "event_kind", event.EventKind)
		return nil
	}
}

// ingestLocked serializes ingestion per asset across workers. The claim
// pattern in the store already prevents corruption; the lock just avoids
// two workers extracting the same archive redundantly.
func (w *IngestWorker) ingestLocked(ctx context.Context, assetID uuid.UUID) error {
	lockKey := fmt.Sprintf("media:ingest:lock:%s", assetID)

	acquired, err := w.redis.SetNX(ctx, lockKey, w.consumerName, ingestLockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire ingest lock: %w", err)
	}
	if !acquired {
		// Leave the event pending rather than ACK it away: if the lock
		// holder crashes, the claim pass retries this event after the
		// holder's work would have made it a no-op anyway
		return fmt.Errorf("asset %s locked by another worker", assetID)
	}
	defer func() {
		if err := w.redis.Delete(ctx, lockKey); err != nil {
			w.logger.Warn("failed to release ingest lock", "asset_id", assetID, "error", err)
		}
	}()

	return w.orchestrator.Ingest(ctx, assetID)
}
