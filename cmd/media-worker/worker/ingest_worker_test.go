package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edustart-Tech/media-server/common/ingest"
	"github.com/Edustart-Tech/media-server/common/logger"
)

type fakeStreamClient struct {
	pending []goredis.XMessage
	fresh   []goredis.XMessage
	acked   []string
	locks   map[string]string
}

func newFakeStreamClient() *fakeStreamClient {
	return &fakeStreamClient{locks: make(map[string]string)}
}

func (f *fakeStreamClient) CreateStreamGroup(ctx context.Context, stream, group string) error {
	return nil
}

func (f *fakeStreamClient) ReadFromStreamGroup(ctx context.Context, group, consumer, stream string, count int64, block time.Duration) ([]goredis.XStream, error) {
	if len(f.fresh) == 0 {
		return nil, nil
	}
	messages := f.fresh
	f.fresh = nil
	return []goredis.XStream{{Stream: stream, Messages: messages}}, nil
}

func (f *fakeStreamClient) ClaimPendingMessages(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]goredis.XMessage, error) {
	messages := f.pending
	f.pending = nil
	return messages, nil
}

func (f *fakeStreamClient) AckStreamMessage(ctx context.Context, stream, group, messageID string) error {
	f.acked = append(f.acked, messageID)
	return nil
}

func (f *fakeStreamClient) SetNX(ctx context.Context, key, value string, expiry time.Duration) (bool, error) {
	if _, held := f.locks[key]; held {
		return false, nil
	}
	f.locks[key] = value
	return true, nil
}

func (f *fakeStreamClient) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.locks, key)
	}
	return nil
}

type fakeIngestor struct {
	calls []uuid.UUID
	err   error
}

func (f *fakeIngestor) Ingest(ctx context.Context, assetID uuid.UUID) error {
	f.calls = append(f.calls, assetID)
	return f.err
}

type fakeReaper struct {
	calls []uuid.UUID
}

func (f *fakeReaper) Reap(ctx context.Context, assetID uuid.UUID) error {
	f.calls = append(f.calls, assetID)
	return nil
}

type workerFixture struct {
	worker   *IngestWorker
	redis    *fakeStreamClient
	ingestor *fakeIngestor
	reaper   *fakeReaper
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	f := &workerFixture{
		redis:    newFakeStreamClient(),
		ingestor: &fakeIngestor{},
		reaper:   &fakeReaper{},
	}
	f.worker = &IngestWorker{
		redis:         f.redis,
		orchestrator:  f.ingestor,
		reaper:        f.reaper,
		logger:        logger.New("error", "text"),
		stream:        ingest.StreamAssetEvents,
		consumerGroup: "media_ingest_workers",
		consumerName:  "media_worker_test",
	}
	return f
}

func eventMessage(t *testing.T, id string, assetID uuid.UUID, kind string) goredis.XMessage {
	t.Helper()

	payload, err := json.Marshal(ingest.AssetEvent{
		AssetID:   assetID.String(),
		EventKind: kind,
	})
	require.NoError(t, err)

	return goredis.XMessage{
		ID:     id,
		Values: map[string]interface{}{"event": string(payload)},
	}
}

func TestProcessBatch_AcksHandledEvents(t *testing.T) {
	f := newWorkerFixture(t)
	assetID := uuid.New()
	f.redis.fresh = []goredis.XMessage{eventMessage(t, "1-0", assetID, ingest.EventAssetCreated)}

	require.NoError(t, f.worker.processNextBatch(context.Background()))

	assert.Equal(t, []uuid.UUID{assetID}, f.ingestor.calls)
	assert.Equal(t, []string{"1-0"}, f.redis.acked)
}

func TestProcessBatch_LeavesFailedEventsPending(t *testing.T) {
	f := newWorkerFixture(t)
	f.ingestor.err = errors.New("load asset: connection refused")
	assetID := uuid.New()
	f.redis.fresh = []goredis.XMessage{eventMessage(t, "1-0", assetID, ingest.EventAssetCreated)}

	require.NoError(t, f.worker.processNextBatch(context.Background()))

	// A store failure must not consume the event; redelivery is the
	// only path back to ready for an asset stuck in processing
	assert.Equal(t, []uuid.UUID{assetID}, f.ingestor.calls)
	assert.Empty(t, f.redis.acked)
}

func TestProcessBatch_RetriesClaimedEvents(t *testing.T) {
	f := newWorkerFixture(t)
	assetID := uuid.New()
	f.redis.pending = []goredis.XMessage{eventMessage(t, "1-0", assetID, ingest.EventAssetReingest)}

	require.NoError(t, f.worker.processNextBatch(context.Background()))

	// A message abandoned by another consumer is claimed, handled,
	// and finally acked
	assert.Equal(t, []uuid.UUID{assetID}, f.ingestor.calls)
	assert.Equal(t, []string{"1-0"}, f.redis.acked)
}

func TestHandleMessage_DispatchesByKind(t *testing.T) {
	f := newWorkerFixture(t)
	created := uuid.New()
	deleted := uuid.New()

	require.NoError(t, f.worker.handleMessage(context.Background(), eventMessage(t, "1-0", created, ingest.EventAssetCreated)))
	require.NoError(t, f.worker.handleMessage(context.Background(), eventMessage(t, "2-0", deleted, ingest.EventAssetDeleted)))

	assert.Equal(t, []uuid.UUID{created}, f.ingestor.calls)
	assert.Equal(t, []uuid.UUID{deleted}, f.reaper.calls)
}

func TestHandleMessage_DropsPoisonMessages(t *testing.T) {
	f := newWorkerFixture(t)

	// Undecodable events can never succeed on retry; they must be
	// dropped (nil) so the caller acks them out of the pending list
	poison := []goredis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{}},
		{ID: "2-0", Values: map[string]interface{}{"event": "not json"}},
		{ID: "3-0", Values: map[string]interface{}{"event": `{"asset_id":"not-a-uuid","event_kind":"created"}`}},
	}
	for _, message := range poison {
		assert.NoError(t, f.worker.handleMessage(context.Background(), message), "message %s", message.ID)
	}
	assert.Empty(t, f.ingestor.calls)
	assert.Empty(t, f.reaper.calls)
}

func TestHandleMessage_UnknownKindIsDropped(t *testing.T) {
	f := newWorkerFixture(t)

	msg := eventMessage(t, "1-0", uuid.New(), "renamed")
	assert.NoError(t, f.worker.handleMessage(context.Background(), msg))
	assert.Empty(t, f.ingestor.calls)
}

func TestIngestLocked_SerializesPerAsset(t *testing.T) {
	f := newWorkerFixture(t)
	assetID := uuid.New()

	// Simulate another worker holding the asset's lock
	held, err := f.redis.SetNX(context.Background(), "media:ingest:lock:"+assetID.String(), "other_worker", time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	err = f.worker.ingestLocked(context.Background(), assetID)
	assert.Error(t, err)
	assert.Empty(t, f.ingestor.calls)
}

func TestIngestLocked_ReleasesLock(t *testing.T) {
	f := newWorkerFixture(t)
	assetID := uuid.New()

	require.NoError(t, f.worker.ingestLocked(context.Background(), assetID))
	assert.Equal(t, []uuid.UUID{assetID}, f.ingestor.calls)
	assert.Empty(t, f.redis.locks)

	// Released lock means a reingest for the same asset can proceed
	require.NoError(t, f.worker.ingestLocked(context.Background(), assetID))
	assert.Len(t, f.ingestor.calls, 2)
}
