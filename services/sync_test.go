package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/shared"
)

func enqueueN(t *testing.T, ts *testServices, n int) []int64 {
	t.Helper()

	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		item, err := ts.sync.Enqueue(dto.EnqueueSyncRequest{
			OperationType: shared.SyncOpUpdate,
			TableName:     "content_progress",
			RecordID:      fmt.Sprintf("r%d", i),
			Payload:       json.RawMessage(`{"is_completed":true}`),
		})
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}
	return ids
}

func TestSyncQueueFIFO(t *testing.T) {
	ts := newTestServices(t)
	enqueueN(t, ts, 3)

	batch, err := ts.sync.DequeueBatch(10)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	assert.Equal(t, "r0", batch[0].RecordID)
	assert.Equal(t, "r1", batch[1].RecordID)
	assert.Equal(t, "r2", batch[2].RecordID)
}

func TestDequeueBatchDoesNotRemove(t *testing.T) {
	ts := newTestServices(t)
	enqueueN(t, ts, 2)

	_, err := ts.sync.DequeueBatch(10)
	require.NoError(t, err)

	count, err := ts.sync.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestAckRemovesItem(t *testing.T) {
	ts := newTestServices(t)
	ids := enqueueN(t, ts, 2)

	require.NoError(t, ts.sync.Ack(ids[0]))

	count, err := ts.sync.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Replaying the same confirmation is a no-op.
	require.NoError(t, ts.sync.Ack(ids[0]))
}

func TestAckMany(t *testing.T) {
	ts := newTestServices(t)
	ids := enqueueN(t, ts, 3)

	affected, err := ts.sync.AckMany(ids[:2])
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	count, err := ts.sync.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNackKeepsItemAndBumpsRetry(t *testing.T) {
	ts := newTestServices(t)
	ids := enqueueN(t, ts, 1)

	require.NoError(t, ts.sync.Nack(ids[0], "remote unreachable"))
	require.NoError(t, ts.sync.Nack(ids[0], "remote timeout"))

	batch, err := ts.sync.DequeueBatch(10)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	assert.Equal(t, 2, batch[0].RetryCount)
	assert.Equal(t, "remote timeout", batch[0].ErrorMessage)
	require.NotNil(t, batch[0].LastRetryAt)
}

func TestQueueByTable(t *testing.T) {
	ts := newTestServices(t)
	enqueueN(t, ts, 2)

	_, err := ts.sync.Enqueue(dto.EnqueueSyncRequest{
		OperationType: shared.SyncOpCreate,
		TableName:     "quiz_attempts",
		RecordID:      "a1",
		Payload:       json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	items, err := ts.sync.QueueByTable("quiz_attempts")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a1", items[0].RecordID)
	assert.Equal(t, "quiz_attempts", items[0].TargetTable)
}

func TestClearEmptiesQueue(t *testing.T) {
	ts := newTestServices(t)
	enqueueN(t, ts, 3)

	cleared, err := ts.sync.Clear()
	require.NoError(t, err)
	assert.Equal(t, int64(3), cleared)

	count, err := ts.sync.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProgressBatchLifecycle(t *testing.T) {
	ts := newTestServices(t)

	batch, err := ts.sync.SaveProgressBatch(dto.SaveProgressBatchRequest{
		SessionID: "sess1",
		CourseID:  "c1",
		BatchData: json.RawMessage(`{"completed":["b1"]}`),
	})
	require.NoError(t, err)
	require.NotZero(t, batch.ID)
	assert.False(t, batch.Synced)

	unsynced, err := ts.sync.UnsyncedBatches(10)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)

	require.NoError(t, ts.sync.MarkBatchSynced(batch.ID))

	// Synced batches are retained but leave the unsynced view.
	unsynced, err = ts.sync.UnsyncedBatches(10)
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestMarkBatchSyncedUnknown(t *testing.T) {
	ts := newTestServices(t)

	err := ts.sync.MarkBatchSynced(9999)
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestMetadataRoundTrip(t *testing.T) {
	ts := newTestServices(t)

	require.NoError(t, ts.sync.SetMetadata("theme", "dark"))
	require.NoError(t, ts.sync.SetMetadata("theme", "light"))

	meta, err := ts.sync.GetMetadata("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", meta.Value)

	_, err = ts.sync.GetMetadata("missing")
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestLastSyncTime(t *testing.T) {
	ts := newTestServices(t)

	got, err := ts.sync.LastSyncTime()
	require.NoError(t, err)
	assert.Nil(t, got)

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ts.sync.SetLastSyncTime(at))

	got, err = ts.sync.LastSyncTime()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, at.Equal(*got))
}

func TestOfflineModeFlag(t *testing.T) {
	ts := newTestServices(t)

	isOffline, err := ts.sync.IsOfflineMode()
	require.NoError(t, err)
	assert.False(t, isOffline)

	require.NoError(t, ts.sync.SetOfflineMode(true))

	isOffline, err = ts.sync.IsOfflineMode()
	require.NoError(t, err)
	assert.True(t, isOffline)

	require.NoError(t, ts.sync.SetOfflineMode(false))

	isOffline, err = ts.sync.IsOfflineMode()
	require.NoError(t, err)
	assert.False(t, isOffline)
}
