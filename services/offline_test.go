package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/model"
	"github.com/brightpath-app/local_api/shared"
)

func TestSaveOfflineSessionValidity(t *testing.T) {
	ts := newTestServices(t)

	session, err := ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID: "s1",
		CourseID:  "c1",
		ExpiresAt: daysAhead(7),
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, "v1", session.PackageVersion)

	got, err := ts.offline.GetOfflineSession(session.ID)
	require.NoError(t, err)
	assert.True(t, got.IsValid)
	assert.False(t, got.IsExpired)
}

func TestExpiredSessionIsInvalid(t *testing.T) {
	ts := newTestServices(t)

	session, err := ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID:    "s1",
		CourseID:     "c1",
		DownloadedAt: daysAgo(10),
		ExpiresAt:    daysAgo(3),
	})
	require.NoError(t, err)

	got, err := ts.offline.GetOfflineSession(session.ID)
	require.NoError(t, err)
	assert.True(t, got.IsExpired)
	assert.False(t, got.IsValid)
}

func TestSaveOfflineSessionRejectsInvertedWindow(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID:    "s1",
		CourseID:     "c1",
		DownloadedAt: time.Now(),
		ExpiresAt:    daysAgo(1),
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindInvalidInput, shared.KindOf(err))
}

func TestListOfflineSessionsActiveOnly(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID: "s1", CourseID: "c1", ExpiresAt: daysAhead(7),
	})
	require.NoError(t, err)
	_, err = ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID: "s1", CourseID: "c2", DownloadedAt: daysAgo(20), ExpiresAt: daysAgo(5),
	})
	require.NoError(t, err)

	all, err := ts.offline.ListOfflineSessions("s1", "", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := ts.offline.ListOfflineSessions("s1", "", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "c1", active[0].CourseID)
}

func TestTouchSessionSync(t *testing.T) {
	ts := newTestServices(t)

	session, err := ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID: "s1", CourseID: "c1", ExpiresAt: daysAhead(7),
	})
	require.NoError(t, err)

	require.NoError(t, ts.offline.TouchSessionSync(session.ID))
	require.NoError(t, ts.offline.TouchSessionSync(session.ID))

	got, err := ts.offline.GetOfflineSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SyncCount)
	require.NotNil(t, got.LastSyncedAt)

	err = ts.offline.TouchSessionSync("missing")
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestDeleteOfflineSessionIsSoft(t *testing.T) {
	ts := newTestServices(t)

	session, err := ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID: "s1", CourseID: "c1", ExpiresAt: daysAhead(7),
	})
	require.NoError(t, err)

	require.NoError(t, ts.offline.DeleteOfflineSession(session.ID))

	// The row survives soft deletion but stops being valid or listed.
	got, err := ts.offline.GetOfflineSession(session.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.False(t, got.IsValid)

	listed, err := ts.offline.ListOfflineSessions("s1", "", false)
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Deleting an absent session is a no-op.
	require.NoError(t, ts.offline.DeleteOfflineSession("missing"))
}

func TestForceDeleteSessionRemovesRow(t *testing.T) {
	ts := newTestServices(t)

	session, err := ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID: "s1", CourseID: "c1", ExpiresAt: daysAhead(7),
	})
	require.NoError(t, err)

	require.NoError(t, ts.offline.ForceDeleteSession(session.ID))

	_, err = ts.offline.GetOfflineSession(session.ID)
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))

	require.NoError(t, ts.offline.ForceDeleteSession(session.ID))
}

func TestSweepConfigFromEnv(t *testing.T) {
	assert.Equal(t, "30 3 * * *", envStr("OFFLINE_SWEEP_SCHEDULE", "30 3 * * *"))

	t.Setenv("OFFLINE_SWEEP_SCHEDULE", "0 4 * * *")
	t.Setenv("OFFLINE_EXPIRE_AFTER_DAYS", "7")

	assert.Equal(t, "0 4 * * *", envStr("OFFLINE_SWEEP_SCHEDULE", "30 3 * * *"))
	assert.Equal(t, 7, envInt("OFFLINE_EXPIRE_AFTER_DAYS", 30))
}

func TestRetentionSweepPurgesOnlySoftDeleted(t *testing.T) {
	ts := newTestServices(t)

	// Expired long ago but never deleted: the sweep soft-deletes it,
	// and the purge leaves it in place until the purge window elapses.
	stale, err := ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID: "s1", CourseID: "c1", DownloadedAt: daysAgo(60), ExpiresAt: daysAgo(40),
	})
	require.NoError(t, err)

	// Soft-deleted and far past the purge window: removed for good.
	ancient, err := ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID: "s1", CourseID: "c2", DownloadedAt: daysAgo(200), ExpiresAt: daysAgo(120),
	})
	require.NoError(t, err)
	require.NoError(t, ts.offline.DeleteOfflineSession(ancient.ID))

	// Still valid: untouched.
	fresh, err := ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID: "s1", CourseID: "c3", ExpiresAt: daysAhead(7),
	})
	require.NoError(t, err)

	ts.offline.RunRetentionSweep()

	staleRow, err := ts.offline.GetOfflineSession(stale.ID)
	require.NoError(t, err)
	assert.True(t, staleRow.IsDeleted)

	_, err = ts.offline.GetOfflineSession(ancient.ID)
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))

	freshRow, err := ts.offline.GetOfflineSession(fresh.ID)
	require.NoError(t, err)
	assert.True(t, freshRow.IsValid)
}

func TestMediaCacheLifecycle(t *testing.T) {
	ts := newTestServices(t)

	entry, err := ts.offline.SaveMediaCacheEntry(dto.SaveMediaCacheRequest{
		MediaID:   "media1",
		CourseID:  "c1",
		Filename:  "lecture.mp4",
		MediaType: "video",
		SizeBytes: 1024,
	})
	require.NoError(t, err)
	assert.False(t, entry.IsDownloaded)
	assert.Equal(t, 0, entry.DownloadProgress)

	require.NoError(t, ts.offline.UpdateDownloadProgress("media1", dto.UpdateDownloadProgressRequest{Progress: 40}))

	got, err := ts.offline.GetMediaCacheEntry("media1")
	require.NoError(t, err)
	assert.Equal(t, 40, got.DownloadProgress)
	assert.False(t, got.IsDownloaded)

	// Finishing the download pins progress at 100.
	require.NoError(t, ts.offline.UpdateDownloadProgress("media1", dto.UpdateDownloadProgressRequest{Progress: 97, IsDownloaded: true}))

	got, err = ts.offline.GetMediaCacheEntry("media1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.DownloadProgress)
	assert.True(t, got.IsDownloaded)
}

func TestDownloadProgressNeverRegresses(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.offline.SaveMediaCacheEntry(dto.SaveMediaCacheRequest{
		MediaID:      "media1",
		CourseID:     "c1",
		Filename:     "lecture.mp4",
		MediaType:    "video",
		IsDownloaded: true,
	})
	require.NoError(t, err)

	// A stale retry cannot move the counter or the flag backwards.
	require.NoError(t, ts.offline.UpdateDownloadProgress("media1", dto.UpdateDownloadProgressRequest{Progress: 10}))

	got, err := ts.offline.GetMediaCacheEntry("media1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.DownloadProgress)
	assert.True(t, got.IsDownloaded)
}

func TestDownloadProgressClampsToRange(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.offline.SaveMediaCacheEntry(dto.SaveMediaCacheRequest{
		MediaID:   "media2",
		CourseID:  "c1",
		Filename:  "notes.pdf",
		MediaType: "document",
	})
	require.NoError(t, err)

	require.NoError(t, ts.offline.UpdateDownloadProgress("media2", dto.UpdateDownloadProgressRequest{Progress: 250}))

	got, err := ts.offline.GetMediaCacheEntry("media2")
	require.NoError(t, err)
	assert.Equal(t, 100, got.DownloadProgress)
	assert.False(t, got.IsDownloaded)
}

func TestUpdateDownloadProgressUnknownMedia(t *testing.T) {
	ts := newTestServices(t)

	err := ts.offline.UpdateDownloadProgress("missing", dto.UpdateDownloadProgressRequest{Progress: 10})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestDeleteCourseMedia(t *testing.T) {
	ts := newTestServices(t)

	for _, id := range []string{"media1", "media2"} {
		_, err := ts.offline.SaveMediaCacheEntry(dto.SaveMediaCacheRequest{
			MediaID: id, CourseID: "c1", MediaType: "video",
		})
		require.NoError(t, err)
	}
	_, err := ts.offline.SaveMediaCacheEntry(dto.SaveMediaCacheRequest{
		MediaID: "media3", CourseID: "c2", MediaType: "audio",
	})
	require.NoError(t, err)

	deleted, err := ts.offline.DeleteCourseMedia("c1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := ts.offline.ListCourseMedia("c2")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestOfflineStatistics(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID: "s1", CourseID: "c1", ExpiresAt: daysAhead(7),
	})
	require.NoError(t, err)
	_, err = ts.offline.SaveOfflineSession(dto.SaveOfflineSessionRequest{
		StudentID: "s1", CourseID: "c2", DownloadedAt: daysAgo(20), ExpiresAt: daysAgo(5),
	})
	require.NoError(t, err)

	_, err = ts.offline.SaveMediaCacheEntry(dto.SaveMediaCacheRequest{
		MediaID: "media1", CourseID: "c1", IsDownloaded: true,
	})
	require.NoError(t, err)
	_, err = ts.offline.SaveMediaCacheEntry(dto.SaveMediaCacheRequest{
		MediaID: "media2", CourseID: "c1",
	})
	require.NoError(t, err)

	_, err = ts.sync.SaveProgressBatch(dto.SaveProgressBatchRequest{
		SessionID: "sess1", CourseID: "c1", BatchData: []byte(`{}`),
	})
	require.NoError(t, err)

	stats, err := ts.offline.Statistics("s1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalSessions)
	assert.Equal(t, int64(1), stats.ActiveSessions)
	assert.Equal(t, int64(1), stats.ExpiredSessions)
	assert.Equal(t, int64(2), stats.TotalMediaCached)
	assert.Equal(t, int64(1), stats.MediaDownloaded)
	assert.Equal(t, int64(1), stats.UnsyncedBatches)
}

func TestSessionValidityPredicates(t *testing.T) {
	now := time.Now()

	session := model.OfflineSession{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, session.IsValid(now))
	assert.False(t, session.IsExpired(now))

	session.ExpiresAt = now.Add(-time.Hour)
	assert.True(t, session.IsExpired(now))
	assert.False(t, session.IsValid(now))

	session.ExpiresAt = now.Add(time.Hour)
	session.IsDeleted = true
	assert.False(t, session.IsValid(now))
}
