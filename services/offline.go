package services

import (
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/model"
	"github.com/brightpath-app/local_api/services/repositories"
	"github.com/brightpath-app/local_api/shared"
)

// OfflineService owns downloaded course sessions and the media cache
// ledger, plus the nightly retention sweep that soft-deletes stale
// sessions and purges soft-deleted ones past the retention window.
type OfflineService struct {
	context.DefaultService

	sqlSvc     *SqliteService
	monitorSvc *MonitoringService

	offlineRepo *repositories.OfflineRepository
	mediaRepo   *repositories.MediaRepository
	syncRepo    *repositories.SyncRepository

	cron *cron.Cron

	expireAfterDays int
	purgeAfterDays  int
	sweepSchedule   string
}

const OFFLINE_SVC = "offline_svc"

func (svc OfflineService) Id() string {
	return OFFLINE_SVC
}

func (svc *OfflineService) Configure(ctx *context.Context) error {
	svc.expireAfterDays = envInt("OFFLINE_EXPIRE_AFTER_DAYS", 30)
	svc.purgeAfterDays = envInt("OFFLINE_PURGE_AFTER_DAYS", 90)
	svc.sweepSchedule = envStr("OFFLINE_SWEEP_SCHEDULE", "30 3 * * *")
	return svc.DefaultService.Configure(ctx)
}

func (svc *OfflineService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	if m, ok := svc.Service(MONITORING_SVC).(*MonitoringService); ok {
		svc.monitorSvc = m
	}

	svc.offlineRepo = repositories.NewOfflineRepository(svc.sqlSvc.Db())
	svc.mediaRepo = repositories.NewMediaRepository(svc.sqlSvc.Db())
	svc.syncRepo = repositories.NewSyncRepository(svc.sqlSvc.Db())

	svc.cron = cron.New()
	if _, err := svc.cron.AddFunc(svc.sweepSchedule, svc.RunRetentionSweep); err != nil {
		return err
	}
	svc.cron.Start()

	return nil
}

func (svc *OfflineService) Shutdown() {
	if svc.cron != nil {
		svc.cron.Stop()
	}
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envStr(key, fallback string) string {
	if raw := os.Getenv(key); raw != "" {
		return raw
	}
	return fallback
}

// SaveOfflineSession records or refreshes a downloaded course package.
func (svc *OfflineService) SaveOfflineSession(req dto.SaveOfflineSessionRequest) (*model.OfflineSession, error) {
	if !req.ExpiresAt.After(req.DownloadedAt) {
		return nil, shared.NewBadRequestError(nil, "expires_at must be after downloaded_at")
	}

	id := req.ID
	if id == "" {
		uid, _ := uuid.NewV7()
		id = uid.String()
	}

	now := time.Now()
	downloadedAt := req.DownloadedAt
	if downloadedAt.IsZero() {
		downloadedAt = now
	}

	session := &model.OfflineSession{
		ID:                     id,
		StudentID:              req.StudentID,
		CourseID:               req.CourseID,
		DownloadedAt:           downloadedAt,
		ExpiresAt:              req.ExpiresAt,
		PackageVersion:         req.PackageVersion,
		PresignedURLExpiryDays: req.PresignedURLExpiryDays,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if session.PackageVersion == "" {
		session.PackageVersion = "v1"
	}

	if err := svc.offlineRepo.UpsertSession(session); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	log.WithFields(log.Fields{
		"session_id": session.ID,
		"course_id":  session.CourseID,
		"expires_at": session.ExpiresAt,
	}).Info("Offline session saved")

	return session, nil
}

func (svc *OfflineService) GetOfflineSession(id string) (*dto.OfflineSessionResponse, error) {
	session, err := svc.offlineRepo.GetSession(id)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return svc.toResponse(session, time.Now()), nil
}

func (svc *OfflineService) ListOfflineSessions(studentID, courseID string, activeOnly bool) ([]dto.OfflineSessionResponse, error) {
	now := time.Now()
	sessions, err := svc.offlineRepo.ListSessions(studentID, courseID, activeOnly, now)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	out := make([]dto.OfflineSessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, *svc.toResponse(&sessions[i], now))
	}
	return out, nil
}

func (svc *OfflineService) toResponse(session *model.OfflineSession, now time.Time) *dto.OfflineSessionResponse {
	return &dto.OfflineSessionResponse{
		OfflineSession: *session,
		IsExpired:      session.IsExpired(now),
		IsValid:        session.IsValid(now),
	}
}

// TouchSessionSync bumps the session's sync counter and timestamp
// after a successful replay against the remote service.
func (svc *OfflineService) TouchSessionSync(id string) error {
	affected, err := svc.offlineRepo.TouchSync(id, time.Now())
	if err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	if affected == 0 {
		return shared.NewNotFoundError(nil, "offline session not found")
	}
	return nil
}

// DeleteOfflineSession soft-deletes; the row survives until the purge
// window elapses so late sync replays can still resolve it. Deleting
// an absent session is a no-op.
func (svc *OfflineService) DeleteOfflineSession(id string) error {
	if _, err := svc.offlineRepo.SoftDeleteSession(id, time.Now()); err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	return nil
}

// ForceDeleteSession removes the row immediately, skipping the
// retention window. Absent sessions are a no-op.
func (svc *OfflineService) ForceDeleteSession(id string) error {
	if _, err := svc.offlineRepo.HardDeleteSession(id); err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	return nil
}

// RunRetentionSweep is the nightly job: expired sessions older than
// the expiry window are soft-deleted, and only already soft-deleted
// sessions past the purge window are removed for good. Synced progress
// batches past the purge window go with them.
func (svc *OfflineService) RunRetentionSweep() {
	now := time.Now()

	softDeleted, err := svc.offlineRepo.SoftDeleteExpired(svc.expireAfterDays, now)
	if err != nil {
		log.WithError(err).Error("Retention sweep soft-delete failed")
		return
	}

	purged, err := svc.offlineRepo.PurgeDeleted(svc.purgeAfterDays, now)
	if err != nil {
		log.WithError(err).Error("Retention sweep purge failed")
		return
	}

	batchesPurged, err := svc.syncRepo.PurgeSyncedBatches(svc.purgeAfterDays, now)
	if err != nil {
		log.WithError(err).Error("Retention sweep batch purge failed")
		return
	}

	if svc.monitorSvc != nil {
		svc.monitorSvc.RecordRetentionSweep(softDeleted, purged)
	}

	log.WithFields(log.Fields{
		"soft_deleted":   softDeleted,
		"purged":         purged,
		"batches_purged": batchesPurged,
	}).Info("Offline retention sweep finished")
}

// SaveMediaCacheEntry records or refreshes one media asset ledger row.
func (svc *OfflineService) SaveMediaCacheEntry(req dto.SaveMediaCacheRequest) (*model.MediaCacheEntry, error) {
	entry := &model.MediaCacheEntry{
		MediaID:          req.MediaID,
		CourseID:         req.CourseID,
		Filename:         req.Filename,
		MediaType:        req.MediaType,
		LocalFilePath:    req.LocalFilePath,
		SizeBytes:        req.SizeBytes,
		PresignedURL:     req.PresignedURL,
		DownloadProgress: req.DownloadProgress,
		IsDownloaded:     req.IsDownloaded,
	}
	if req.IsDownloaded {
		now := time.Now()
		entry.DownloadedAt = &now
		entry.DownloadProgress = 100
	}

	if err := svc.mediaRepo.UpsertEntry(entry); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return entry, nil
}

func (svc *OfflineService) GetMediaCacheEntry(mediaID string) (*model.MediaCacheEntry, error) {
	entry, err := svc.mediaRepo.GetByMedia(mediaID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return entry, nil
}

func (svc *OfflineService) ListCourseMedia(courseID string) ([]model.MediaCacheEntry, error) {
	entries, err := svc.mediaRepo.ListByCourse(courseID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return entries, nil
}

func (svc *OfflineService) UpdateDownloadProgress(mediaID string, req dto.UpdateDownloadProgressRequest) error {
	progress := req.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 100 || req.IsDownloaded {
		progress = 100
	}
	affected, err := svc.mediaRepo.UpdateDownloadProgress(mediaID, progress, req.IsDownloaded)
	if err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	if affected == 0 {
		return shared.NewNotFoundError(nil, "media cache entry not found")
	}
	return nil
}

func (svc *OfflineService) DeleteCourseMedia(courseID string) (int64, error) {
	deleted, err := svc.mediaRepo.DeleteByCourse(courseID)
	if err != nil {
		return 0, svc.sqlSvc.HandleError(err)
	}
	return deleted, nil
}

// Statistics summarizes the offline footprint for the settings screen.
func (svc *OfflineService) Statistics(studentID string) (*dto.OfflineSessionStatistics, error) {
	now := time.Now()

	total, err := svc.offlineRepo.CountTotal()
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	active, err := svc.offlineRepo.CountActive(studentID, now)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	expired, err := svc.offlineRepo.CountExpired(now)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	cached, err := svc.mediaRepo.CountCached()
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	downloaded, err := svc.mediaRepo.CountDownloaded()
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	unsynced, err := svc.syncRepo.CountUnsyncedBatches()
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	return &dto.OfflineSessionStatistics{
		TotalSessions:    total,
		ActiveSessions:   active,
		ExpiredSessions:  expired,
		TotalMediaCached: cached,
		MediaDownloaded:  downloaded,
		UnsyncedBatches:  unsynced,
	}, nil
}
