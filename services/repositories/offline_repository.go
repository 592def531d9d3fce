package repositories

import (
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-app/local_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OfflineRepository manages downloaded course package lifecycle rows.
type OfflineRepository struct {
	BaseRepository
}

func NewOfflineRepository(db *gorm.DB) *OfflineRepository {
	return &OfflineRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *OfflineRepository) UpsertSession(session *model.OfflineSession) error {
	if session.ID == "" {
		id, _ := uuid.NewV7()
		session.ID = id.String()
	}
	now := time.Now()
	session.UpdatedAt = now
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.DownloadedAt.IsZero() {
		session.DownloadedAt = now
	}

	return ds.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(session).Error
}

func (ds *OfflineRepository) GetSession(id string) (*model.OfflineSession, error) {
	var session model.OfflineSession
	if err := ds.db.Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns the student's non-deleted sessions, newest
// download first. courseID narrows to one course; activeOnly excludes
// expired rows.
func (ds *OfflineRepository) ListSessions(studentID, courseID string, activeOnly bool, now time.Time) ([]model.OfflineSession, error) {
	query := ds.db.Where("student_id = ? AND is_deleted = ?", studentID, false)

	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}
	if activeOnly {
		query = query.Where("expires_at >= ?", now)
	}

	var sessions []model.OfflineSession
	if err := query.Order("downloaded_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// TouchSync increments sync_count and stamps last_synced_at.
func (ds *OfflineRepository) TouchSync(id string, now time.Time) (int64, error) {
	result := ds.db.Model(&model.OfflineSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_synced_at": now,
			"sync_count":     gorm.Expr("sync_count + 1"),
			"updated_at":     now,
		})
	return result.RowsAffected, result.Error
}

func (ds *OfflineRepository) SoftDeleteSession(id string, now time.Time) (int64, error) {
	result := ds.db.Model(&model.OfflineSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "updated_at": now})
	return result.RowsAffected, result.Error
}

func (ds *OfflineRepository) HardDeleteSession(id string) (int64, error) {
	result := ds.db.Where("id = ?", id).Delete(&model.OfflineSession{})
	return result.RowsAffected, result.Error
}

// SoftDeleteExpired flags sessions whose expiry is older than the
// retention window. Merely-expired sessions inside the window stay.
func (ds *OfflineRepository) SoftDeleteExpired(daysOld int, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -daysOld)
	result := ds.db.Model(&model.OfflineSession{}).
		Where("expires_at < ? AND is_deleted = ?", cutoff, false).
		Updates(map[string]interface{}{"is_deleted": true, "updated_at": now})
	return result.RowsAffected, result.Error
}

// PurgeDeleted physically removes sessions that were already
// soft-deleted and whose expiry is older than the retention window.
// It never touches a merely-expired-but-not-deleted session.
func (ds *OfflineRepository) PurgeDeleted(olderThanDays int, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -olderThanDays)
	result := ds.db.
		Where("is_deleted = ? AND expires_at < ?", true, cutoff).
		Delete(&model.OfflineSession{})
	return result.RowsAffected, result.Error
}

func (ds *OfflineRepository) CountActive(studentID string, now time.Time) (int64, error) {
	query := ds.db.Model(&model.OfflineSession{}).
		Where("is_deleted = ? AND expires_at >= ?", false, now)
	if studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (ds *OfflineRepository) CountTotal() (int64, error) {
	var count int64
	if err := ds.db.Model(&model.OfflineSession{}).
		Where("is_deleted = ?", false).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (ds *OfflineRepository) CountExpired(now time.Time) (int64, error) {
	var count int64
	if err := ds.db.Model(&model.OfflineSession{}).
		Where("is_deleted = ? AND expires_at < ?", false, now).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
