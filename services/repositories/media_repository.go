package repositories

import (
	"github.com/brightpath-app/local_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MediaRepository struct {
	BaseRepository
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *MediaRepository) UpsertEntry(entry *model.MediaCacheEntry) error {
	return ds.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(entry).Error
}

func (ds *MediaRepository) GetByMedia(mediaID string) (*model.MediaCacheEntry, error) {
	var entry model.MediaCacheEntry
	if err := ds.db.Where("media_id = ?", mediaID).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (ds *MediaRepository) ListByCourse(courseID string) ([]model.MediaCacheEntry, error) {
	var entries []model.MediaCacheEntry
	if err := ds.db.Where("course_id = ?", courseID).
		Order("downloaded_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateDownloadProgress only ever moves the counter forward, and a
// downloaded entry stays downloaded; stale retries cannot regress
// either field.
func (ds *MediaRepository) UpdateDownloadProgress(mediaID string, progress int, isDownloaded bool) (int64, error) {
	result := ds.db.Model(&model.MediaCacheEntry{}).
		Where("media_id = ?", mediaID).
		Updates(map[string]interface{}{
			"download_progress": gorm.Expr("MAX(download_progress, ?)", progress),
			"is_downloaded":     gorm.Expr("is_downloaded OR ?", isDownloaded),
		})
	return result.RowsAffected, result.Error
}

func (ds *MediaRepository) DeleteByCourse(courseID string) (int64, error) {
	result := ds.db.Where("course_id = ?", courseID).Delete(&model.MediaCacheEntry{})
	return result.RowsAffected, result.Error
}

func (ds *MediaRepository) CountCached() (int64, error) {
	var count int64
	if err := ds.db.Model(&model.MediaCacheEntry{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (ds *MediaRepository) CountDownloaded() (int64, error) {
	var count int64
	if err := ds.db.Model(&model.MediaCacheEntry{}).
		Where("is_downloaded = ?", true).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
