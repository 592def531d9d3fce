package repositories

import (
	"time"

	"github.com/brightpath-app/local_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncRepository owns the outbox, the synced-but-retained progress
// batches and the app_metadata key/value table.
type SyncRepository struct {
	BaseRepository
}

func NewSyncRepository(db *gorm.DB) *SyncRepository {
	return &SyncRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ==================== SYNC QUEUE METHODS ====================

func (ds *SyncRepository) Enqueue(item *model.SyncQueueItem) error {
	item.CreatedAt = time.Now()
	item.RetryCount = 0
	return ds.db.Create(item).Error
}

// Batch returns the oldest pending items without removing them.
// Creation time orders the queue; id breaks ties within one tick.
func (ds *SyncRepository) Batch(limit int) ([]model.SyncQueueItem, error) {
	var items []model.SyncQueueItem
	if err := ds.db.Order("created_at ASC, id ASC").
		Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (ds *SyncRepository) ListByTable(tableName string) ([]model.SyncQueueItem, error) {
	var items []model.SyncQueueItem
	if err := ds.db.Where("table_name = ?", tableName).
		Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (ds *SyncRepository) Ack(id int64) (int64, error) {
	result := ds.db.Where("id = ?", id).Delete(&model.SyncQueueItem{})
	return result.RowsAffected, result.Error
}

func (ds *SyncRepository) AckMany(ids []int64) (int64, error) {
	result := ds.db.Where("id IN ?", ids).Delete(&model.SyncQueueItem{})
	return result.RowsAffected, result.Error
}

func (ds *SyncRepository) Nack(id int64, errorMessage string, now time.Time) (int64, error) {
	result := ds.db.Model(&model.SyncQueueItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count":   gorm.Expr("retry_count + 1"),
			"last_retry_at": now,
			"error_message": errorMessage,
		})
	return result.RowsAffected, result.Error
}

func (ds *SyncRepository) Count() (int64, error) {
	var count int64
	if err := ds.db.Model(&model.SyncQueueItem{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (ds *SyncRepository) Clear() (int64, error) {
	result := ds.db.Where("1 = 1").Delete(&model.SyncQueueItem{})
	return result.RowsAffected, result.Error
}

// ==================== PROGRESS BATCH METHODS ====================

func (ds *SyncRepository) CreateProgressBatch(batch *model.OfflineProgressBatch) error {
	batch.CreatedAt = time.Now()
	batch.Synced = false
	batch.SyncedAt = nil
	return ds.db.Create(batch).Error
}

func (ds *SyncRepository) UnsyncedBatches(limit int) ([]model.OfflineProgressBatch, error) {
	var batches []model.OfflineProgressBatch
	if err := ds.db.Where("synced = ?", false).
		Order("created_at ASC, id ASC").
		Limit(limit).Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (ds *SyncRepository) MarkBatchSynced(id int64, now time.Time) (int64, error) {
	result := ds.db.Model(&model.OfflineProgressBatch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"synced": true, "synced_at": now})
	return result.RowsAffected, result.Error
}

func (ds *SyncRepository) PurgeSyncedBatches(olderThanDays int, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -olderThanDays)
	result := ds.db.
		Where("synced = ? AND synced_at < ?", true, cutoff).
		Delete(&model.OfflineProgressBatch{})
	return result.RowsAffected, result.Error
}

func (ds *SyncRepository) CountUnsyncedBatches() (int64, error) {
	var count int64
	if err := ds.db.Model(&model.OfflineProgressBatch{}).
		Where("synced = ?", false).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ==================== APP METADATA METHODS ====================

func (ds *SyncRepository) SetMetadata(key, value string) error {
	meta := model.AppMetadata{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return ds.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&meta).Error
}

func (ds *SyncRepository) GetMetadata(key string) (*model.AppMetadata, error) {
	var meta model.AppMetadata
	if err := ds.db.Where("key = ?", key).First(&meta).Error; err != nil {
		return nil, err
	}
	return &meta, nil
}

func (ds *SyncRepository) AllMetadata() ([]model.AppMetadata, error) {
	var metadata []model.AppMetadata
	if err := ds.db.Find(&metadata).Error; err != nil {
		return nil, err
	}
	return metadata, nil
}
