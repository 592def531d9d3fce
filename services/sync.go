package services

import (
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/model"
	"github.com/brightpath-app/local_api/services/repositories"
	"github.com/brightpath-app/local_api/shared"
)

// SyncService owns the outbox of pending local mutations, the retained
// offline progress batches, and the app metadata flags the sync loop
// reads.
type SyncService struct {
	context.DefaultService

	sqlSvc     *SqliteService
	monitorSvc *MonitoringService

	syncRepo *repositories.SyncRepository
}

const SYNC_SVC = "sync_svc"

func (svc SyncService) Id() string {
	return SYNC_SVC
}

func (svc *SyncService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *SyncService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	if m, ok := svc.Service(MONITORING_SVC).(*MonitoringService); ok {
		svc.monitorSvc = m
	}
	svc.syncRepo = repositories.NewSyncRepository(svc.sqlSvc.Db())
	return nil
}

// Enqueue appends one pending mutation to the outbox.
func (svc *SyncService) Enqueue(req dto.EnqueueSyncRequest) (*model.SyncQueueItem, error) {
	item := &model.SyncQueueItem{
		OperationType: req.OperationType,
		TargetTable:   req.TableName,
		RecordID:      req.RecordID,
		Payload:       req.Payload,
		CreatedAt:     time.Now(),
	}
	if err := svc.syncRepo.Enqueue(item); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	svc.observeQueueDepth()
	return item, nil
}

// DequeueBatch returns the oldest pending items without removing
// them. Removal happens on Ack only, after the remote confirms.
func (svc *SyncService) DequeueBatch(limit int) ([]model.SyncQueueItem, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := svc.syncRepo.Batch(limit)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return items, nil
}

func (svc *SyncService) QueueByTable(tableName string) ([]model.SyncQueueItem, error) {
	items, err := svc.syncRepo.ListByTable(tableName)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return items, nil
}

// Ack removes a confirmed item from the outbox. Acking an absent id
// is a no-op so replays of the same confirmation stay safe.
func (svc *SyncService) Ack(id int64) error {
	if _, err := svc.syncRepo.Ack(id); err != nil {
		return svc.sqlSvc.HandleError(err)
	}

	svc.observeQueueDepth()
	return nil
}

func (svc *SyncService) AckMany(ids []int64) (int64, error) {
	affected, err := svc.syncRepo.AckMany(ids)
	if err != nil {
		return 0, svc.sqlSvc.HandleError(err)
	}

	svc.observeQueueDepth()
	return affected, nil
}

// Nack records a failed replay; the item stays queued with its retry
// count bumped and the remote's error kept for inspection.
func (svc *SyncService) Nack(id int64, errorMessage string) error {
	affected, err := svc.syncRepo.Nack(id, errorMessage, time.Now())
	if err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	if affected == 0 {
		return shared.NewNotFoundError(nil, "sync item not found")
	}

	log.WithFields(log.Fields{
		"sync_id": id,
		"error":   errorMessage,
	}).Warn("Sync item nacked")
	return nil
}

func (svc *SyncService) Count() (int64, error) {
	count, err := svc.syncRepo.Count()
	if err != nil {
		return 0, svc.sqlSvc.HandleError(err)
	}
	return count, nil
}

// Clear empties the outbox. Destructive, used by the logout flow.
func (svc *SyncService) Clear() (int64, error) {
	cleared, err := svc.syncRepo.Clear()
	if err != nil {
		return 0, svc.sqlSvc.HandleError(err)
	}

	svc.observeQueueDepth()
	log.WithField("cleared", cleared).Info("Sync queue cleared")
	return cleared, nil
}

func (svc *SyncService) observeQueueDepth() {
	if svc.monitorSvc == nil {
		return
	}
	if count, err := svc.syncRepo.Count(); err == nil {
		svc.monitorSvc.SetOutboxDepth(count)
	}
}

// SaveProgressBatch retains one offline progress payload. Unlike queue
// items these rows survive a successful sync until the retention
// sweep ages them out.
func (svc *SyncService) SaveProgressBatch(req dto.SaveProgressBatchRequest) (*model.OfflineProgressBatch, error) {
	batch := &model.OfflineProgressBatch{
		SessionID: req.SessionID,
		CourseID:  req.CourseID,
		BatchData: req.BatchData,
		CreatedAt: time.Now(),
	}
	if err := svc.syncRepo.CreateProgressBatch(batch); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return batch, nil
}

func (svc *SyncService) UnsyncedBatches(limit int) ([]model.OfflineProgressBatch, error) {
	if limit <= 0 {
		limit = 50
	}
	batches, err := svc.syncRepo.UnsyncedBatches(limit)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return batches, nil
}

func (svc *SyncService) MarkBatchSynced(id int64) error {
	affected, err := svc.syncRepo.MarkBatchSynced(id, time.Now())
	if err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	if affected == 0 {
		return shared.NewNotFoundError(nil, "progress batch not found")
	}
	return nil
}

func (svc *SyncService) SetMetadata(key, value string) error {
	if err := svc.syncRepo.SetMetadata(key, value); err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	return nil
}

func (svc *SyncService) GetMetadata(key string) (*model.AppMetadata, error) {
	meta, err := svc.syncRepo.GetMetadata(key)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return meta, nil
}

func (svc *SyncService) AllMetadata() ([]model.AppMetadata, error) {
	meta, err := svc.syncRepo.AllMetadata()
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return meta, nil
}

// SetLastSyncTime stamps the last successful full sync in RFC3339.
func (svc *SyncService) SetLastSyncTime(at time.Time) error {
	return svc.SetMetadata(shared.MetaLastFullSync, at.UTC().Format(time.RFC3339))
}

func (svc *SyncService) LastSyncTime() (*time.Time, error) {
	meta, err := svc.GetMetadata(shared.MetaLastFullSync)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	at, err := time.Parse(time.RFC3339, meta.Value)
	if err != nil {
		return nil, shared.NewBadRequestError(err, "stored sync time is not RFC3339")
	}
	return &at, nil
}

func (svc *SyncService) SetOfflineMode(isOffline bool) error {
	return svc.SetMetadata(shared.MetaIsOfflineMode, strconv.FormatBool(isOffline))
}

func (svc *SyncService) IsOfflineMode() (bool, error) {
	meta, err := svc.GetMetadata(shared.MetaIsOfflineMode)
	if err != nil {
		if shared.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return meta.Value == "true", nil
}
