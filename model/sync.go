// model/sync.go
package model

import (
	"encoding/json"
	"time"
)

// SyncQueueItem is one pending local mutation awaiting replay against
// the remote service. Rows are append-only, FIFO by CreatedAt, and
// removed only on confirmed remote success.
type SyncQueueItem struct {
	ID            int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	OperationType string          `json:"operation_type" gorm:"not null"`
	TargetTable   string          `json:"table_name" gorm:"column:table_name;not null;index"`
	RecordID      string          `json:"record_id" gorm:"not null"`
	Payload       json.RawMessage `json:"payload" gorm:"type:text"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`
	RetryCount    int             `json:"retry_count" gorm:"default:0"`
	LastRetryAt   *time.Time      `json:"last_retry_at"`
	ErrorMessage  string          `json:"error_message"`
}

func (SyncQueueItem) TableName() string {
	return "sync_queue"
}

// AppMetadata is a generic key/value row for scalar flags such as
// last_full_sync and is_offline_mode.
type AppMetadata struct {
	Key       string    `json:"key" gorm:"primaryKey"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AppMetadata) TableName() string {
	return "app_metadata"
}
