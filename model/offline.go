// model/offline.go
package model

import (
	"encoding/json"
	"time"
)

// OfflineSession represents one downloaded course package. Expiry is a
// pure function of wall clock vs ExpiresAt, never a stored transition.
type OfflineSession struct {
	ID                     string     `json:"id" gorm:"primaryKey"`
	StudentID              string     `json:"student_id" gorm:"not null;index"`
	CourseID               string     `json:"course_id" gorm:"not null;index"`
	DownloadedAt           time.Time  `json:"downloaded_at"`
	ExpiresAt              time.Time  `json:"expires_at"`
	PackageVersion         string     `json:"package_version" gorm:"default:v1"`
	PresignedURLExpiryDays int        `json:"presigned_url_expiry_days" gorm:"default:7"`
	LastSyncedAt           *time.Time `json:"last_synced_at"`
	SyncCount              int        `json:"sync_count" gorm:"default:0"`
	IsDeleted              bool       `json:"is_deleted" gorm:"default:false"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func (s *OfflineSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *OfflineSession) IsValid(now time.Time) bool {
	return !s.IsDeleted && !s.IsExpired(now)
}

// MediaCacheEntry tracks one downloaded (or downloading) media asset.
type MediaCacheEntry struct {
	MediaID               string     `json:"media_id" gorm:"primaryKey"`
	CourseID              string     `json:"course_id" gorm:"index"`
	Filename              string     `json:"filename"`
	MediaType             string     `json:"media_type"`
	LocalFilePath         string     `json:"local_file_path"`
	SizeBytes             int64      `json:"size_bytes"`
	DownloadedAt          *time.Time `json:"downloaded_at"`
	PresignedURL          string     `json:"presigned_url"`
	PresignedURLExpiresAt *time.Time `json:"presigned_url_expires_at"`
	IsDownloaded          bool       `json:"is_downloaded" gorm:"default:false"`
	DownloadProgress      int        `json:"download_progress" gorm:"default:0"` // 0-100
}

// OfflineProgressBatch keeps synced-but-retained progress payloads,
// separate from the sync queue which deletes on ack.
type OfflineProgressBatch struct {
	ID        int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID string          `json:"session_id" gorm:"index"`
	CourseID  string          `json:"course_id"`
	BatchData json.RawMessage `json:"batch_data" gorm:"type:text"`
	CreatedAt time.Time       `json:"created_at"`
	Synced    bool            `json:"synced" gorm:"default:false;index"`
	SyncedAt  *time.Time      `json:"synced_at"`
}
