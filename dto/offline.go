package dto

import (
	"time"

	"github.com/brightpath-app/local_api/model"
)

type SaveOfflineSessionRequest struct {
	ID                     string    `json:"id"`
	StudentID              string    `json:"student_id" validate:"required"`
	CourseID               string    `json:"course_id" validate:"required"`
	DownloadedAt           time.Time `json:"downloaded_at"`
	ExpiresAt              time.Time `json:"expires_at" validate:"required"`
	PackageVersion         string    `json:"package_version"`
	PresignedURLExpiryDays int       `json:"presigned_url_expiry_days" validate:"gte=0"`
}

func (s SaveOfflineSessionRequest) Validate() error {
	return GetValidator().Struct(s)
}

// OfflineSessionResponse carries the stored row plus the derived
// validity predicates evaluated against the wall clock at read time.
type OfflineSessionResponse struct {
	model.OfflineSession
	IsExpired bool `json:"is_expired"`
	IsValid   bool `json:"is_valid"`
}

type OfflineSessionStatistics struct {
	TotalSessions   int64 `json:"total_sessions"`
	ActiveSessions  int64 `json:"active_sessions"`
	ExpiredSessions int64 `json:"expired_sessions"`
	TotalMediaCached int64 `json:"total_media_cached"`
	MediaDownloaded int64 `json:"media_downloaded"`
	UnsyncedBatches int64 `json:"unsynced_batches"`
}

type SaveMediaCacheRequest struct {
	MediaID          string `json:"media_id" validate:"required"`
	CourseID         string `json:"course_id" validate:"required"`
	Filename         string `json:"filename"`
	MediaType        string `json:"media_type"`
	LocalFilePath    string `json:"local_file_path"`
	SizeBytes        int64  `json:"size_bytes" validate:"gte=0"`
	PresignedURL     string `json:"presigned_url"`
	DownloadProgress int    `json:"download_progress" validate:"gte=0,lte=100"`
	IsDownloaded     bool   `json:"is_downloaded"`
}

func (s SaveMediaCacheRequest) Validate() error {
	return GetValidator().Struct(s)
}

type UpdateDownloadProgressRequest struct {
	Progress     int  `json:"progress" validate:"gte=0,lte=100"`
	IsDownloaded bool `json:"is_downloaded"`
}

func (u UpdateDownloadProgressRequest) Validate() error {
	return GetValidator().Struct(u)
}
