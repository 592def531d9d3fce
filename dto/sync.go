package dto

import "encoding/json"

type EnqueueSyncRequest struct {
	OperationType string          `json:"operation_type" validate:"required,oneof=create update delete"`
	TableName     string          `json:"table_name" validate:"required"`
	RecordID      string          `json:"record_id" validate:"required"`
	Payload       json.RawMessage `json:"payload" validate:"required"`
}

func (e EnqueueSyncRequest) Validate() error {
	return GetValidator().Struct(e)
}

type NackSyncRequest struct {
	ErrorMessage string `json:"error_message" validate:"required"`
}

func (n NackSyncRequest) Validate() error {
	return GetValidator().Struct(n)
}

type AckManyRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

func (a AckManyRequest) Validate() error {
	return GetValidator().Struct(a)
}

type SaveProgressBatchRequest struct {
	SessionID string          `json:"session_id" validate:"required"`
	CourseID  string          `json:"course_id" validate:"required"`
	BatchData json.RawMessage `json:"batch_data" validate:"required"`
}

func (s SaveProgressBatchRequest) Validate() error {
	return GetValidator().Struct(s)
}

type SetMetadataRequest struct {
	Value string `json:"value" validate:"required"`
}

func (s SetMetadataRequest) Validate() error {
	return GetValidator().Struct(s)
}

type OfflineModeRequest struct {
	IsOffline bool `json:"is_offline"`
}
