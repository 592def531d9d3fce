package shared

const (
	EnrollmentID = "enrollment_id"

	ModuleStatusNotStarted = "not_started"
	ModuleStatusInProgress = "in_progress"
	ModuleStatusCompleted  = "completed"

	AttemptStatusInProgress = "in_progress"
	AttemptStatusCompleted  = "completed"

	SyncOpCreate = "create"
	SyncOpUpdate = "update"
	SyncOpDelete = "delete"

	MetaLastFullSync  = "last_full_sync"
	MetaIsOfflineMode = "is_offline_mode"
)
