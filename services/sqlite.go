package services

import (
	"errors"
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/brightpath-app/local_api/model"
	"github.com/brightpath-app/local_api/shared"
)

type SqliteService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

const SQLITE_SVC = "sqlite_svc"

// Id returns Service ID
func (ds SqliteService) Id() string {
	return SQLITE_SVC
}

// Db Access to raw SqliteService db
func (ds SqliteService) Db() *gorm.DB {
	return ds.db
}

// Configure the service
func (ds *SqliteService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DB_DATABASE")
	if ds.database == "" {
		ds.database = "app.db"
	}

	return ds.DefaultService.Configure(ctx)
}

// Start the service and open connection to the database
// Migrate any tables that have changed since last runtime
func (ds *SqliteService) Start() (err error) {
	ds.db, err = gorm.Open(sqlite.Open(ds.database), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return shared.NewStorageError(err, "failed to open database")
	}

	models := []interface{}{
		&model.Course{},
		&model.Module{},
		&model.ContentBlock{},
		&model.Quiz{},
		&model.Question{},
		&model.Enrollment{},
		&model.ModuleProgress{},
		&model.ContentProgress{},
		&model.QuizAttempt{},
		&model.QuizAnswer{},
		&model.OfflineSession{},
		&model.MediaCacheEntry{},
		&model.OfflineProgressBatch{},
		&model.SyncQueueItem{},
		&model.AppMetadata{},
	}

	err = ds.db.AutoMigrate(models...)
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return shared.NewStorageError(err, "failed to migrate database")
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *SqliteService) Shutdown() {
}

// HandleError maps storage errors onto the typed taxonomy callers and
// the HTTP layer rely on.
func (ds *SqliteService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *shared.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var mapped *shared.AppError

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		mapped = shared.NewNotFoundError(err, "record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		mapped = shared.NewConflictError(err, "duplicate record")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		mapped = shared.NewConflictError(err, "foreign key violation")
	case errors.Is(err, gorm.ErrInvalidTransaction):
		mapped = shared.NewStorageError(err, "transaction error")
	default:
		// Check for SQLite-specific errors
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			mapped = shared.NewConflictError(err, "unique constraint")
		} else if strings.Contains(err.Error(), "no such table") {
			mapped = shared.NewStorageError(err, "schema error")
		} else {
			mapped = &shared.AppError{Kind: shared.KindInternal, Message: "database error", Err: err}
		}
	}

	logEntry := log.WithFields(log.Fields{
		"error_type": mapped.Kind,
		"error":      err.Error(),
	})

	switch mapped.Kind {
	case shared.KindStorageUnavailable, shared.KindInternal:
		logEntry.Error("Database error occurred")
	default:
		logEntry.Warn("Database operation failed")
	}

	return mapped
}
