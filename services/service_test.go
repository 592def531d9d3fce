package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/model"
	"github.com/brightpath-app/local_api/services/repositories"
)

// testServices wires every service against a fresh in-memory database,
// bypassing the runtime context plumbing.
type testServices struct {
	db *gorm.DB

	catalog    *CatalogService
	enrollment *EnrollmentService
	progress   *ProgressService
	offline    *OfflineService
	sync       *SyncService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
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
	))

	sqlSvc := &SqliteService{db: db}

	catalogSvc := &CatalogService{
		sqlSvc:       sqlSvc,
		catalogRepo:  repositories.NewCatalogRepository(db),
		progressRepo: repositories.NewProgressRepository(db),
	}
	enrollmentSvc := &EnrollmentService{
		sqlSvc:       sqlSvc,
		progressRepo: repositories.NewProgressRepository(db),
	}
	progressSvc := &ProgressService{
		sqlSvc:        sqlSvc,
		catalogSvc:    catalogSvc,
		enrollmentSvc: enrollmentSvc,
		catalogRepo:   repositories.NewCatalogRepository(db),
		progressRepo:  repositories.NewProgressRepository(db),
	}
	offlineSvc := &OfflineService{
		sqlSvc:          sqlSvc,
		offlineRepo:     repositories.NewOfflineRepository(db),
		mediaRepo:       repositories.NewMediaRepository(db),
		syncRepo:        repositories.NewSyncRepository(db),
		expireAfterDays: 30,
		purgeAfterDays:  90,
	}
	syncSvc := &SyncService{
		sqlSvc:   sqlSvc,
		syncRepo: repositories.NewSyncRepository(db),
	}

	return &testServices{
		db:         db,
		catalog:    catalogSvc,
		enrollment: enrollmentSvc,
		progress:   progressSvc,
		offline:    offlineSvc,
		sync:       syncSvc,
	}
}

// seedCourse installs a small course: module m1 carries two content
// blocks and no quiz, module m2 carries one block gated by quiz qz1.
func (ts *testServices) seedCourse(t *testing.T) {
	t.Helper()

	require.NoError(t, ts.catalog.SaveCourse(&model.Course{
		ID:    "c1",
		Title: "Intro to Databases",
	}))

	_, err := ts.catalog.SaveModules([]model.Module{
		{ID: "m1", CourseID: "c1", Title: "Foundations", OrderIndex: 1, ContentCount: 2},
		{ID: "m2", CourseID: "c1", Title: "Indexes", OrderIndex: 2, ContentCount: 1, HasQuiz: true},
	})
	require.NoError(t, err)

	_, err = ts.catalog.SaveContentBlocks([]model.ContentBlock{
		{ID: "b1", ModuleID: "m1", Title: "What is a table", OrderIndex: 1, ContentData: json.RawMessage(`{}`)},
		{ID: "b2", ModuleID: "m1", Title: "Rows and columns", OrderIndex: 2, ContentData: json.RawMessage(`{}`)},
		{ID: "b3", ModuleID: "m2", Title: "B-trees", OrderIndex: 1, ContentData: json.RawMessage(`{}`)},
	})
	require.NoError(t, err)

	require.NoError(t, ts.catalog.SaveQuiz(&model.Quiz{
		ID:           "qz1",
		ModuleID:     "m2",
		CourseID:     "c1",
		Title:        "Index quiz",
		PassingScore: 60,
	}))

	_, err = ts.catalog.SaveQuestions([]model.Question{
		{ID: "q1", QuizID: "qz1", QuestionText: "Pick one", Points: 1, OrderIndex: 1, Options: json.RawMessage(`[]`)},
		{ID: "q2", QuizID: "qz1", QuestionText: "Pick another", Points: 1, OrderIndex: 2, Options: json.RawMessage(`[]`)},
	})
	require.NoError(t, err)
}

func (ts *testServices) enroll(t *testing.T, studentID string) *model.Enrollment {
	t.Helper()

	enrollment, err := ts.enrollment.SaveEnrollment(dto.SaveEnrollmentRequest{
		StudentID: studentID,
		CourseID:  "c1",
	})
	require.NoError(t, err)
	return enrollment
}

func daysAgo(n int) time.Time {
	return time.Now().AddDate(0, 0, -n)
}

func daysAhead(n int) time.Time {
	return time.Now().AddDate(0, 0, n)
}
