package handlers

import (
	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/model"
)

type CatalogServiceInterface interface {
	SaveCourses(courses []model.Course) (int, error)
	GetCourse(id string) (*model.Course, error)
	GetAllCourses() (*dto.CourseCollectionResponse, error)
	GetEnrolledCourses(studentID string) (*dto.CourseCollectionResponse, error)
	SaveModules(modules []model.Module) (int, error)
	GetModule(id string) (*model.Module, error)
	GetCourseModules(courseID string) ([]model.Module, error)
	SaveContentBlocks(blocks []model.ContentBlock) (int, error)
	GetModuleContent(moduleID, enrollmentID string) ([]dto.ContentBlockWithProgress, error)
	SaveQuiz(quiz *model.Quiz) error
	GetQuiz(id string) (*model.Quiz, error)
	GetModuleQuiz(moduleID string) (*model.Quiz, error)
	GetCourseFinalExam(courseID string) (*model.Quiz, error)
	SaveQuestions(questions []model.Question) (int, error)
	GetQuizQuestions(quizID string) ([]model.Question, error)
}

type EnrollmentServiceInterface interface {
	SaveEnrollment(req dto.SaveEnrollmentRequest) (*model.Enrollment, error)
	GetEnrollment(id string) (*model.Enrollment, error)
	ResolveEnrollment(studentID, courseID string) (*model.Enrollment, error)
	GetStudentEnrollments(studentID string) ([]model.Enrollment, error)
}

type ProgressServiceInterface interface {
	MarkContentViewed(req dto.MarkContentRequest) (*model.ContentProgress, error)
	MarkContentCompleted(req dto.MarkContentRequest) (*dto.CascadeResult, error)
	RecordModuleStatus(req dto.ModuleStatusRequest) (*model.ModuleProgress, error)
	GetModuleProgress(enrollmentID, moduleID string) (*model.ModuleProgress, error)
	GetContentProgress(enrollmentID string) ([]model.ContentProgress, error)
	GetContentProgressByContent(enrollmentID, contentID string) (*model.ContentProgress, error)
	GetEnrollmentProgress(enrollmentID string) ([]dto.ModuleProgressResponse, error)
	GetCourseProgressSummary(enrollmentID string) (*dto.CourseProgressSummaryResponse, error)
	StartQuizAttempt(req dto.StartQuizAttemptRequest) (*model.QuizAttempt, error)
	CompleteQuizAttempt(attemptID string, req dto.CompleteQuizAttemptRequest) (*model.QuizAttempt, error)
	SaveQuizAnswer(req dto.SaveQuizAnswerRequest) (*model.QuizAnswer, error)
	GetQuizAttempt(id string) (*model.QuizAttempt, error)
	GetQuizAttempts(studentID, quizID string) ([]model.QuizAttempt, error)
	GetAttemptAnswers(attemptID string) ([]model.QuizAnswer, error)
	CalculateAttemptScore(attemptID string) (*dto.AttemptScoreResponse, error)
	BestQuizScore(studentID, quizID string) (*float64, error)
}

type OfflineServiceInterface interface {
	SaveOfflineSession(req dto.SaveOfflineSessionRequest) (*model.OfflineSession, error)
	GetOfflineSession(id string) (*dto.OfflineSessionResponse, error)
	ListOfflineSessions(studentID, courseID string, activeOnly bool) ([]dto.OfflineSessionResponse, error)
	TouchSessionSync(id string) error
	DeleteOfflineSession(id string) error
	ForceDeleteSession(id string) error
	SaveMediaCacheEntry(req dto.SaveMediaCacheRequest) (*model.MediaCacheEntry, error)
	GetMediaCacheEntry(mediaID string) (*model.MediaCacheEntry, error)
	ListCourseMedia(courseID string) ([]model.MediaCacheEntry, error)
	UpdateDownloadProgress(mediaID string, req dto.UpdateDownloadProgressRequest) error
	DeleteCourseMedia(courseID string) (int64, error)
	Statistics(studentID string) (*dto.OfflineSessionStatistics, error)
}

type SyncServiceInterface interface {
	Enqueue(req dto.EnqueueSyncRequest) (*model.SyncQueueItem, error)
	DequeueBatch(limit int) ([]model.SyncQueueItem, error)
	QueueByTable(tableName string) ([]model.SyncQueueItem, error)
	Ack(id int64) error
	AckMany(ids []int64) (int64, error)
	Nack(id int64, errorMessage string) error
	Count() (int64, error)
	Clear() (int64, error)
	SaveProgressBatch(req dto.SaveProgressBatchRequest) (*model.OfflineProgressBatch, error)
	UnsyncedBatches(limit int) ([]model.OfflineProgressBatch, error)
	MarkBatchSynced(id int64) error
	SetMetadata(key, value string) error
	GetMetadata(key string) (*model.AppMetadata, error)
	AllMetadata() ([]model.AppMetadata, error)
	SetOfflineMode(isOffline bool) error
	IsOfflineMode() (bool, error)
}
