package services

import (
	"math"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/model"
	"github.com/brightpath-app/local_api/services/repositories"
	"github.com/brightpath-app/local_api/shared"
)

// ProgressService owns content completion, module progress and quiz
// attempts, and runs the completion cascade that keeps module
// aggregates consistent with their content rows.
type ProgressService struct {
	context.DefaultService

	sqlSvc        *SqliteService
	catalogSvc    *CatalogService
	enrollmentSvc *EnrollmentService
	monitorSvc    *MonitoringService

	catalogRepo  *repositories.CatalogRepository
	progressRepo *repositories.ProgressRepository

	// cascadeLocks serializes cascade runs per (enrollment, module) so
	// two rapid completions cannot interleave their read/recount/write.
	cascadeLocks sync.Map
}

const PROGRESS_SVC = "progress_svc"

func (svc *ProgressService) Id() string {
	return PROGRESS_SVC
}

func (svc *ProgressService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *ProgressService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.catalogSvc = svc.Service(CATALOG_SVC).(*CatalogService)
	svc.enrollmentSvc = svc.Service(ENROLLMENT_SVC).(*EnrollmentService)
	if m, ok := svc.Service(MONITORING_SVC).(*MonitoringService); ok {
		svc.monitorSvc = m
	}

	svc.catalogRepo = repositories.NewCatalogRepository(svc.sqlSvc.Db())
	svc.progressRepo = repositories.NewProgressRepository(svc.sqlSvc.Db())
	return nil
}

// MarkContentViewed stamps ViewedAt for the enrollment's content row,
// creating the row on first view. Completion state is untouched.
func (svc *ProgressService) MarkContentViewed(req dto.MarkContentRequest) (*model.ContentProgress, error) {
	if _, err := svc.progressRepo.GetEnrollment(req.EnrollmentID); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	now := time.Now()
	progress, err := svc.progressRepo.GetContentProgress(req.EnrollmentID, req.ContentID)
	if err != nil {
		mapped := svc.sqlSvc.HandleError(err)
		if !shared.IsNotFound(mapped) {
			return nil, mapped
		}
		id, _ := uuid.NewV7()
		progress = &model.ContentProgress{
			ID:           id.String(),
			EnrollmentID: req.EnrollmentID,
			ContentID:    req.ContentID,
			ViewedAt:     &now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := svc.progressRepo.CreateContentProgress(progress); err != nil {
			return nil, svc.sqlSvc.HandleError(err)
		}
		return progress, nil
	}

	progress.ViewedAt = &now
	progress.UpdatedAt = now
	if err := svc.progressRepo.SaveContentProgress(progress); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return progress, nil
}

// MarkContentCompleted marks the block complete for the enrollment and
// recomputes the owning module's aggregate. The content upsert and the
// cascade commit together, so a crash cannot leave a completed block
// with a stale module aggregate. Completing an already complete block
// is a no-op apart from the recount.
func (svc *ProgressService) MarkContentCompleted(req dto.MarkContentRequest) (*dto.CascadeResult, error) {
	enrollment, err := svc.progressRepo.GetEnrollment(req.EnrollmentID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	module, err := svc.catalogRepo.ModuleForContent(req.ContentID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	lock := svc.lockFor(req.EnrollmentID, module.ID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	var result *dto.CascadeResult
	err = svc.sqlSvc.Db().Transaction(func(tx *gorm.DB) error {
		txRepo := svc.progressRepo.WithTx(tx)

		progress, err := txRepo.GetContentProgress(req.EnrollmentID, req.ContentID)
		if err != nil {
			mapped := svc.sqlSvc.HandleError(err)
			if !shared.IsNotFound(mapped) {
				return mapped
			}
			id, _ := uuid.NewV7()
			progress = &model.ContentProgress{
				ID:           id.String(),
				EnrollmentID: req.EnrollmentID,
				ContentID:    req.ContentID,
				IsCompleted:  true,
				ViewedAt:     &now,
				CompletedAt:  &now,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := txRepo.CreateContentProgress(progress); err != nil {
				return err
			}
		} else if !progress.IsCompleted {
			progress.IsCompleted = true
			progress.CompletedAt = &now
			progress.UpdatedAt = now
			if err := txRepo.SaveContentProgress(progress); err != nil {
				return err
			}
		}

		result, err = svc.runCascade(tx, enrollment, module, now)
		return err
	})
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	svc.observeCascade(req.EnrollmentID, module.ID, result)
	return result, nil
}

// RecordModuleStatus applies a manual status override. Completed is
// terminal; any attempt to move a completed module backwards is
// rejected as a conflict.
func (svc *ProgressService) RecordModuleStatus(req dto.ModuleStatusRequest) (*model.ModuleProgress, error) {
	if _, err := svc.progressRepo.GetEnrollment(req.EnrollmentID); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if _, err := svc.catalogRepo.GetModule(req.ModuleID); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	now := time.Now()
	progress, err := svc.progressRepo.GetModuleProgress(req.EnrollmentID, req.ModuleID)
	if err != nil {
		mapped := svc.sqlSvc.HandleError(err)
		if !shared.IsNotFound(mapped) {
			return nil, mapped
		}
		id, _ := uuid.NewV7()
		progress = &model.ModuleProgress{
			ID:           id.String(),
			EnrollmentID: req.EnrollmentID,
			ModuleID:     req.ModuleID,
			Status:       shared.ModuleStatusNotStarted,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := svc.progressRepo.CreateModuleProgress(progress); err != nil {
			return nil, svc.sqlSvc.HandleError(err)
		}
	}

	if progress.Status == shared.ModuleStatusCompleted && req.Status != shared.ModuleStatusCompleted {
		return nil, shared.NewBadRequestError(nil, "completed module cannot regress")
	}

	progress.Status = req.Status
	progress.UpdatedAt = now
	switch req.Status {
	case shared.ModuleStatusInProgress:
		if progress.StartedAt == nil {
			progress.StartedAt = &now
		}
	case shared.ModuleStatusCompleted:
		if progress.StartedAt == nil {
			progress.StartedAt = &now
		}
		if progress.CompletedAt == nil {
			progress.CompletedAt = &now
		}
		progress.AutoCompleted = false
	}

	if err := svc.progressRepo.SaveModuleProgress(progress); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if err := svc.progressRepo.TouchEnrollment(req.EnrollmentID, now); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return progress, nil
}

func (svc *ProgressService) GetContentProgress(enrollmentID string) ([]model.ContentProgress, error) {
	rows, err := svc.progressRepo.ListContentProgress(enrollmentID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return rows, nil
}

func (svc *ProgressService) GetContentProgressByContent(enrollmentID, contentID string) (*model.ContentProgress, error) {
	progress, err := svc.progressRepo.GetContentProgress(enrollmentID, contentID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return progress, nil
}

func (svc *ProgressService) GetModuleProgress(enrollmentID, moduleID string) (*model.ModuleProgress, error) {
	progress, err := svc.progressRepo.GetModuleProgress(enrollmentID, moduleID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return progress, nil
}

// GetEnrollmentProgress returns every module of the enrolled course in
// catalog order, paired with the enrollment's progress row. Modules
// the student never touched come back as not_started.
func (svc *ProgressService) GetEnrollmentProgress(enrollmentID string) ([]dto.ModuleProgressResponse, error) {
	enrollment, err := svc.progressRepo.GetEnrollment(enrollmentID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	modules, err := svc.catalogRepo.GetCourseModules(enrollment.CourseID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	rows, err := svc.progressRepo.ListModuleProgress(enrollmentID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	byModule := map[string]model.ModuleProgress{}
	for _, row := range rows {
		byModule[row.ModuleID] = row
	}

	out := make([]dto.ModuleProgressResponse, 0, len(modules))
	for _, module := range modules {
		progress, ok := byModule[module.ID]
		if !ok {
			progress = model.ModuleProgress{
				EnrollmentID: enrollmentID,
				ModuleID:     module.ID,
				Status:       shared.ModuleStatusNotStarted,
			}
		}
		out = append(out, dto.ModuleProgressResponse{Progress: progress, Module: module})
	}
	return out, nil
}

func (svc *ProgressService) GetCourseProgressSummary(enrollmentID string) (*dto.CourseProgressSummaryResponse, error) {
	rows, err := svc.GetEnrollmentProgress(enrollmentID)
	if err != nil {
		return nil, err
	}

	summary := &dto.CourseProgressSummaryResponse{TotalModules: len(rows)}
	for _, row := range rows {
		switch row.Progress.Status {
		case shared.ModuleStatusCompleted:
			summary.CompletedModules++
		case shared.ModuleStatusInProgress:
			summary.InProgressModules++
		default:
			summary.NotStartedModules++
		}
	}
	if summary.TotalModules > 0 {
		summary.CompletionPercentage = float64(summary.CompletedModules) / float64(summary.TotalModules) * 100
	}
	return summary, nil
}

// CascadeModuleProgress recounts content completion for one module of
// one enrollment and rolls the result up into the module progress row.
// The module auto-completes only when every content block is complete
// and the module either has no quiz or the student has a passed
// attempt on it. Runs in a single transaction; completed never
// regresses.
func (svc *ProgressService) CascadeModuleProgress(enrollmentID, moduleID string) (*dto.CascadeResult, error) {
	lock := svc.lockFor(enrollmentID, moduleID)
	lock.Lock()
	defer lock.Unlock()

	enrollment, err := svc.progressRepo.GetEnrollment(enrollmentID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	module, err := svc.catalogRepo.GetModule(moduleID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	var result *dto.CascadeResult
	now := time.Now()

	err = svc.sqlSvc.Db().Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = svc.runCascade(tx, enrollment, module, now)
		return err
	})
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	svc.observeCascade(enrollmentID, moduleID, result)
	return result, nil
}

// runCascade is the cascade body. Callers hold the keyed lock and own
// the enclosing transaction.
func (svc *ProgressService) runCascade(tx *gorm.DB, enrollment *model.Enrollment, module *model.Module, now time.Time) (*dto.CascadeResult, error) {
	txRepo := svc.progressRepo.WithTx(tx)

	total, err := svc.catalogRepo.ContentCountForModule(tx, module.ID)
	if err != nil {
		return nil, err
	}
	completed, err := txRepo.CountCompletedContent(enrollment.ID, module.ID)
	if err != nil {
		return nil, err
	}
	if completed > total {
		completed = total
	}

	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(completed) / float64(total) * 100))
	}

	progress, err := txRepo.GetModuleProgress(enrollment.ID, module.ID)
	if err != nil {
		if !shared.IsNotFound(svc.sqlSvc.HandleError(err)) {
			return nil, err
		}
		id, _ := uuid.NewV7()
		progress = &model.ModuleProgress{
			ID:           id.String(),
			EnrollmentID: enrollment.ID,
			ModuleID:     module.ID,
			Status:       shared.ModuleStatusNotStarted,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := txRepo.CreateModuleProgress(progress); err != nil {
			return nil, err
		}
	}

	progress.CompletedContentCount = int(completed)
	progress.TotalContentCount = int(total)
	progress.ContentCompletionPercentage = percentage
	progress.UpdatedAt = now

	if progress.Status == shared.ModuleStatusNotStarted && completed > 0 {
		progress.Status = shared.ModuleStatusInProgress
		if progress.StartedAt == nil {
			progress.StartedAt = &now
		}
	}

	allContentComplete := total > 0 && completed >= total
	if allContentComplete && progress.Status != shared.ModuleStatusCompleted {
		eligible := true
		if module.HasQuiz {
			quiz, err := svc.catalogRepo.QuizForModule(module.ID)
			if err != nil {
				mapped := svc.sqlSvc.HandleError(err)
				if !shared.IsNotFound(mapped) {
					return nil, err
				}
				// HasQuiz set but no quiz synced yet; hold completion.
				eligible = false
			} else {
				passed, err := txRepo.HasPassedAttempt(enrollment.StudentID, quiz.ID)
				if err != nil {
					return nil, err
				}
				eligible = passed
			}
		}

		if eligible {
			progress.Status = shared.ModuleStatusCompleted
			progress.AutoCompleted = true
			progress.CompletedAt = &now
			if progress.StartedAt == nil {
				progress.StartedAt = &now
			}
		}
	}

	if err := txRepo.SaveModuleProgress(progress); err != nil {
		return nil, err
	}
	if err := txRepo.TouchEnrollment(enrollment.ID, now); err != nil {
		return nil, err
	}

	return &dto.CascadeResult{
		ModuleID:             module.ID,
		Status:               progress.Status,
		CompletedContent:     progress.CompletedContentCount,
		TotalContent:         progress.TotalContentCount,
		CompletionPercentage: progress.ContentCompletionPercentage,
		AutoCompleted:        progress.AutoCompleted,
		CompletedAt:          progress.CompletedAt,
	}, nil
}

func (svc *ProgressService) observeCascade(enrollmentID, moduleID string, result *dto.CascadeResult) {
	if svc.monitorSvc != nil {
		svc.monitorSvc.RecordCascadeRun(result.Status)
	}

	log.WithFields(log.Fields{
		"enrollment_id": enrollmentID,
		"module_id":     moduleID,
		"status":        result.Status,
		"completed":     result.CompletedContent,
		"total":         result.TotalContent,
	}).Debug("Module progress cascade applied")
}

func (svc *ProgressService) lockFor(enrollmentID, moduleID string) *sync.Mutex {
	key := enrollmentID + "/" + moduleID
	actual, _ := svc.cascadeLocks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// StartQuizAttempt opens a new attempt with the next attempt number
// for the (student, quiz) pairing.
func (svc *ProgressService) StartQuizAttempt(req dto.StartQuizAttemptRequest) (*model.QuizAttempt, error) {
	quiz, err := svc.catalogRepo.GetQuiz(req.QuizID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	number, err := svc.progressRepo.NextAttemptNumber(req.StudentID, req.QuizID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	remaining := req.TimeRemainingSeconds
	if remaining == 0 && quiz.TimeLimitMinutes > 0 {
		remaining = quiz.TimeLimitMinutes * 60
	}

	now := time.Now()
	id, _ := uuid.NewV7()
	attempt := &model.QuizAttempt{
		ID:                   id.String(),
		StudentID:            req.StudentID,
		QuizID:               req.QuizID,
		AttemptNumber:        number,
		Status:               shared.AttemptStatusInProgress,
		StartedAt:            now,
		TimeRemainingSeconds: remaining,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := svc.progressRepo.CreateQuizAttempt(attempt); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return attempt, nil
}

// CompleteQuizAttempt finalizes the attempt with its score and pass
// flag, then re-runs the cascade for the quiz's module so the module
// aggregate and the enrollment timestamp reflect the attempt, whether
// it passed or not.
func (svc *ProgressService) CompleteQuizAttempt(attemptID string, req dto.CompleteQuizAttemptRequest) (*model.QuizAttempt, error) {
	attempt, err := svc.progressRepo.GetQuizAttempt(attemptID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if attempt.Status == shared.AttemptStatusCompleted {
		return nil, shared.NewConflictError(nil, "attempt already completed")
	}

	now := time.Now()
	attempt.Status = shared.AttemptStatusCompleted
	attempt.CompletedAt = &now
	attempt.Score = req.Score
	attempt.Passed = req.Passed
	attempt.UpdatedAt = now
	if err := svc.progressRepo.SaveQuizAttempt(attempt); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	if err := svc.cascadeForAttempt(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// cascadeForAttempt maps the attempt back to an enrollment and
// module. Final exams have no module and never trigger a cascade.
func (svc *ProgressService) cascadeForAttempt(attempt *model.QuizAttempt) error {
	quiz, err := svc.catalogRepo.GetQuiz(attempt.QuizID)
	if err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	if quiz.ModuleID == "" {
		return nil
	}
	module, err := svc.catalogRepo.GetModule(quiz.ModuleID)
	if err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	enrollment, err := svc.progressRepo.GetEnrollmentByStudentCourse(attempt.StudentID, module.CourseID)
	if err != nil {
		mapped := svc.sqlSvc.HandleError(err)
		if shared.IsNotFound(mapped) {
			return nil
		}
		return mapped
	}

	_, err = svc.CascadeModuleProgress(enrollment.ID, module.ID)
	return err
}

func (svc *ProgressService) SaveQuizAnswer(req dto.SaveQuizAnswerRequest) (*model.QuizAnswer, error) {
	attempt, err := svc.progressRepo.GetQuizAttempt(req.AttemptID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	if attempt.Status == shared.AttemptStatusCompleted {
		return nil, shared.NewConflictError(nil, "attempt already completed")
	}

	now := time.Now()
	id, _ := uuid.NewV7()
	answer := &model.QuizAnswer{
		ID:               id.String(),
		AttemptID:        req.AttemptID,
		QuestionID:       req.QuestionID,
		SelectedOptionID: req.SelectedOptionID,
		IsCorrect:        req.IsCorrect,
		PointsEarned:     req.PointsEarned,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := svc.progressRepo.SaveQuizAnswer(answer); err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return answer, nil
}

func (svc *ProgressService) GetQuizAttempt(id string) (*model.QuizAttempt, error) {
	attempt, err := svc.progressRepo.GetQuizAttempt(id)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return attempt, nil
}

func (svc *ProgressService) GetQuizAttempts(studentID, quizID string) ([]model.QuizAttempt, error) {
	attempts, err := svc.progressRepo.ListQuizAttempts(studentID, quizID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return attempts, nil
}

func (svc *ProgressService) GetAttemptAnswers(attemptID string) ([]model.QuizAnswer, error) {
	answers, err := svc.progressRepo.ListAttemptAnswers(attemptID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return answers, nil
}

// CalculateAttemptScore recomputes the attempt's score from its stored
// answers against the quiz's total points.
func (svc *ProgressService) CalculateAttemptScore(attemptID string) (*dto.AttemptScoreResponse, error) {
	attempt, err := svc.progressRepo.GetQuizAttempt(attemptID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	totalQuestions, correct, earned, err := svc.progressRepo.SumAttemptPoints(attemptID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	possible, err := svc.catalogRepo.SumQuizPoints(attempt.QuizID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	resp := &dto.AttemptScoreResponse{
		TotalQuestions: int(totalQuestions),
		CorrectAnswers: int(correct),
		PointsEarned:   earned,
		PointsPossible: possible,
	}
	if possible > 0 {
		resp.Percentage = earned / possible * 100
	}
	return resp, nil
}

func (svc *ProgressService) BestQuizScore(studentID, quizID string) (*float64, error) {
	score, err := svc.progressRepo.BestQuizScore(studentID, quizID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return score, nil
}

func (svc *ProgressService) HasPassedQuiz(studentID, quizID string) (bool, error) {
	passed, err := svc.progressRepo.HasPassedAttempt(studentID, quizID)
	if err != nil {
		return false, svc.sqlSvc.HandleError(err)
	}
	return passed, nil
}
