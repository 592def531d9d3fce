package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-app/local_api/model"
	"gorm.io/gorm"
)

// ProgressRepository owns the enrollment-scoped progress tables. The
// cascade engine drives it inside a transaction via WithTx.
type ProgressRepository struct {
	BaseRepository
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// WithTx returns a repository bound to the given transaction.
func (ds *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{BaseRepository: NewBaseRepository(tx)}
}

// ==================== ENROLLMENT METHODS ====================

func (ds *ProgressRepository) CreateEnrollment(enrollment *model.Enrollment) (*model.Enrollment, error) {
	if enrollment.ID == "" {
		id, _ := uuid.NewV7()
		enrollment.ID = id.String()
	}
	now := time.Now()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	if err := ds.db.Create(enrollment).Error; err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (ds *ProgressRepository) GetEnrollment(id string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := ds.db.Where("id = ?", id).First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (ds *ProgressRepository) GetEnrollmentByStudentCourse(studentID, courseID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := ds.db.Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (ds *ProgressRepository) GetStudentEnrollments(studentID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	if err := ds.db.Where("student_id = ?", studentID).
		Order("updated_at DESC").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

// TouchEnrollment bumps updated_at, the "last activity" signal.
func (ds *ProgressRepository) TouchEnrollment(id string, now time.Time) error {
	return ds.db.Model(&model.Enrollment{}).
		Where("id = ?", id).
		Update("updated_at", now).Error
}

// ==================== CONTENT PROGRESS METHODS ====================

func (ds *ProgressRepository) GetContentProgress(enrollmentID, contentID string) (*model.ContentProgress, error) {
	var progress model.ContentProgress
	if err := ds.db.Where("enrollment_id = ? AND content_id = ?", enrollmentID, contentID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (ds *ProgressRepository) ListContentProgress(enrollmentID string) ([]model.ContentProgress, error) {
	var progress []model.ContentProgress
	if err := ds.db.Where("enrollment_id = ?", enrollmentID).
		Order("created_at ASC").Find(&progress).Error; err != nil {
		return nil, err
	}
	return progress, nil
}

func (ds *ProgressRepository) CreateContentProgress(progress *model.ContentProgress) error {
	if progress.ID == "" {
		id, _ := uuid.NewV7()
		progress.ID = id.String()
	}
	progress.CreatedAt = time.Now()
	progress.UpdatedAt = time.Now()

	return ds.db.Create(progress).Error
}

func (ds *ProgressRepository) SaveContentProgress(progress *model.ContentProgress) error {
	progress.UpdatedAt = time.Now()
	return ds.db.Save(progress).Error
}

// CountCompletedContent counts completed blocks of one module for one
// enrollment, the cascade numerator.
func (ds *ProgressRepository) CountCompletedContent(enrollmentID, moduleID string) (int64, error) {
	var count int64
	if err := ds.db.Model(&model.ContentProgress{}).
		Joins("JOIN content_blocks ON content_blocks.id = content_progress.content_id").
		Where("content_progress.enrollment_id = ? AND content_blocks.module_id = ? AND content_progress.is_completed = ?",
			enrollmentID, moduleID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ==================== MODULE PROGRESS METHODS ====================

func (ds *ProgressRepository) GetModuleProgress(enrollmentID, moduleID string) (*model.ModuleProgress, error) {
	var progress model.ModuleProgress
	if err := ds.db.Where("enrollment_id = ? AND module_id = ?", enrollmentID, moduleID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (ds *ProgressRepository) ListModuleProgress(enrollmentID string) ([]model.ModuleProgress, error) {
	var progress []model.ModuleProgress
	if err := ds.db.Model(&model.ModuleProgress{}).
		Joins("JOIN modules ON modules.id = module_progress.module_id").
		Where("module_progress.enrollment_id = ?", enrollmentID).
		Order("modules.order_index ASC").
		Find(&progress).Error; err != nil {
		return nil, err
	}
	return progress, nil
}

func (ds *ProgressRepository) CreateModuleProgress(progress *model.ModuleProgress) error {
	if progress.ID == "" {
		id, _ := uuid.NewV7()
		progress.ID = id.String()
	}
	progress.CreatedAt = time.Now()
	progress.UpdatedAt = time.Now()

	return ds.db.Create(progress).Error
}

func (ds *ProgressRepository) SaveModuleProgress(progress *model.ModuleProgress) error {
	progress.UpdatedAt = time.Now()
	return ds.db.Save(progress).Error
}

// ==================== QUIZ ATTEMPT METHODS ====================

// NextAttemptNumber returns max(attempt_number)+1 for (student, quiz).
func (ds *ProgressRepository) NextAttemptNumber(studentID, quizID string) (int, error) {
	var max int
	if err := ds.db.Model(&model.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Select("COALESCE(MAX(attempt_number), 0)").Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (ds *ProgressRepository) CreateQuizAttempt(attempt *model.QuizAttempt) error {
	if attempt.ID == "" {
		id, _ := uuid.NewV7()
		attempt.ID = id.String()
	}
	attempt.CreatedAt = time.Now()
	attempt.UpdatedAt = time.Now()

	return ds.db.Create(attempt).Error
}

func (ds *ProgressRepository) GetQuizAttempt(id string) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	if err := ds.db.Where("id = ?", id).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (ds *ProgressRepository) SaveQuizAttempt(attempt *model.QuizAttempt) error {
	attempt.UpdatedAt = time.Now()
	return ds.db.Save(attempt).Error
}

func (ds *ProgressRepository) ListQuizAttempts(studentID, quizID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	if err := ds.db.Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Order("attempt_number DESC").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

// HasPassedAttempt reports whether any completed attempt passed, the
// quiz gate of the cascade predicate.
func (ds *ProgressRepository) HasPassedAttempt(studentID, quizID string) (bool, error) {
	var count int64
	if err := ds.db.Model(&model.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ? AND status = ? AND passed = ?",
			studentID, quizID, "completed", true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ds *ProgressRepository) BestQuizScore(studentID, quizID string) (*float64, error) {
	var best *float64
	if err := ds.db.Model(&model.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ? AND status = ?", studentID, quizID, "completed").
		Select("MAX(score)").Scan(&best).Error; err != nil {
		return nil, err
	}
	return best, nil
}

// ==================== QUIZ ANSWER METHODS ====================

func (ds *ProgressRepository) SaveQuizAnswer(answer *model.QuizAnswer) error {
	if answer.ID == "" {
		id, _ := uuid.NewV7()
		answer.ID = id.String()
	}
	answer.CreatedAt = time.Now()
	answer.UpdatedAt = time.Now()

	// Check if answer already exists for this attempt/question
	var existing model.QuizAnswer
	err := ds.db.Where("attempt_id = ? AND question_id = ?",
		answer.AttemptID, answer.QuestionID).First(&existing).Error

	if err == nil {
		existing.SelectedOptionID = answer.SelectedOptionID
		existing.IsCorrect = answer.IsCorrect
		existing.PointsEarned = answer.PointsEarned
		existing.UpdatedAt = time.Now()
		if err := ds.db.Save(&existing).Error; err != nil {
			return err
		}
		// Hand the stored row back so callers see the persisted ID.
		*answer = existing
		return nil
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		return ds.db.Create(answer).Error
	}

	return err
}

func (ds *ProgressRepository) ListAttemptAnswers(attemptID string) ([]model.QuizAnswer, error) {
	var answers []model.QuizAnswer
	if err := ds.db.Model(&model.QuizAnswer{}).
		Joins("JOIN questions ON questions.id = quiz_answers.question_id").
		Where("quiz_answers.attempt_id = ?", attemptID).
		Order("questions.order_index ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (ds *ProgressRepository) SumAttemptPoints(attemptID string) (int64, int64, float64, error) {
	type row struct {
		Total   int64
		Correct int64
		Points  float64
	}
	var r row
	if err := ds.db.Model(&model.QuizAnswer{}).
		Where("attempt_id = ?", attemptID).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct, COALESCE(SUM(points_earned), 0) AS points").
		Scan(&r).Error; err != nil {
		return 0, 0, 0, err
	}
	return r.Total, r.Correct, r.Points, nil
}
