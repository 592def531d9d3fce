// model/progress.go
package model

import "time"

// Enrollment binds a student to a course and owns every progress row
// for that pairing. UpdatedAt doubles as the "last activity" signal
// the UI sorts courses by.
type Enrollment struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	StudentID  string    `json:"student_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	CourseID   string    `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	Status     string    `json:"status" gorm:"default:active"`
	EnrolledAt time.Time `json:"enrolled_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ModuleProgress aggregates content completion for one module of one
// enrollment. The cascade engine is the only writer of the aggregate
// fields; status moves not_started -> in_progress -> completed and
// never regresses.
type ModuleProgress struct {
	ID                          string     `json:"id" gorm:"primaryKey"`
	EnrollmentID                string     `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_module_progress_enrollment_module"`
	ModuleID                    string     `json:"module_id" gorm:"not null;uniqueIndex:idx_module_progress_enrollment_module"`
	Status                      string     `json:"status" gorm:"default:not_started"`
	StartedAt                   *time.Time `json:"started_at"`
	CompletedAt                 *time.Time `json:"completed_at"`
	AutoCompleted               bool       `json:"auto_completed" gorm:"default:false"`
	CompletedContentCount       int        `json:"completed_content_count" gorm:"default:0"`
	TotalContentCount           int        `json:"total_content_count" gorm:"default:0"`
	ContentCompletionPercentage int        `json:"content_completion_percentage" gorm:"default:0"`
	CreatedAt                   time.Time  `json:"created_at"`
	UpdatedAt                   time.Time  `json:"updated_at"`
}

// ContentProgress is one row per (enrollment, content block).
// IsCompleted only ever moves false -> true; a later view refreshes
// ViewedAt without touching completion.
type ContentProgress struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	EnrollmentID string     `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_content_progress_enrollment_content"`
	ContentID    string     `json:"content_id" gorm:"not null;uniqueIndex:idx_content_progress_enrollment_content"`
	IsCompleted  bool       `json:"is_completed" gorm:"default:false"`
	ViewedAt     *time.Time `json:"viewed_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// QuizAttempt records one run at a quiz. AttemptNumber strictly
// increases per (student, quiz) and is assigned by the store.
type QuizAttempt struct {
	ID                   string     `json:"id" gorm:"primaryKey"`
	StudentID            string     `json:"student_id" gorm:"not null;index:idx_quiz_attempt_student_quiz"`
	QuizID               string     `json:"quiz_id" gorm:"not null;index:idx_quiz_attempt_student_quiz"`
	AttemptNumber        int        `json:"attempt_number" gorm:"not null"`
	Status               string     `json:"status" gorm:"default:in_progress"`
	StartedAt            time.Time  `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at"`
	Score                float64    `json:"score"`
	Passed               bool       `json:"passed" gorm:"default:false"`
	TimeRemainingSeconds int        `json:"time_remaining_seconds"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// QuizAnswer is a child of QuizAttempt, one row per question.
type QuizAnswer struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	AttemptID        string    `json:"attempt_id" gorm:"not null;uniqueIndex:idx_quiz_answer_attempt_question"`
	QuestionID       string    `json:"question_id" gorm:"not null;uniqueIndex:idx_quiz_answer_attempt_question"`
	SelectedOptionID string    `json:"selected_option_id"`
	IsCorrect        bool      `json:"is_correct"`
	PointsEarned     float64   `json:"points_earned"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
