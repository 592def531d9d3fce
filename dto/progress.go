package dto

import (
	"time"

	"github.com/brightpath-app/local_api/model"
)

type MarkContentRequest struct {
	EnrollmentID string `json:"enrollment_id" validate:"required"`
	ContentID    string `json:"content_id" validate:"required"`
}

func (m MarkContentRequest) Validate() error {
	return GetValidator().Struct(m)
}

type ModuleStatusRequest struct {
	EnrollmentID string `json:"enrollment_id" validate:"required"`
	ModuleID     string `json:"module_id" validate:"required"`
	Status       string `json:"status" validate:"required,oneof=not_started in_progress completed"`
}

func (m ModuleStatusRequest) Validate() error {
	return GetValidator().Struct(m)
}

type StartQuizAttemptRequest struct {
	StudentID            string `json:"student_id" validate:"required"`
	QuizID               string `json:"quiz_id" validate:"required"`
	TimeRemainingSeconds int    `json:"time_remaining_seconds" validate:"gte=0"`
}

func (s StartQuizAttemptRequest) Validate() error {
	return GetValidator().Struct(s)
}

type CompleteQuizAttemptRequest struct {
	Score  float64 `json:"score" validate:"gte=0,lte=100"`
	Passed bool    `json:"passed"`
}

func (c CompleteQuizAttemptRequest) Validate() error {
	return GetValidator().Struct(c)
}

type SaveQuizAnswerRequest struct {
	AttemptID        string  `json:"attempt_id" validate:"required"`
	QuestionID       string  `json:"question_id" validate:"required"`
	SelectedOptionID string  `json:"selected_option_id"`
	IsCorrect        bool    `json:"is_correct"`
	PointsEarned     float64 `json:"points_earned" validate:"gte=0"`
}

func (s SaveQuizAnswerRequest) Validate() error {
	return GetValidator().Struct(s)
}

// ModuleProgressResponse is a ModuleProgress joined with the module's
// catalog metadata, the shape the UI renders course outlines from.
type ModuleProgressResponse struct {
	Progress model.ModuleProgress `json:"progress"`
	Module   model.Module         `json:"module"`
}

type CourseProgressSummaryResponse struct {
	TotalModules         int     `json:"total_modules"`
	CompletedModules     int     `json:"completed_modules"`
	InProgressModules    int     `json:"in_progress_modules"`
	NotStartedModules    int     `json:"not_started_modules"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

type AttemptScoreResponse struct {
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
	PointsEarned   float64 `json:"points_earned"`
	PointsPossible float64 `json:"points_possible"`
	Percentage     float64 `json:"percentage"`
}

type CascadeResult struct {
	ModuleID             string     `json:"module_id"`
	Status               string     `json:"status"`
	CompletedContent     int        `json:"completed_content_count"`
	TotalContent         int        `json:"total_content_count"`
	CompletionPercentage int        `json:"content_completion_percentage"`
	AutoCompleted        bool       `json:"auto_completed"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}
