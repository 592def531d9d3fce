// model/catalog.go
package model

import (
	"encoding/json"
	"time"
)

// Course mirrors the remote catalog entry for one course package.
type Course struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	Title          string     `json:"title" gorm:"not null"`
	Description    string     `json:"description" gorm:"type:text"`
	InstructorName string     `json:"instructor_name"`
	ThumbnailURL   string     `json:"thumbnail_url"`
	DurationHours  int        `json:"duration_hours"`
	ModuleCount    int        `json:"module_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastSyncedAt   *time.Time `json:"last_synced_at"`
}

// Module is one unit of a course; content blocks and an optional quiz
// hang off it.
type Module struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	CourseID     string     `json:"course_id" gorm:"not null;index"`
	Title        string     `json:"title" gorm:"not null"`
	Description  string     `json:"description" gorm:"type:text"`
	OrderIndex   int        `json:"order" gorm:"not null"`
	ContentCount int        `json:"content_count"`
	HasQuiz      bool       `json:"has_quiz" gorm:"default:false"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
}

// ContentBlock is a single piece of learnable material within a module.
type ContentBlock struct {
	ID          string          `json:"id" gorm:"primaryKey"`
	ModuleID    string          `json:"module_id" gorm:"not null;index"`
	Title       string          `json:"title" gorm:"not null"`
	ContentData json.RawMessage `json:"content_data" gorm:"type:text"`
	OrderIndex  int             `json:"order" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Quiz gates module completion when Module.HasQuiz is set. Final exams
// belong to a course rather than a module.
type Quiz struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	ModuleID         string    `json:"module_id" gorm:"index"`
	CourseID         string    `json:"course_id" gorm:"index"`
	Title            string    `json:"title" gorm:"not null"`
	PassingScore     float64   `json:"passing_score" gorm:"default:60"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	IsFinalExam      bool      `json:"is_final_exam" gorm:"default:false"`
	QuestionCount    int       `json:"question_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Question belongs to a quiz; options are kept as the raw JSON the
// remote service shipped.
type Question struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	QuizID          string          `json:"quiz_id" gorm:"not null;index"`
	QuestionText    string          `json:"question_text" gorm:"type:text"`
	QuestionType    string          `json:"question_type"`
	Options         json.RawMessage `json:"options" gorm:"type:text"`
	CorrectOptionID string          `json:"correct_option_id"`
	Points          float64         `json:"points" gorm:"default:1"`
	OrderIndex      int             `json:"order" gorm:"not null"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
