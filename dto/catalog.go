package dto

import (
	"github.com/brightpath-app/local_api/model"
)

type SaveEnrollmentRequest struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	Status    string `json:"status"`
}

func (s SaveEnrollmentRequest) Validate() error {
	return GetValidator().Struct(s)
}

// ContentBlockWithProgress pairs a catalog block with the enrollment's
// progress row, when one exists.
type ContentBlockWithProgress struct {
	Block    model.ContentBlock     `json:"block"`
	Progress *model.ContentProgress `json:"progress,omitempty"`
}

type CourseCollectionResponse struct {
	Courses []model.Course `json:"courses"`
	Total   int            `json:"total"`
}
