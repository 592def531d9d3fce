package services

import (
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/model"
	"github.com/brightpath-app/local_api/services/repositories"
	"github.com/brightpath-app/local_api/shared"
)

// EnrollmentService owns the student/course bindings every progress
// row hangs off. Callers pass explicit enrollment ids to the progress
// layer; this service is where those ids are minted and resolved.
type EnrollmentService struct {
	context.DefaultService

	sqlSvc *SqliteService

	progressRepo *repositories.ProgressRepository
}

const ENROLLMENT_SVC = "enrollment_svc"

func (svc EnrollmentService) Id() string {
	return ENROLLMENT_SVC
}

func (svc *EnrollmentService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *EnrollmentService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.progressRepo = repositories.NewProgressRepository(svc.sqlSvc.Db())
	return nil
}

// SaveEnrollment creates the enrollment row, minting an id when the
// request carries none. Saving an already enrolled pairing returns the
// existing row unchanged.
func (svc *EnrollmentService) SaveEnrollment(req dto.SaveEnrollmentRequest) (*model.Enrollment, error) {
	existing, err := svc.progressRepo.GetEnrollmentByStudentCourse(req.StudentID, req.CourseID)
	if err == nil {
		return existing, nil
	}
	if !shared.IsNotFound(svc.sqlSvc.HandleError(err)) {
		return nil, svc.sqlSvc.HandleError(err)
	}

	id := req.ID
	if id == "" {
		uid, _ := uuid.NewV7()
		id = uid.String()
	}

	status := req.Status
	if status == "" {
		status = "active"
	}

	now := time.Now()
	enrollment := &model.Enrollment{
		ID:         id,
		StudentID:  req.StudentID,
		CourseID:   req.CourseID,
		Status:     status,
		EnrolledAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := svc.progressRepo.CreateEnrollment(enrollment)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	log.WithFields(log.Fields{
		"enrollment_id": created.ID,
		"student_id":    created.StudentID,
		"course_id":     created.CourseID,
	}).Info("Enrollment created")

	return created, nil
}

func (svc *EnrollmentService) GetEnrollment(id string) (*model.Enrollment, error) {
	enrollment, err := svc.progressRepo.GetEnrollment(id)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return enrollment, nil
}

// ResolveEnrollment looks up the enrollment for a (student, course)
// pairing. Exposed for sync flows that only know remote identifiers.
func (svc *EnrollmentService) ResolveEnrollment(studentID, courseID string) (*model.Enrollment, error) {
	enrollment, err := svc.progressRepo.GetEnrollmentByStudentCourse(studentID, courseID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return enrollment, nil
}

func (svc *EnrollmentService) GetStudentEnrollments(studentID string) ([]model.Enrollment, error) {
	enrollments, err := svc.progressRepo.GetStudentEnrollments(studentID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return enrollments, nil
}

func (svc *EnrollmentService) EnrollmentExists(studentID, courseID string) (bool, error) {
	_, err := svc.progressRepo.GetEnrollmentByStudentCourse(studentID, courseID)
	if err == nil {
		return true, nil
	}
	mapped := svc.sqlSvc.HandleError(err)
	if shared.IsNotFound(mapped) {
		return false, nil
	}
	return false, mapped
}
