package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/model"
	"github.com/brightpath-app/local_api/shared"
)

type CatalogHandler struct {
	catalogSvc    CatalogServiceInterface
	enrollmentSvc EnrollmentServiceInterface
}

func NewCatalogHandler(catalogSvc CatalogServiceInterface, enrollmentSvc EnrollmentServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogSvc:    catalogSvc,
		enrollmentSvc: enrollmentSvc,
	}
}

// @Summary Replace catalog courses
// @Description Upsert the mirrored course list from the remote catalog
// @Tags catalog
// @Accept json
// @Produce json
// @Param courses body []model.Course true "Courses"
// @Success 200 {object} shared.Response{data=int}
// @Router /api/v1/catalog/courses [put]
func (h *CatalogHandler) SaveCourses(c *fiber.Ctx) error {
	var courses []model.Course
	if err := c.BodyParser(&courses); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	n, err := h.catalogSvc.SaveCourses(courses)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, n)
}

// @Summary List courses
// @Description List all locally mirrored courses
// @Tags catalog
// @Produce json
// @Success 200 {object} shared.Response{data=dto.CourseCollectionResponse}
// @Router /api/v1/catalog/courses [get]
func (h *CatalogHandler) GetCourses(c *fiber.Ctx) error {
	if studentID := c.Query("student_id"); studentID != "" {
		resp, err := h.catalogSvc.GetEnrolledCourses(studentID)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, resp)
	}

	resp, err := h.catalogSvc.GetAllCourses()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Get course
// @Description Get one course by id
// @Tags catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} shared.Response{data=model.Course}
// @Router /api/v1/catalog/courses/{id} [get]
func (h *CatalogHandler) GetCourse(c *fiber.Ctx) error {
	course, err := h.catalogSvc.GetCourse(c.Params("id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, course)
}

// @Summary Get course modules
// @Description List a course's modules in order
// @Tags catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} shared.Response{data=[]model.Module}
// @Router /api/v1/catalog/courses/{id}/modules [get]
func (h *CatalogHandler) GetCourseModules(c *fiber.Ctx) error {
	modules, err := h.catalogSvc.GetCourseModules(c.Params("id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, modules)
}

// @Summary Replace course modules
// @Description Upsert mirrored modules
// @Tags catalog
// @Accept json
// @Produce json
// @Param modules body []model.Module true "Modules"
// @Success 200 {object} shared.Response{data=int}
// @Router /api/v1/catalog/modules [put]
func (h *CatalogHandler) SaveModules(c *fiber.Ctx) error {
	var modules []model.Module
	if err := c.BodyParser(&modules); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	n, err := h.catalogSvc.SaveModules(modules)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, n)
}

// @Summary Get module content
// @Description List a module's content blocks, optionally zipped with an enrollment's progress
// @Tags catalog
// @Produce json
// @Param id path string true "Module ID"
// @Param enrollment_id query string false "Enrollment ID"
// @Success 200 {object} shared.Response{data=[]dto.ContentBlockWithProgress}
// @Router /api/v1/catalog/modules/{id}/content [get]
func (h *CatalogHandler) GetModuleContent(c *fiber.Ctx) error {
	blocks, err := h.catalogSvc.GetModuleContent(c.Params("id"), c.Query(shared.EnrollmentID))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, blocks)
}

// @Summary Replace content blocks
// @Description Upsert mirrored content blocks
// @Tags catalog
// @Accept json
// @Produce json
// @Param blocks body []model.ContentBlock true "Content blocks"
// @Success 200 {object} shared.Response{data=int}
// @Router /api/v1/catalog/content [put]
func (h *CatalogHandler) SaveContentBlocks(c *fiber.Ctx) error {
	var blocks []model.ContentBlock
	if err := c.BodyParser(&blocks); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	n, err := h.catalogSvc.SaveContentBlocks(blocks)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, n)
}

// @Summary Get module quiz
// @Description Get the quiz attached to a module
// @Tags catalog
// @Produce json
// @Param id path string true "Module ID"
// @Success 200 {object} shared.Response{data=model.Quiz}
// @Router /api/v1/catalog/modules/{id}/quiz [get]
func (h *CatalogHandler) GetModuleQuiz(c *fiber.Ctx) error {
	quiz, err := h.catalogSvc.GetModuleQuiz(c.Params("id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, quiz)
}

// @Summary Get course final exam
// @Description Get the course level final exam quiz
// @Tags catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} shared.Response{data=model.Quiz}
// @Router /api/v1/catalog/courses/{id}/final-exam [get]
func (h *CatalogHandler) GetCourseFinalExam(c *fiber.Ctx) error {
	quiz, err := h.catalogSvc.GetCourseFinalExam(c.Params("id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, quiz)
}

// @Summary Replace quiz
// @Description Upsert one mirrored quiz
// @Tags catalog
// @Accept json
// @Produce json
// @Param quiz body model.Quiz true "Quiz"
// @Success 200 {object} shared.Response{data=model.Quiz}
// @Router /api/v1/catalog/quizzes [put]
func (h *CatalogHandler) SaveQuiz(c *fiber.Ctx) error {
	var quiz model.Quiz
	if err := c.BodyParser(&quiz); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if quiz.ID == "" {
		return shared.NewBadRequestError(nil, "Quiz id is required")
	}

	if err := h.catalogSvc.SaveQuiz(&quiz); err != nil {
		return err
	}
	return shared.ResponseOK(c, quiz)
}

// @Summary Replace quiz questions
// @Description Upsert mirrored quiz questions
// @Tags catalog
// @Accept json
// @Produce json
// @Param questions body []model.Question true "Questions"
// @Success 200 {object} shared.Response{data=int}
// @Router /api/v1/catalog/questions [put]
func (h *CatalogHandler) SaveQuestions(c *fiber.Ctx) error {
	var questions []model.Question
	if err := c.BodyParser(&questions); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	n, err := h.catalogSvc.SaveQuestions(questions)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, n)
}

// @Summary Get quiz questions
// @Description List a quiz's questions in order
// @Tags catalog
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} shared.Response{data=[]model.Question}
// @Router /api/v1/catalog/quizzes/{id}/questions [get]
func (h *CatalogHandler) GetQuizQuestions(c *fiber.Ctx) error {
	questions, err := h.catalogSvc.GetQuizQuestions(c.Params("id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, questions)
}

// @Summary Create enrollment
// @Description Enroll a student in a course; existing pairings return the stored row
// @Tags enrollment
// @Accept json
// @Produce json
// @Param enrollment body dto.SaveEnrollmentRequest true "Enrollment"
// @Success 201 {object} shared.Response{data=model.Enrollment}
// @Router /api/v1/enrollments [post]
func (h *CatalogHandler) SaveEnrollment(c *fiber.Ctx) error {
	var req dto.SaveEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	enrollment, err := h.enrollmentSvc.SaveEnrollment(req)
	if err != nil {
		return err
	}
	return shared.ResponseCreated(c, enrollment)
}

// @Summary Get enrollment
// @Description Get one enrollment by id
// @Tags enrollment
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} shared.Response{data=model.Enrollment}
// @Router /api/v1/enrollments/{id} [get]
func (h *CatalogHandler) GetEnrollment(c *fiber.Ctx) error {
	enrollment, err := h.enrollmentSvc.GetEnrollment(c.Params("id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, enrollment)
}

// @Summary List student enrollments
// @Description List a student's enrollments, most recently active first
// @Tags enrollment
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} shared.Response{data=[]model.Enrollment}
// @Router /api/v1/students/{student_id}/enrollments [get]
func (h *CatalogHandler) GetStudentEnrollments(c *fiber.Ctx) error {
	enrollments, err := h.enrollmentSvc.GetStudentEnrollments(c.Params("student_id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, enrollments)
}

// @Summary Resolve enrollment
// @Description Resolve the enrollment for a student and course pairing
// @Tags enrollment
// @Produce json
// @Param student_id query string true "Student ID"
// @Param course_id query string true "Course ID"
// @Success 200 {object} shared.Response{data=model.Enrollment}
// @Router /api/v1/enrollments/resolve [get]
func (h *CatalogHandler) ResolveEnrollment(c *fiber.Ctx) error {
	studentID := c.Query("student_id")
	courseID := c.Query("course_id")
	if studentID == "" || courseID == "" {
		return shared.NewBadRequestError(nil, "student_id and course_id are required")
	}

	enrollment, err := h.enrollmentSvc.ResolveEnrollment(studentID, courseID)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, enrollment)
}
