package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/shared"
)

type ProgressHandler struct {
	progressSvc ProgressServiceInterface
}

func NewProgressHandler(progressSvc ProgressServiceInterface) *ProgressHandler {
	return &ProgressHandler{progressSvc: progressSvc}
}

// @Summary Mark content viewed
// @Description Stamp a content block as viewed for an enrollment
// @Tags progress
// @Accept json
// @Produce json
// @Param request body dto.MarkContentRequest true "Content reference"
// @Success 200 {object} shared.Response{data=model.ContentProgress}
// @Router /api/v1/progress/content/viewed [post]
func (h *ProgressHandler) MarkContentViewed(c *fiber.Ctx) error {
	var req dto.MarkContentRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	progress, err := h.progressSvc.MarkContentViewed(req)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, progress)
}

// @Summary Mark content completed
// @Description Mark a content block complete and recompute the module aggregate
// @Tags progress
// @Accept json
// @Produce json
// @Param request body dto.MarkContentRequest true "Content reference"
// @Success 200 {object} shared.Response{data=dto.CascadeResult}
// @Router /api/v1/progress/content/completed [post]
func (h *ProgressHandler) MarkContentCompleted(c *fiber.Ctx) error {
	var req dto.MarkContentRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	result, err := h.progressSvc.MarkContentCompleted(req)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, result)
}

// @Summary Override module status
// @Description Apply a manual module status; completed never regresses
// @Tags progress
// @Accept json
// @Produce json
// @Param request body dto.ModuleStatusRequest true "Status override"
// @Success 200 {object} shared.Response{data=model.ModuleProgress}
// @Router /api/v1/progress/modules/status [put]
func (h *ProgressHandler) RecordModuleStatus(c *fiber.Ctx) error {
	var req dto.ModuleStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	progress, err := h.progressSvc.RecordModuleStatus(req)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, progress)
}

// @Summary Get content progress
// @Description List an enrollment's content progress rows, or one row when content_id is given
// @Tags progress
// @Produce json
// @Param enrollment_id path string true "Enrollment ID"
// @Param content_id query string false "Content ID"
// @Success 200 {object} shared.Response{data=[]model.ContentProgress}
// @Router /api/v1/progress/{enrollment_id}/content [get]
func (h *ProgressHandler) GetContentProgress(c *fiber.Ctx) error {
	enrollmentID := c.Params(shared.EnrollmentID)

	if contentID := c.Query("content_id"); contentID != "" {
		row, err := h.progressSvc.GetContentProgressByContent(enrollmentID, contentID)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, row)
	}

	rows, err := h.progressSvc.GetContentProgress(enrollmentID)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, rows)
}

// @Summary Get module progress
// @Description Get one module's progress row for an enrollment
// @Tags progress
// @Produce json
// @Param enrollment_id path string true "Enrollment ID"
// @Param module_id path string true "Module ID"
// @Success 200 {object} shared.Response{data=model.ModuleProgress}
// @Router /api/v1/progress/{enrollment_id}/modules/{module_id} [get]
func (h *ProgressHandler) GetModuleProgress(c *fiber.Ctx) error {
	progress, err := h.progressSvc.GetModuleProgress(c.Params(shared.EnrollmentID), c.Params("module_id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, progress)
}

// @Summary Get enrollment progress
// @Description List every module of the enrolled course with its progress, in catalog order
// @Tags progress
// @Produce json
// @Param enrollment_id path string true "Enrollment ID"
// @Success 200 {object} shared.Response{data=[]dto.ModuleProgressResponse}
// @Router /api/v1/progress/{enrollment_id} [get]
func (h *ProgressHandler) GetEnrollmentProgress(c *fiber.Ctx) error {
	rows, err := h.progressSvc.GetEnrollmentProgress(c.Params(shared.EnrollmentID))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, rows)
}

// @Summary Get course progress summary
// @Description Summarize module completion for an enrollment
// @Tags progress
// @Produce json
// @Param enrollment_id path string true "Enrollment ID"
// @Success 200 {object} shared.Response{data=dto.CourseProgressSummaryResponse}
// @Router /api/v1/progress/{enrollment_id}/summary [get]
func (h *ProgressHandler) GetCourseProgressSummary(c *fiber.Ctx) error {
	summary, err := h.progressSvc.GetCourseProgressSummary(c.Params(shared.EnrollmentID))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, summary)
}

// @Summary Start quiz attempt
// @Description Open a new attempt with the next attempt number
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.StartQuizAttemptRequest true "Attempt"
// @Success 201 {object} shared.Response{data=model.QuizAttempt}
// @Router /api/v1/quiz/attempts [post]
func (h *ProgressHandler) StartQuizAttempt(c *fiber.Ctx) error {
	var req dto.StartQuizAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	attempt, err := h.progressSvc.StartQuizAttempt(req)
	if err != nil {
		return err
	}
	return shared.ResponseCreated(c, attempt)
}

// @Summary Complete quiz attempt
// @Description Finalize an attempt; a pass re-runs the module cascade
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param request body dto.CompleteQuizAttemptRequest true "Result"
// @Success 200 {object} shared.Response{data=model.QuizAttempt}
// @Router /api/v1/quiz/attempts/{id}/complete [post]
func (h *ProgressHandler) CompleteQuizAttempt(c *fiber.Ctx) error {
	var req dto.CompleteQuizAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	attempt, err := h.progressSvc.CompleteQuizAttempt(c.Params("id"), req)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, attempt)
}

// @Summary Save quiz answer
// @Description Record one answer on an open attempt
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.SaveQuizAnswerRequest true "Answer"
// @Success 200 {object} shared.Response{data=model.QuizAnswer}
// @Router /api/v1/quiz/answers [post]
func (h *ProgressHandler) SaveQuizAnswer(c *fiber.Ctx) error {
	var req dto.SaveQuizAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	answer, err := h.progressSvc.SaveQuizAnswer(req)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, answer)
}

// @Summary Get quiz attempt
// @Description Get one attempt by id
// @Tags quiz
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} shared.Response{data=model.QuizAttempt}
// @Router /api/v1/quiz/attempts/{id} [get]
func (h *ProgressHandler) GetQuizAttempt(c *fiber.Ctx) error {
	attempt, err := h.progressSvc.GetQuizAttempt(c.Params("id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, attempt)
}

// @Summary List quiz attempts
// @Description List a student's attempts on a quiz, newest first
// @Tags quiz
// @Produce json
// @Param student_id query string true "Student ID"
// @Param quiz_id query string true "Quiz ID"
// @Success 200 {object} shared.Response{data=[]model.QuizAttempt}
// @Router /api/v1/quiz/attempts [get]
func (h *ProgressHandler) GetQuizAttempts(c *fiber.Ctx) error {
	studentID := c.Query("student_id")
	quizID := c.Query("quiz_id")
	if studentID == "" || quizID == "" {
		return shared.NewBadRequestError(nil, "student_id and quiz_id are required")
	}

	attempts, err := h.progressSvc.GetQuizAttempts(studentID, quizID)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, attempts)
}

// @Summary Get attempt answers
// @Description List the answers recorded on an attempt
// @Tags quiz
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} shared.Response{data=[]model.QuizAnswer}
// @Router /api/v1/quiz/attempts/{id}/answers [get]
func (h *ProgressHandler) GetAttemptAnswers(c *fiber.Ctx) error {
	answers, err := h.progressSvc.GetAttemptAnswers(c.Params("id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, answers)
}

// @Summary Score quiz attempt
// @Description Recompute the attempt's score from its stored answers
// @Tags quiz
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} shared.Response{data=dto.AttemptScoreResponse}
// @Router /api/v1/quiz/attempts/{id}/score [get]
func (h *ProgressHandler) CalculateAttemptScore(c *fiber.Ctx) error {
	score, err := h.progressSvc.CalculateAttemptScore(c.Params("id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, score)
}

// @Summary Best quiz score
// @Description Get the student's best completed score on a quiz
// @Tags quiz
// @Produce json
// @Param student_id query string true "Student ID"
// @Param quiz_id query string true "Quiz ID"
// @Success 200 {object} shared.Response{data=float64}
// @Router /api/v1/quiz/best-score [get]
func (h *ProgressHandler) BestQuizScore(c *fiber.Ctx) error {
	studentID := c.Query("student_id")
	quizID := c.Query("quiz_id")
	if studentID == "" || quizID == "" {
		return shared.NewBadRequestError(nil, "student_id and quiz_id are required")
	}

	score, err := h.progressSvc.BestQuizScore(studentID, quizID)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, score)
}
