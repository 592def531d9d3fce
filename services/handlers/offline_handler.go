package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/shared"
)

type OfflineHandler struct {
	offlineSvc OfflineServiceInterface
}

func NewOfflineHandler(offlineSvc OfflineServiceInterface) *OfflineHandler {
	return &OfflineHandler{offlineSvc: offlineSvc}
}

// @Summary Save offline session
// @Description Record or refresh a downloaded course package
// @Tags offline
// @Accept json
// @Produce json
// @Param session body dto.SaveOfflineSessionRequest true "Session"
// @Success 201 {object} shared.Response{data=model.OfflineSession}
// @Router /api/v1/offline/sessions [post]
func (h *OfflineHandler) SaveOfflineSession(c *fiber.Ctx) error {
	var req dto.SaveOfflineSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	session, err := h.offlineSvc.SaveOfflineSession(req)
	if err != nil {
		return err
	}
	return shared.ResponseCreated(c, session)
}

// @Summary Get offline session
// @Description Get one session with its validity evaluated at read time
// @Tags offline
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.OfflineSessionResponse}
// @Router /api/v1/offline/sessions/{id} [get]
func (h *OfflineHandler) GetOfflineSession(c *fiber.Ctx) error {
	session, err := h.offlineSvc.GetOfflineSession(c.Params("id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, session)
}

// @Summary List offline sessions
// @Description List sessions filtered by student, course and validity
// @Tags offline
// @Produce json
// @Param student_id query string false "Student ID"
// @Param course_id query string false "Course ID"
// @Param active_only query bool false "Only valid sessions"
// @Success 200 {object} shared.Response{data=[]dto.OfflineSessionResponse}
// @Router /api/v1/offline/sessions [get]
func (h *OfflineHandler) ListOfflineSessions(c *fiber.Ctx) error {
	sessions, err := h.offlineSvc.ListOfflineSessions(
		c.Query("student_id"),
		c.Query("course_id"),
		c.QueryBool("active_only"),
	)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, sessions)
}

// @Summary Touch session sync
// @Description Bump the session's sync counter after a successful replay
// @Tags offline
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/offline/sessions/{id}/sync [post]
func (h *OfflineHandler) TouchSessionSync(c *fiber.Ctx) error {
	if err := h.offlineSvc.TouchSessionSync(c.Params("id")); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary Delete offline session
// @Description Soft-delete a session; force=true removes it immediately
// @Tags offline
// @Produce json
// @Param id path string true "Session ID"
// @Param force query bool false "Skip the retention window"
// @Success 200 {object} shared.Response
// @Router /api/v1/offline/sessions/{id} [delete]
func (h *OfflineHandler) DeleteOfflineSession(c *fiber.Ctx) error {
	if c.QueryBool("force") {
		if err := h.offlineSvc.ForceDeleteSession(c.Params("id")); err != nil {
			return err
		}
		return shared.ResponseOK(c, nil)
	}

	if err := h.offlineSvc.DeleteOfflineSession(c.Params("id")); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary Save media cache entry
// @Description Record or refresh one media asset ledger row
// @Tags offline
// @Accept json
// @Produce json
// @Param entry body dto.SaveMediaCacheRequest true "Media entry"
// @Success 201 {object} shared.Response{data=model.MediaCacheEntry}
// @Router /api/v1/offline/media [post]
func (h *OfflineHandler) SaveMediaCacheEntry(c *fiber.Ctx) error {
	var req dto.SaveMediaCacheRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	entry, err := h.offlineSvc.SaveMediaCacheEntry(req)
	if err != nil {
		return err
	}
	return shared.ResponseCreated(c, entry)
}

// @Summary Get media cache entry
// @Description Get one media asset ledger row
// @Tags offline
// @Produce json
// @Param media_id path string true "Media ID"
// @Success 200 {object} shared.Response{data=model.MediaCacheEntry}
// @Router /api/v1/offline/media/{media_id} [get]
func (h *OfflineHandler) GetMediaCacheEntry(c *fiber.Ctx) error {
	entry, err := h.offlineSvc.GetMediaCacheEntry(c.Params("media_id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, entry)
}

// @Summary List course media
// @Description List the media ledger rows for a course
// @Tags offline
// @Produce json
// @Param course_id path string true "Course ID"
// @Success 200 {object} shared.Response{data=[]model.MediaCacheEntry}
// @Router /api/v1/offline/courses/{course_id}/media [get]
func (h *OfflineHandler) ListCourseMedia(c *fiber.Ctx) error {
	entries, err := h.offlineSvc.ListCourseMedia(c.Params("course_id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, entries)
}

// @Summary Update download progress
// @Description Update one media asset's download progress
// @Tags offline
// @Accept json
// @Produce json
// @Param media_id path string true "Media ID"
// @Param request body dto.UpdateDownloadProgressRequest true "Progress"
// @Success 200 {object} shared.Response
// @Router /api/v1/offline/media/{media_id}/progress [put]
func (h *OfflineHandler) UpdateDownloadProgress(c *fiber.Ctx) error {
	var req dto.UpdateDownloadProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := h.offlineSvc.UpdateDownloadProgress(c.Params("media_id"), req); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary Delete course media
// @Description Drop every media ledger row for a course
// @Tags offline
// @Produce json
// @Param course_id path string true "Course ID"
// @Success 200 {object} shared.Response{data=int64}
// @Router /api/v1/offline/courses/{course_id}/media [delete]
func (h *OfflineHandler) DeleteCourseMedia(c *fiber.Ctx) error {
	deleted, err := h.offlineSvc.DeleteCourseMedia(c.Params("course_id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, deleted)
}

// @Summary Offline statistics
// @Description Summarize the offline footprint for the settings screen
// @Tags offline
// @Produce json
// @Param student_id query string false "Student ID"
// @Success 200 {object} shared.Response{data=dto.OfflineSessionStatistics}
// @Router /api/v1/offline/statistics [get]
func (h *OfflineHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.offlineSvc.Statistics(c.Query("student_id"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, stats)
}
