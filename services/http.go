package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/brightpath-app/local_api/services/handlers"
	"github.com/brightpath-app/local_api/shared"
)

// HttpService exposes the local data layer to the UI shell over
// loopback HTTP.
type HttpService struct {
	context.DefaultService

	catalogSvc    *CatalogService
	enrollmentSvc *EnrollmentService
	progressSvc   *ProgressService
	offlineSvc    *OfflineService
	syncSvc       *SyncService
	monitorSvc    *MonitoringService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.catalogSvc = svc.Service(CATALOG_SVC).(*CatalogService)
	svc.enrollmentSvc = svc.Service(ENROLLMENT_SVC).(*EnrollmentService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.offlineSvc = svc.Service(OFFLINE_SVC).(*OfflineService)
	svc.syncSvc = svc.Service(SYNC_SVC).(*SyncService)
	if m, ok := svc.Service(MONITORING_SVC).(*MonitoringService); ok {
		svc.monitorSvc = m
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:  shared.JSONAPI.Marshal,
		JSONDecoder:  shared.JSONAPI.Unmarshal,
		ErrorHandler: svc.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
	}))
	if svc.monitorSvc != nil {
		app.Use(MonitoringMiddleware(svc.monitorSvc))
	}

	app.Get("/ping", svc.ping)

	svc.registerRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError(nil, "page not found")
	})

	svc.server = app

	log.WithField("port", svc.port).Info("HTTP service listening")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) registerRoutes(app *fiber.App) {
	catalogHandler := handlers.NewCatalogHandler(svc.catalogSvc, svc.enrollmentSvc)
	progressHandler := handlers.NewProgressHandler(svc.progressSvc)
	offlineHandler := handlers.NewOfflineHandler(svc.offlineSvc)
	syncHandler := handlers.NewSyncHandler(svc.syncSvc)

	v1 := app.Group("/api/v1")

	v1.Get("/ping", svc.ping)

	catalog := v1.Group("/catalog")
	catalog.Get("/courses", catalogHandler.GetCourses)
	catalog.Put("/courses", catalogHandler.SaveCourses)
	catalog.Get("/courses/:id", catalogHandler.GetCourse)
	catalog.Get("/courses/:id/modules", catalogHandler.GetCourseModules)
	catalog.Get("/courses/:id/final-exam", catalogHandler.GetCourseFinalExam)
	catalog.Put("/modules", catalogHandler.SaveModules)
	catalog.Get("/modules/:id/content", catalogHandler.GetModuleContent)
	catalog.Get("/modules/:id/quiz", catalogHandler.GetModuleQuiz)
	catalog.Put("/content", catalogHandler.SaveContentBlocks)
	catalog.Put("/quizzes", catalogHandler.SaveQuiz)
	catalog.Get("/quizzes/:id/questions", catalogHandler.GetQuizQuestions)
	catalog.Put("/questions", catalogHandler.SaveQuestions)

	v1.Post("/enrollments", catalogHandler.SaveEnrollment)
	v1.Get("/enrollments/resolve", catalogHandler.ResolveEnrollment)
	v1.Get("/enrollments/:id", catalogHandler.GetEnrollment)
	v1.Get("/students/:student_id/enrollments", catalogHandler.GetStudentEnrollments)

	progress := v1.Group("/progress")
	progress.Post("/content/viewed", progressHandler.MarkContentViewed)
	progress.Post("/content/completed", progressHandler.MarkContentCompleted)
	progress.Put("/modules/status", progressHandler.RecordModuleStatus)
	progress.Get("/:enrollment_id", progressHandler.GetEnrollmentProgress)
	progress.Get("/:enrollment_id/summary", progressHandler.GetCourseProgressSummary)
	progress.Get("/:enrollment_id/content", progressHandler.GetContentProgress)
	progress.Get("/:enrollment_id/modules/:module_id", progressHandler.GetModuleProgress)

	quiz := v1.Group("/quiz")
	quiz.Post("/attempts", progressHandler.StartQuizAttempt)
	quiz.Get("/attempts", progressHandler.GetQuizAttempts)
	quiz.Get("/best-score", progressHandler.BestQuizScore)
	quiz.Get("/attempts/:id", progressHandler.GetQuizAttempt)
	quiz.Post("/attempts/:id/complete", progressHandler.CompleteQuizAttempt)
	quiz.Get("/attempts/:id/answers", progressHandler.GetAttemptAnswers)
	quiz.Get("/attempts/:id/score", progressHandler.CalculateAttemptScore)
	quiz.Post("/answers", progressHandler.SaveQuizAnswer)

	offline := v1.Group("/offline")
	offline.Post("/sessions", offlineHandler.SaveOfflineSession)
	offline.Get("/sessions", offlineHandler.ListOfflineSessions)
	offline.Get("/sessions/:id", offlineHandler.GetOfflineSession)
	offline.Post("/sessions/:id/sync", offlineHandler.TouchSessionSync)
	offline.Delete("/sessions/:id", offlineHandler.DeleteOfflineSession)
	offline.Post("/media", offlineHandler.SaveMediaCacheEntry)
	offline.Get("/media/:media_id", offlineHandler.GetMediaCacheEntry)
	offline.Put("/media/:media_id/progress", offlineHandler.UpdateDownloadProgress)
	offline.Get("/courses/:course_id/media", offlineHandler.ListCourseMedia)
	offline.Delete("/courses/:course_id/media", offlineHandler.DeleteCourseMedia)
	offline.Get("/statistics", offlineHandler.Statistics)

	sync := v1.Group("/sync")
	sync.Post("/queue", syncHandler.Enqueue)
	sync.Get("/queue", syncHandler.DequeueBatch)
	sync.Delete("/queue", syncHandler.Clear)
	sync.Get("/queue/count", syncHandler.Count)
	sync.Post("/queue/ack", syncHandler.AckMany)
	sync.Post("/queue/:id/ack", syncHandler.Ack)
	sync.Post("/queue/:id/nack", syncHandler.Nack)
	sync.Post("/batches", syncHandler.SaveProgressBatch)
	sync.Get("/batches", syncHandler.UnsyncedBatches)
	sync.Post("/batches/:id/synced", syncHandler.MarkBatchSynced)
	sync.Get("/offline-mode", syncHandler.GetOfflineMode)
	sync.Put("/offline-mode", syncHandler.SetOfflineMode)
	sync.Get("/metadata", syncHandler.GetMetadata)
	sync.Get("/metadata/:key", syncHandler.GetMetadata)
	sync.Put("/metadata/:key", syncHandler.SetMetadata)
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	code := shared.StatusCode(err)
	message := err.Error()
	var appErr *shared.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	if code >= fiber.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Path()).Error("Request failed")
	}

	return shared.ResponseJSON(c, code, message, nil)
}
