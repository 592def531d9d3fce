package services

import (
	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/model"
	"github.com/brightpath-app/local_api/services/repositories"
)

// CatalogService owns the locally mirrored course catalog: courses,
// modules, content blocks, quizzes and questions. Catalog rows are
// written wholesale during sync and read constantly by the UI.
type CatalogService struct {
	context.DefaultService

	sqlSvc *SqliteService

	catalogRepo  *repositories.CatalogRepository
	progressRepo *repositories.ProgressRepository
}

const CATALOG_SVC = "catalog_svc"

func (svc CatalogService) Id() string {
	return CATALOG_SVC
}

func (svc *CatalogService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *CatalogService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.catalogRepo = repositories.NewCatalogRepository(svc.sqlSvc.Db())
	svc.progressRepo = repositories.NewProgressRepository(svc.sqlSvc.Db())
	return nil
}

func (svc *CatalogService) SaveCourse(course *model.Course) error {
	if err := svc.catalogRepo.UpsertCourse(course); err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	return nil
}

func (svc *CatalogService) SaveCourses(courses []model.Course) (int, error) {
	n, err := svc.catalogRepo.UpsertCourses(courses)
	if err != nil {
		return n, svc.sqlSvc.HandleError(err)
	}
	log.WithField("count", n).Info("Catalog courses saved")
	return n, nil
}

func (svc *CatalogService) GetCourse(id string) (*model.Course, error) {
	course, err := svc.catalogRepo.GetCourse(id)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return course, nil
}

func (svc *CatalogService) GetAllCourses() (*dto.CourseCollectionResponse, error) {
	courses, err := svc.catalogRepo.GetAllCourses()
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return &dto.CourseCollectionResponse{Courses: courses, Total: len(courses)}, nil
}

func (svc *CatalogService) GetEnrolledCourses(studentID string) (*dto.CourseCollectionResponse, error) {
	courses, err := svc.catalogRepo.GetEnrolledCourses(studentID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return &dto.CourseCollectionResponse{Courses: courses, Total: len(courses)}, nil
}

func (svc *CatalogService) SaveModule(module *model.Module) error {
	if err := svc.catalogRepo.UpsertModule(module); err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	return nil
}

func (svc *CatalogService) SaveModules(modules []model.Module) (int, error) {
	n, err := svc.catalogRepo.UpsertModules(modules)
	if err != nil {
		return n, svc.sqlSvc.HandleError(err)
	}
	return n, nil
}

func (svc *CatalogService) GetModule(id string) (*model.Module, error) {
	module, err := svc.catalogRepo.GetModule(id)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return module, nil
}

func (svc *CatalogService) GetCourseModules(courseID string) ([]model.Module, error) {
	modules, err := svc.catalogRepo.GetCourseModules(courseID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return modules, nil
}

func (svc *CatalogService) SaveContentBlocks(blocks []model.ContentBlock) (int, error) {
	n, err := svc.catalogRepo.UpsertContentBlocks(blocks)
	if err != nil {
		return n, svc.sqlSvc.HandleError(err)
	}
	return n, nil
}

func (svc *CatalogService) GetContentBlock(id string) (*model.ContentBlock, error) {
	block, err := svc.catalogRepo.GetContentBlock(id)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return block, nil
}

// GetModuleContent returns the module's content blocks in order. When
// enrollmentID is non empty each block carries the enrollment's
// progress row so the UI can render checkmarks in a single call.
func (svc *CatalogService) GetModuleContent(moduleID, enrollmentID string) ([]dto.ContentBlockWithProgress, error) {
	blocks, err := svc.catalogRepo.GetModuleContent(moduleID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}

	byContent := map[string]*model.ContentProgress{}
	if enrollmentID != "" {
		rows, err := svc.progressRepo.ListContentProgress(enrollmentID)
		if err != nil {
			return nil, svc.sqlSvc.HandleError(err)
		}
		for i := range rows {
			byContent[rows[i].ContentID] = &rows[i]
		}
	}

	out := make([]dto.ContentBlockWithProgress, 0, len(blocks))
	for _, block := range blocks {
		out = append(out, dto.ContentBlockWithProgress{
			Block:    block,
			Progress: byContent[block.ID],
		})
	}
	return out, nil
}

func (svc *CatalogService) SaveQuiz(quiz *model.Quiz) error {
	if err := svc.catalogRepo.UpsertQuiz(quiz); err != nil {
		return svc.sqlSvc.HandleError(err)
	}
	return nil
}

func (svc *CatalogService) GetQuiz(id string) (*model.Quiz, error) {
	quiz, err := svc.catalogRepo.GetQuiz(id)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return quiz, nil
}

func (svc *CatalogService) GetModuleQuiz(moduleID string) (*model.Quiz, error) {
	quiz, err := svc.catalogRepo.QuizForModule(moduleID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return quiz, nil
}

func (svc *CatalogService) GetCourseFinalExam(courseID string) (*model.Quiz, error) {
	quiz, err := svc.catalogRepo.GetCourseFinalExam(courseID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return quiz, nil
}

func (svc *CatalogService) SaveQuestions(questions []model.Question) (int, error) {
	n, err := svc.catalogRepo.UpsertQuestions(questions)
	if err != nil {
		return n, svc.sqlSvc.HandleError(err)
	}
	return n, nil
}

func (svc *CatalogService) GetQuizQuestions(quizID string) ([]model.Question, error) {
	questions, err := svc.catalogRepo.GetQuizQuestions(quizID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err)
	}
	return questions, nil
}
