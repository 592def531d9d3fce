package repositories

import (
	"time"

	"github.com/brightpath-app/local_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository persists the local mirror of remote course content.
// Saves are full upserts since the remote service owns the records.
type CatalogRepository struct {
	BaseRepository
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ==================== COURSE METHODS ====================

func (ds *CatalogRepository) UpsertCourse(course *model.Course) error {
	now := time.Now()
	course.UpdatedAt = now
	course.LastSyncedAt = &now
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}

	return ds.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(course).Error
}

func (ds *CatalogRepository) UpsertCourses(courses []model.Course) (int, error) {
	count := 0
	for i := range courses {
		if err := ds.UpsertCourse(&courses[i]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (ds *CatalogRepository) GetCourse(id string) (*model.Course, error) {
	var course model.Course
	if err := ds.db.Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (ds *CatalogRepository) GetAllCourses() ([]model.Course, error) {
	var courses []model.Course
	if err := ds.db.Order("title ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (ds *CatalogRepository) GetEnrolledCourses(studentID string) ([]model.Course, error) {
	var courses []model.Course
	if err := ds.db.
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.student_id = ?", studentID).
		Order("enrollments.updated_at DESC").
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

// ==================== MODULE METHODS ====================

func (ds *CatalogRepository) UpsertModule(module *model.Module) error {
	now := time.Now()
	module.UpdatedAt = now
	module.LastSyncedAt = &now
	if module.CreatedAt.IsZero() {
		module.CreatedAt = now
	}

	return ds.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(module).Error
}

func (ds *CatalogRepository) UpsertModules(modules []model.Module) (int, error) {
	count := 0
	for i := range modules {
		if err := ds.UpsertModule(&modules[i]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (ds *CatalogRepository) GetModule(id string) (*model.Module, error) {
	var module model.Module
	if err := ds.db.Where("id = ?", id).First(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (ds *CatalogRepository) GetCourseModules(courseID string) ([]model.Module, error) {
	var modules []model.Module
	if err := ds.db.Where("course_id = ?", courseID).
		Order("order_index ASC").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// ==================== CONTENT BLOCK METHODS ====================

func (ds *CatalogRepository) UpsertContentBlock(block *model.ContentBlock) error {
	now := time.Now()
	block.UpdatedAt = now
	if block.CreatedAt.IsZero() {
		block.CreatedAt = now
	}

	return ds.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(block).Error
}

func (ds *CatalogRepository) UpsertContentBlocks(blocks []model.ContentBlock) (int, error) {
	count := 0
	for i := range blocks {
		if err := ds.UpsertContentBlock(&blocks[i]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (ds *CatalogRepository) GetContentBlock(id string) (*model.ContentBlock, error) {
	var block model.ContentBlock
	if err := ds.db.Where("id = ?", id).First(&block).Error; err != nil {
		return nil, err
	}
	return &block, nil
}

func (ds *CatalogRepository) GetModuleContent(moduleID string) ([]model.ContentBlock, error) {
	var blocks []model.ContentBlock
	if err := ds.db.Where("module_id = ?", moduleID).
		Order("order_index ASC").Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}

// ContentCountForModule counts the catalog blocks of a module; the
// cascade engine uses this as the completion denominator.
func (ds *CatalogRepository) ContentCountForModule(tx *gorm.DB, moduleID string) (int64, error) {
	var count int64
	if tx == nil {
		tx = ds.db
	}
	if err := tx.Model(&model.ContentBlock{}).
		Where("module_id = ?", moduleID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ModuleForContent resolves the module that owns a content block.
func (ds *CatalogRepository) ModuleForContent(contentID string) (*model.Module, error) {
	var module model.Module
	if err := ds.db.
		Joins("JOIN content_blocks ON content_blocks.module_id = modules.id").
		Where("content_blocks.id = ?", contentID).
		First(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

// ==================== QUIZ METHODS ====================

func (ds *CatalogRepository) UpsertQuiz(quiz *model.Quiz) error {
	now := time.Now()
	quiz.UpdatedAt = now
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}

	return ds.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(quiz).Error
}

func (ds *CatalogRepository) GetQuiz(id string) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := ds.db.Where("id = ?", id).First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (ds *CatalogRepository) QuizForModule(moduleID string) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := ds.db.Where("module_id = ? AND is_final_exam = ?", moduleID, false).
		First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (ds *CatalogRepository) GetCourseFinalExam(courseID string) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := ds.db.Where("course_id = ? AND is_final_exam = ?", courseID, true).
		First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

// ==================== QUESTION METHODS ====================

func (ds *CatalogRepository) UpsertQuestion(question *model.Question) error {
	now := time.Now()
	question.UpdatedAt = now
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}

	return ds.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(question).Error
}

func (ds *CatalogRepository) UpsertQuestions(questions []model.Question) (int, error) {
	count := 0
	for i := range questions {
		if err := ds.UpsertQuestion(&questions[i]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (ds *CatalogRepository) GetQuizQuestions(quizID string) ([]model.Question, error) {
	var questions []model.Question
	if err := ds.db.Where("quiz_id = ?", quizID).
		Order("order_index ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (ds *CatalogRepository) SumQuizPoints(quizID string) (float64, error) {
	var total float64
	if err := ds.db.Model(&model.Question{}).
		Where("quiz_id = ?", quizID).
		Select("COALESCE(SUM(points), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
