package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/model"
	"github.com/brightpath-app/local_api/shared"
)

func TestCatalogUpsertIsIdempotent(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)

	// Re-syncing the same course updates in place.
	require.NoError(t, ts.catalog.SaveCourse(&model.Course{
		ID:    "c1",
		Title: "Intro to Databases, 2nd Edition",
	}))

	resp, err := ts.catalog.GetAllCourses()
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Intro to Databases, 2nd Edition", resp.Courses[0].Title)
}

func TestGetCourseModulesOrdered(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)

	modules, err := ts.catalog.GetCourseModules("c1")
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, "m1", modules[0].ID)
	assert.Equal(t, "m2", modules[1].ID)
}

func TestGetModuleContentWithProgress(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	_, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{
		EnrollmentID: enrollment.ID,
		ContentID:    "b1",
	})
	require.NoError(t, err)

	blocks, err := ts.catalog.GetModuleContent("m1", enrollment.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	require.NotNil(t, blocks[0].Progress)
	assert.True(t, blocks[0].Progress.IsCompleted)
	assert.Nil(t, blocks[1].Progress)
}

func TestGetModuleContentWithoutEnrollment(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)

	blocks, err := ts.catalog.GetModuleContent("m1", "")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Nil(t, blocks[0].Progress)
}

func TestGetEnrolledCourses(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)

	require.NoError(t, ts.catalog.SaveCourse(&model.Course{ID: "c2", Title: "Unenrolled"}))
	ts.enroll(t, "s1")

	resp, err := ts.catalog.GetEnrolledCourses("s1")
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "c1", resp.Courses[0].ID)
}

func TestGetUnknownCourse(t *testing.T) {
	ts := newTestServices(t)

	_, err := ts.catalog.GetCourse("missing")
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestModuleQuizLookup(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)

	quiz, err := ts.catalog.GetModuleQuiz("m2")
	require.NoError(t, err)
	assert.Equal(t, "qz1", quiz.ID)

	questions, err := ts.catalog.GetQuizQuestions("qz1")
	require.NoError(t, err)
	assert.Len(t, questions, 2)

	_, err = ts.catalog.GetModuleQuiz("m1")
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}
