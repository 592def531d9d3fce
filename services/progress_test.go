package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-app/local_api/dto"
	"github.com/brightpath-app/local_api/model"
	"github.com/brightpath-app/local_api/shared"
)

func TestMarkContentCompletedCascades(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	result, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{
		EnrollmentID: enrollment.ID,
		ContentID:    "b1",
	})
	require.NoError(t, err)

	assert.Equal(t, "m1", result.ModuleID)
	assert.Equal(t, shared.ModuleStatusInProgress, result.Status)
	assert.Equal(t, 1, result.CompletedContent)
	assert.Equal(t, 2, result.TotalContent)
	assert.Equal(t, 50, result.CompletionPercentage)
	assert.False(t, result.AutoCompleted)
}

func TestMarkContentCompletedIdempotent(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	req := dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b1"}

	first, err := ts.progress.MarkContentCompleted(req)
	require.NoError(t, err)
	second, err := ts.progress.MarkContentCompleted(req)
	require.NoError(t, err)

	assert.Equal(t, first.CompletedContent, second.CompletedContent)
	assert.Equal(t, 1, second.CompletedContent)
	assert.Equal(t, 50, second.CompletionPercentage)
}

func TestCascadePercentageRounds(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)

	// Third block on m1 makes 2 of 3 complete, which rounds to 67.
	_, err := ts.catalog.SaveContentBlocks([]model.ContentBlock{
		{ID: "b1c", ModuleID: "m1", Title: "Keys", OrderIndex: 3, ContentData: json.RawMessage(`{}`)},
	})
	require.NoError(t, err)

	enrollment := ts.enroll(t, "s1")

	_, err = ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b1"})
	require.NoError(t, err)
	result, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b2"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.CompletedContent)
	assert.Equal(t, 3, result.TotalContent)
	assert.Equal(t, 67, result.CompletionPercentage)
}

func TestMarkContentCompletedTouchesEnrollment(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	stale := time.Now().Add(-24 * time.Hour)
	require.NoError(t, ts.db.Model(&model.Enrollment{}).
		Where("id = ?", enrollment.ID).
		UpdateColumn("updated_at", stale).Error)

	_, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b1"})
	require.NoError(t, err)

	refreshed, err := ts.enrollment.GetEnrollment(enrollment.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), refreshed.UpdatedAt, time.Minute)
}

func TestModuleAutoCompletesWithoutQuiz(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	_, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b1"})
	require.NoError(t, err)
	result, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b2"})
	require.NoError(t, err)

	assert.Equal(t, shared.ModuleStatusCompleted, result.Status)
	assert.True(t, result.AutoCompleted)
	assert.Equal(t, 100, result.CompletionPercentage)
	require.NotNil(t, result.CompletedAt)
}

func TestQuizGateHoldsModuleCompletion(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	// All content done on m2, but its quiz is unpassed.
	result, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b3"})
	require.NoError(t, err)

	assert.Equal(t, shared.ModuleStatusInProgress, result.Status)
	assert.Equal(t, 100, result.CompletionPercentage)
	assert.False(t, result.AutoCompleted)
}

func TestQuizPassUnblocksModuleCompletion(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	_, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b3"})
	require.NoError(t, err)

	attempt, err := ts.progress.StartQuizAttempt(dto.StartQuizAttemptRequest{StudentID: "s1", QuizID: "qz1"})
	require.NoError(t, err)

	// Failing the quiz keeps the gate closed.
	_, err = ts.progress.CompleteQuizAttempt(attempt.ID, dto.CompleteQuizAttemptRequest{Score: 40, Passed: false})
	require.NoError(t, err)

	progress, err := ts.progress.GetModuleProgress(enrollment.ID, "m2")
	require.NoError(t, err)
	assert.Equal(t, shared.ModuleStatusInProgress, progress.Status)

	// A later pass re-runs the cascade and completes the module.
	attempt, err = ts.progress.StartQuizAttempt(dto.StartQuizAttemptRequest{StudentID: "s1", QuizID: "qz1"})
	require.NoError(t, err)
	_, err = ts.progress.CompleteQuizAttempt(attempt.ID, dto.CompleteQuizAttemptRequest{Score: 85, Passed: true})
	require.NoError(t, err)

	progress, err = ts.progress.GetModuleProgress(enrollment.ID, "m2")
	require.NoError(t, err)
	assert.Equal(t, shared.ModuleStatusCompleted, progress.Status)
	assert.True(t, progress.AutoCompleted)
}

func TestFailedQuizAttemptStillRunsCascade(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	_, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b3"})
	require.NoError(t, err)

	stale := time.Now().Add(-24 * time.Hour)
	require.NoError(t, ts.db.Model(&model.Enrollment{}).
		Where("id = ?", enrollment.ID).
		UpdateColumn("updated_at", stale).Error)

	attempt, err := ts.progress.StartQuizAttempt(dto.StartQuizAttemptRequest{StudentID: "s1", QuizID: "qz1"})
	require.NoError(t, err)
	_, err = ts.progress.CompleteQuizAttempt(attempt.ID, dto.CompleteQuizAttemptRequest{Score: 40, Passed: false})
	require.NoError(t, err)

	// The failed attempt leaves the gate closed but still refreshes
	// the enrollment through the cascade.
	progress, err := ts.progress.GetModuleProgress(enrollment.ID, "m2")
	require.NoError(t, err)
	assert.Equal(t, shared.ModuleStatusInProgress, progress.Status)

	refreshed, err := ts.enrollment.GetEnrollment(enrollment.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), refreshed.UpdatedAt, time.Minute)
}

func TestCompletedModuleNeverRegresses(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	_, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b1"})
	require.NoError(t, err)
	_, err = ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b2"})
	require.NoError(t, err)

	_, err = ts.progress.RecordModuleStatus(dto.ModuleStatusRequest{
		EnrollmentID: enrollment.ID,
		ModuleID:     "m1",
		Status:       shared.ModuleStatusInProgress,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindInvalidInput, shared.KindOf(err))
}

func TestManualModuleStatusOverride(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	progress, err := ts.progress.RecordModuleStatus(dto.ModuleStatusRequest{
		EnrollmentID: enrollment.ID,
		ModuleID:     "m1",
		Status:       shared.ModuleStatusCompleted,
	})
	require.NoError(t, err)

	assert.Equal(t, shared.ModuleStatusCompleted, progress.Status)
	assert.False(t, progress.AutoCompleted)
	require.NotNil(t, progress.CompletedAt)
	require.NotNil(t, progress.StartedAt)
}

func TestMarkContentViewedKeepsCompletion(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	req := dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b1"}

	_, err := ts.progress.MarkContentCompleted(req)
	require.NoError(t, err)

	progress, err := ts.progress.MarkContentViewed(req)
	require.NoError(t, err)

	assert.True(t, progress.IsCompleted)
	require.NotNil(t, progress.ViewedAt)
}

func TestMarkContentUnknownEnrollment(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)

	_, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{
		EnrollmentID: "missing",
		ContentID:    "b1",
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestQuizAttemptNumbersIncrease(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	ts.enroll(t, "s1")

	first, err := ts.progress.StartQuizAttempt(dto.StartQuizAttemptRequest{StudentID: "s1", QuizID: "qz1"})
	require.NoError(t, err)
	second, err := ts.progress.StartQuizAttempt(dto.StartQuizAttemptRequest{StudentID: "s1", QuizID: "qz1"})
	require.NoError(t, err)

	assert.Equal(t, 1, first.AttemptNumber)
	assert.Equal(t, 2, second.AttemptNumber)

	// A different student starts back at one.
	ts.enroll(t, "s2")
	other, err := ts.progress.StartQuizAttempt(dto.StartQuizAttemptRequest{StudentID: "s2", QuizID: "qz1"})
	require.NoError(t, err)
	assert.Equal(t, 1, other.AttemptNumber)
}

func TestCompleteQuizAttemptTwiceConflicts(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	ts.enroll(t, "s1")

	attempt, err := ts.progress.StartQuizAttempt(dto.StartQuizAttemptRequest{StudentID: "s1", QuizID: "qz1"})
	require.NoError(t, err)

	_, err = ts.progress.CompleteQuizAttempt(attempt.ID, dto.CompleteQuizAttemptRequest{Score: 70, Passed: true})
	require.NoError(t, err)

	_, err = ts.progress.CompleteQuizAttempt(attempt.ID, dto.CompleteQuizAttemptRequest{Score: 90, Passed: true})
	require.Error(t, err)
	assert.Equal(t, shared.KindConstraintViolation, shared.KindOf(err))
}

func TestSaveQuizAnswerRewriteKeepsStoredID(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	ts.enroll(t, "s1")

	attempt, err := ts.progress.StartQuizAttempt(dto.StartQuizAttemptRequest{StudentID: "s1", QuizID: "qz1"})
	require.NoError(t, err)

	first, err := ts.progress.SaveQuizAnswer(dto.SaveQuizAnswerRequest{
		AttemptID:        attempt.ID,
		QuestionID:       "q1",
		SelectedOptionID: "o1",
	})
	require.NoError(t, err)

	// Changing the answer updates the same row; the response carries
	// the persisted ID, not a freshly minted one.
	second, err := ts.progress.SaveQuizAnswer(dto.SaveQuizAnswerRequest{
		AttemptID:        attempt.ID,
		QuestionID:       "q1",
		SelectedOptionID: "o2",
		IsCorrect:        true,
		PointsEarned:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	answers, err := ts.progress.GetAttemptAnswers(attempt.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, second.ID, answers[0].ID)
	assert.Equal(t, "o2", answers[0].SelectedOptionID)
}

func TestCalculateAttemptScore(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	ts.enroll(t, "s1")

	attempt, err := ts.progress.StartQuizAttempt(dto.StartQuizAttemptRequest{StudentID: "s1", QuizID: "qz1"})
	require.NoError(t, err)

	_, err = ts.progress.SaveQuizAnswer(dto.SaveQuizAnswerRequest{
		AttemptID:    attempt.ID,
		QuestionID:   "q1",
		IsCorrect:    true,
		PointsEarned: 1,
	})
	require.NoError(t, err)
	_, err = ts.progress.SaveQuizAnswer(dto.SaveQuizAnswerRequest{
		AttemptID:  attempt.ID,
		QuestionID: "q2",
		IsCorrect:  false,
	})
	require.NoError(t, err)

	score, err := ts.progress.CalculateAttemptScore(attempt.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, score.TotalQuestions)
	assert.Equal(t, 1, score.CorrectAnswers)
	assert.Equal(t, 1.0, score.PointsEarned)
	assert.Equal(t, 2.0, score.PointsPossible)
	assert.Equal(t, 50.0, score.Percentage)
}

func TestBestQuizScore(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	ts.enroll(t, "s1")

	for _, score := range []float64{40, 85, 60} {
		attempt, err := ts.progress.StartQuizAttempt(dto.StartQuizAttemptRequest{StudentID: "s1", QuizID: "qz1"})
		require.NoError(t, err)
		_, err = ts.progress.CompleteQuizAttempt(attempt.ID, dto.CompleteQuizAttemptRequest{
			Score:  score,
			Passed: score >= 60,
		})
		require.NoError(t, err)
	}

	best, err := ts.progress.BestQuizScore("s1", "qz1")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 85.0, *best)
}

func TestGetEnrollmentProgressCoversAllModules(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	_, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b1"})
	require.NoError(t, err)

	rows, err := ts.progress.GetEnrollmentProgress(enrollment.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "m1", rows[0].Module.ID)
	assert.Equal(t, shared.ModuleStatusInProgress, rows[0].Progress.Status)
	assert.Equal(t, "m2", rows[1].Module.ID)
	assert.Equal(t, shared.ModuleStatusNotStarted, rows[1].Progress.Status)
}

func TestCourseProgressSummary(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)
	enrollment := ts.enroll(t, "s1")

	_, err := ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b1"})
	require.NoError(t, err)
	_, err = ts.progress.MarkContentCompleted(dto.MarkContentRequest{EnrollmentID: enrollment.ID, ContentID: "b2"})
	require.NoError(t, err)

	summary, err := ts.progress.GetCourseProgressSummary(enrollment.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalModules)
	assert.Equal(t, 1, summary.CompletedModules)
	assert.Equal(t, 1, summary.NotStartedModules)
	assert.Equal(t, 50.0, summary.CompletionPercentage)
}

func TestSaveEnrollmentIsIdempotent(t *testing.T) {
	ts := newTestServices(t)
	ts.seedCourse(t)

	first := ts.enroll(t, "s1")
	second := ts.enroll(t, "s1")

	assert.Equal(t, first.ID, second.ID)

	enrollments, err := ts.enrollment.GetStudentEnrollments("s1")
	require.NoError(t, err)
	assert.Len(t, enrollments, 1)
}
