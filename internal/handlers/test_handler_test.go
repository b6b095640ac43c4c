package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peoplehub/hrops/internal/models"
)

func scheduleTest(t *testing.T, env *testEnv, creatorToken string, candidateID, jobID int64) models.TestAssignment {
	t.Helper()
	w := env.doJSON(t, http.MethodPost, "/api/ai/schedule-test", creatorToken, map[string]interface{}{
		"candidate_id":     candidateID,
		"job_id":           jobID,
		"test_type":        "coding",
		"questions":        `["Implement an LRU cache"]`,
		"duration_minutes": 90,
		"deadline":         time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var assignment models.TestAssignment
	decodeData(t, w, &assignment)
	return assignment
}

func TestTechnicalTestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	hr := env.newUser(t, "Dana", "dana@example.com", models.RoleHR)
	manager := env.newUser(t, "Pat", "pat@example.com", models.RoleManager)
	candidate := env.newUser(t, "Sam", "sam@example.com", models.RoleBDA)
	other := env.newUser(t, "Lee", "lee@example.com", models.RoleBDA)
	job := seedJobPost(t, env)

	assignment := scheduleTest(t, env, env.token(t, hr), candidate, job.ID)
	require.Equal(t, models.TestStatusScheduled, assignment.Status)

	testPath := fmt.Sprintf("/api/ai/test/%d", assignment.ID)

	// only the candidate can open the test
	w := env.doJSON(t, http.MethodGet, testPath, env.token(t, other), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodGet, testPath, env.token(t, candidate), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// results are gated until submission
	w = env.doJSON(t, http.MethodGet, fmt.Sprintf("/api/ai/test-results/%d", assignment.ID), env.token(t, manager), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// saving progress does not stamp submitted_at
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/ai/save-test-progress/%d", assignment.ID),
		env.token(t, candidate), map[string]string{"answers": `["partial"]`})
	require.Equal(t, http.StatusOK, w.Code)

	var saved models.TestAssignment
	decodeData(t, w, &saved)
	require.Equal(t, models.TestStatusInProgress, saved.Status)
	require.Nil(t, saved.SubmittedAt)

	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/ai/submit-test/%d", assignment.ID),
		env.token(t, candidate), map[string]string{"answers": `["final answer"]`})
	require.Equal(t, http.StatusOK, w.Code)

	var submitted models.TestAssignment
	decodeData(t, w, &submitted)
	require.Equal(t, models.TestStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	// a second submission is rejected
	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/ai/submit-test/%d", assignment.ID),
		env.token(t, candidate), map[string]string{"answers": `["again"]`})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// reviewers can now read the results; candidates cannot
	w = env.doJSON(t, http.MethodGet, fmt.Sprintf("/api/ai/test-results/%d", assignment.ID), env.token(t, manager), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doJSON(t, http.MethodGet, fmt.Sprintf("/api/ai/test-results/%d", assignment.ID), env.token(t, candidate), nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAssessmentFlow(t *testing.T) {
	env := newTestEnv(t)
	hr := env.newUser(t, "Dana", "dana@example.com", models.RoleHR)
	candidate := env.newUser(t, "Sam", "sam@example.com", models.RoleBDA)
	job := seedJobPost(t, env)

	assignment := scheduleTest(t, env, env.token(t, hr), candidate, job.ID)

	// an unsubmitted test cannot be assessed
	w := env.doJSON(t, http.MethodPost, "/api/ai/submit-assessment", env.token(t, hr), map[string]interface{}{
		"test_assignment_id": assignment.ID,
		"score":              85.0,
		"recommendation":     "hire",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/ai/submit-test/%d", assignment.ID),
		env.token(t, candidate), map[string]string{"answers": `["done"]`})
	require.Equal(t, http.StatusOK, w.Code)

	// it now shows up as pending
	w = env.doJSON(t, http.MethodGet, "/api/ai/pending-assessments", env.token(t, hr), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var pending []reviewedTest
	decodeData(t, w, &pending)
	require.Len(t, pending, 1)
	require.Equal(t, "Sam", pending[0].CandidateName)
	require.Equal(t, "Backend Engineer", pending[0].JobTitle)

	w = env.doJSON(t, http.MethodPost, "/api/ai/submit-assessment", env.token(t, hr), map[string]interface{}{
		"test_assignment_id": assignment.ID,
		"score":              85.0,
		"strengths":          "clean code",
		"recommendation":     "hire",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stored, err := env.tests.GetAssignment(assignment.ID)
	require.NoError(t, err)
	require.Equal(t, models.TestStatusEvaluated, stored.Status)

	// the candidate sees the score on their own listing
	w = env.doJSON(t, http.MethodGet, "/api/ai/candidate-tests", env.token(t, candidate), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var mine []candidateTest
	decodeData(t, w, &mine)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Score)
	require.InDelta(t, 85.0, *mine[0].Score, 0.001)
}

func TestReviewerListingsRoleGuards(t *testing.T) {
	env := newTestEnv(t)
	hr := env.newUser(t, "Dana", "dana@example.com", models.RoleHR)
	ho := env.newUser(t, "Max", "max@example.com", models.RoleHO)
	candidate := env.newUser(t, "Sam", "sam@example.com", models.RoleBDA)
	job := seedJobPost(t, env)

	scheduleTest(t, env, env.token(t, hr), candidate, job.ID)

	w := env.doJSON(t, http.MethodGet, "/api/ai/technical-tests", env.token(t, candidate), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	var listing []reviewedTest
	w = env.doJSON(t, http.MethodGet, "/api/ai/technical-tests", env.token(t, hr), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Len(t, listing, 1)

	w = env.doJSON(t, http.MethodGet, fmt.Sprintf("/api/ai/ho/technical-tests?candidate_id=%d", candidate), env.token(t, ho), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Len(t, listing, 1)

	w = env.doJSON(t, http.MethodGet, "/api/ai/ho/technical-tests?status=submitted", env.token(t, ho), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Empty(t, listing)
}

func TestInterviewScoring(t *testing.T) {
	env := newTestEnv(t)
	hr := env.newUser(t, "Dana", "dana@example.com", models.RoleHR)
	ho := env.newUser(t, "Max", "max@example.com", models.RoleHO)
	candidate := env.newUser(t, "Sam", "sam@example.com", models.RoleBDA)
	job := seedJobPost(t, env)

	interview := &models.Interview{
		CandidateID: candidate,
		JobID:       job.ID,
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Status:      models.InterviewStatusScheduled,
	}
	require.NoError(t, env.interviews.Create(nil, interview))

	// listing and scoring are head-office operations
	w := env.doJSON(t, http.MethodGet, "/api/ai/ho/technical-interviews", env.token(t, hr), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	var listing []models.Interview
	w = env.doJSON(t, http.MethodGet, "/api/ai/ho/technical-interviews", env.token(t, ho), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &listing)
	require.Len(t, listing, 1)

	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/ai/ho/score-technical-interview/%d", interview.ID),
		env.token(t, ho), map[string]interface{}{
			"technical_score":       8.0,
			"communication_score":   7.0,
			"problem_solving_score": 9.0,
			"overall_rating":        8.0,
			"feedback":              "strong fundamentals",
			"recommendation":        "proceed",
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var scored models.Interview
	decodeData(t, w, &scored)
	require.Equal(t, models.InterviewStatusCompleted, scored.Status)
	require.NotNil(t, scored.TechnicalScore)
	require.InDelta(t, 8.0, *scored.TechnicalScore, 0.001)
	require.Equal(t, "proceed", scored.Recommendation)
}
