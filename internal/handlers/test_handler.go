package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/auth"
	"github.com/peoplehub/hrops/internal/models"
	"github.com/peoplehub/hrops/internal/repository"
	"github.com/peoplehub/hrops/pkg/database"
)

// TestHandler serves technical test assignments, assessments and
// interviews.
type TestHandler struct {
	db         *database.DB
	tests      *repository.TestRepository
	interviews *repository.InterviewRepository
	recruiting *repository.RecruitingRepository
	users      *repository.UserRepository
	logger     *zap.Logger
}

// NewTestHandler creates a new test handler
func NewTestHandler(
	db *database.DB,
	tests *repository.TestRepository,
	interviews *repository.InterviewRepository,
	recruiting *repository.RecruitingRepository,
	users *repository.UserRepository,
	logger *zap.Logger,
) *TestHandler {
	return &TestHandler{
		db:         db,
		tests:      tests,
		interviews: interviews,
		recruiting: recruiting,
		users:      users,
		logger:     logger,
	}
}

type scheduleTestRequest struct {
	CandidateID     int64  `json:"candidate_id" binding:"required"`
	JobID           int64  `json:"job_id" binding:"required"`
	TestType        string `json:"test_type"`
	Questions       string `json:"questions" binding:"required"`
	DurationMinutes int    `json:"duration_minutes"`
	Deadline        string `json:"deadline" binding:"required"`
	Instructions    string `json:"instructions"`
}

// ScheduleTest handles POST /api/ai/schedule-test
func (h *TestHandler) ScheduleTest(c *gin.Context) {
	var req scheduleTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "candidate_id, job_id, questions and deadline are required")
		return
	}

	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		respondError(c, http.StatusBadRequest, "deadline must be RFC3339")
		return
	}

	candidate, err := h.users.GetByID(req.CandidateID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to resolve candidate")
		return
	}
	if candidate == nil {
		respondError(c, http.StatusNotFound, "Candidate not found")
		return
	}

	job, err := h.recruiting.GetJobPost(req.JobID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to resolve job post")
		return
	}
	if job == nil {
		respondError(c, http.StatusNotFound, "Job post not found")
		return
	}

	creator := auth.UserIDFrom(c)
	assignment := &models.TestAssignment{
		CandidateID:     req.CandidateID,
		JobID:           req.JobID,
		TestType:        req.TestType,
		Questions:       req.Questions,
		DurationMinutes: req.DurationMinutes,
		Deadline:        deadline,
		Instructions:    req.Instructions,
		Status:          models.TestStatusScheduled,
		CreatedBy:       &creator,
	}
	if err := h.tests.CreateAssignment(nil, assignment); err != nil {
		h.logger.Error("Failed to schedule test", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to schedule test")
		return
	}

	respondCreated(c, assignment)
}

// GetTest handles GET /api/ai/test/:id. Only the assigned candidate
// may read the test.
func (h *TestHandler) GetTest(c *gin.Context) {
	assignment, ok := h.loadAssignment(c)
	if !ok {
		return
	}

	if assignment.CandidateID != auth.UserIDFrom(c) {
		respondError(c, http.StatusForbidden, "Not your test")
		return
	}

	respondOK(c, assignment)
}

// TestResults handles GET /api/ai/test-results/:id for reviewers.
// The assignment must be submitted with answers on file.
func (h *TestHandler) TestResults(c *gin.Context) {
	role := auth.RoleFrom(c)
	if role != models.RoleManager && role != models.RoleHR {
		respondError(c, http.StatusForbidden, "Only manager and hr can view results")
		return
	}

	assignment, ok := h.loadAssignment(c)
	if !ok {
		return
	}

	if assignment.Status != models.TestStatusSubmitted && assignment.Status != models.TestStatusEvaluated {
		respondError(c, http.StatusBadRequest, "Test has not been submitted")
		return
	}
	if assignment.Answers == "" {
		respondError(c, http.StatusBadRequest, "No answers on file")
		return
	}

	assessment, err := h.tests.GetAssessmentByAssignment(assignment.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load assessment")
		return
	}

	respondOK(c, gin.H{
		"assignment": assignment,
		"assessment": assessment,
	})
}

type answersRequest struct {
	Answers string `json:"answers" binding:"required"`
}

// SubmitTest handles POST /api/ai/submit-test/:id
func (h *TestHandler) SubmitTest(c *gin.Context) {
	assignment, ok := h.loadAssignment(c)
	if !ok {
		return
	}

	if assignment.CandidateID != auth.UserIDFrom(c) {
		respondError(c, http.StatusForbidden, "Not your test")
		return
	}
	if assignment.Status == models.TestStatusSubmitted || assignment.Status == models.TestStatusEvaluated {
		respondError(c, http.StatusBadRequest, "Test already submitted")
		return
	}

	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Answers are required")
		return
	}

	now := time.Now()
	if err := h.tests.SaveAnswers(nil, assignment.ID, req.Answers, models.TestStatusSubmitted, &now); err != nil {
		h.logger.Error("Failed to submit test", zap.Int64("id", assignment.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to submit test")
		return
	}

	assignment.Answers = req.Answers
	assignment.Status = models.TestStatusSubmitted
	assignment.SubmittedAt = &now
	respondOK(c, assignment)
}

// SaveTestProgress handles POST /api/ai/save-test-progress/:id.
// Partial answers are stored without stamping submitted_at.
func (h *TestHandler) SaveTestProgress(c *gin.Context) {
	assignment, ok := h.loadAssignment(c)
	if !ok {
		return
	}

	if assignment.CandidateID != auth.UserIDFrom(c) {
		respondError(c, http.StatusForbidden, "Not your test")
		return
	}
	if assignment.Status == models.TestStatusSubmitted || assignment.Status == models.TestStatusEvaluated {
		respondError(c, http.StatusBadRequest, "Test already submitted")
		return
	}

	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Answers are required")
		return
	}

	if err := h.tests.SaveAnswers(nil, assignment.ID, req.Answers, models.TestStatusInProgress, nil); err != nil {
		h.logger.Error("Failed to save test progress", zap.Int64("id", assignment.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to save progress")
		return
	}

	assignment.Answers = req.Answers
	assignment.Status = models.TestStatusInProgress
	respondOK(c, assignment)
}

// candidateTest is an assignment decorated with job and assessment
// info for candidate-facing listings.
type candidateTest struct {
	*models.TestAssignment
	JobTitle string   `json:"job_title,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

// CandidateTests handles GET /api/ai/candidate-tests
func (h *TestHandler) CandidateTests(c *gin.Context) {
	candidateID := auth.UserIDFrom(c)
	assignments, err := h.tests.ListAssignments(repository.AssignmentFilter{CandidateID: &candidateID})
	if err != nil {
		h.logger.Error("Failed to list candidate tests", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list tests")
		return
	}

	out := make([]candidateTest, 0, len(assignments))
	for _, assignment := range assignments {
		entry := candidateTest{TestAssignment: assignment}
		if job, err := h.recruiting.GetJobPost(assignment.JobID); err == nil && job != nil {
			entry.JobTitle = job.Title
		}
		if assessment, err := h.tests.GetAssessmentByAssignment(assignment.ID); err == nil && assessment != nil {
			score := assessment.Score
			entry.Score = &score
		}
		out = append(out, entry)
	}

	respondOK(c, out)
}

// PendingAssessments handles GET /api/ai/pending-assessments
func (h *TestHandler) PendingAssessments(c *gin.Context) {
	assignments, err := h.tests.ListAssignments(repository.AssignmentFilter{Status: models.TestStatusSubmitted})
	if err != nil {
		h.logger.Error("Failed to list pending assessments", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list pending assessments")
		return
	}
	respondOK(c, h.withCandidateInfo(assignments))
}

type submitAssessmentRequest struct {
	TestAssignmentID int64   `json:"test_assignment_id" binding:"required"`
	Score            float64 `json:"score"`
	Strengths        string  `json:"strengths"`
	Weaknesses       string  `json:"weaknesses"`
	Feedback         string  `json:"feedback"`
	Recommendation   string  `json:"recommendation" binding:"required"`
}

// SubmitAssessment handles POST /api/ai/submit-assessment. The
// assessment record and the evaluated status land in one transaction.
func (h *TestHandler) SubmitAssessment(c *gin.Context) {
	var req submitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "test_assignment_id and recommendation are required")
		return
	}

	assignment, err := h.tests.GetAssignment(req.TestAssignmentID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load test")
		return
	}
	if assignment == nil {
		respondError(c, http.StatusNotFound, "Test not found")
		return
	}
	if assignment.Status != models.TestStatusSubmitted {
		respondError(c, http.StatusBadRequest, "Test is not awaiting assessment")
		return
	}

	evaluator := auth.UserIDFrom(c)
	assessment := &models.TestAssessment{
		TestAssignmentID: assignment.ID,
		CandidateID:      assignment.CandidateID,
		Score:            req.Score,
		Strengths:        req.Strengths,
		Weaknesses:       req.Weaknesses,
		Feedback:         req.Feedback,
		Recommendation:   req.Recommendation,
		EvaluatedBy:      &evaluator,
	}
	err = h.db.WithTx(func(tx *sql.Tx) error {
		if err := h.tests.CreateAssessment(tx, assessment); err != nil {
			return err
		}
		return h.tests.UpdateAssignmentStatus(tx, assignment.ID, models.TestStatusEvaluated)
	})
	if err != nil {
		h.logger.Error("Failed to submit assessment", zap.Int64("assignment_id", assignment.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to submit assessment")
		return
	}

	respondCreated(c, assessment)
}

// ListTests handles the reviewer-facing listings at
// GET /api/ai/ho/technical-tests and GET /api/ai/technical-tests.
func (h *TestHandler) ListTests(c *gin.Context) {
	filter := repository.AssignmentFilter{Status: c.Query("status")}

	if v := c.Query("job_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "job_id must be an ID")
			return
		}
		filter.JobID = &id
	}
	if v := c.Query("candidate_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "candidate_id must be an ID")
			return
		}
		filter.CandidateID = &id
	}

	assignments, err := h.tests.ListAssignments(filter)
	if err != nil {
		h.logger.Error("Failed to list tests", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list tests")
		return
	}

	respondOK(c, h.withCandidateInfo(assignments))
}

// ListInterviews handles GET /api/ai/ho/technical-interviews
func (h *TestHandler) ListInterviews(c *gin.Context) {
	interviews, err := h.interviews.List(c.Query("status"))
	if err != nil {
		h.logger.Error("Failed to list interviews", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list interviews")
		return
	}
	respondOK(c, interviews)
}

type scoreInterviewRequest struct {
	TechnicalScore      float64 `json:"technical_score"`
	CommunicationScore  float64 `json:"communication_score"`
	ProblemSolvingScore float64 `json:"problem_solving_score"`
	OverallRating       float64 `json:"overall_rating"`
	Feedback            string  `json:"feedback"`
	Recommendation      string  `json:"recommendation" binding:"required"`
}

// ScoreInterview handles POST /api/ai/ho/score-technical-interview/:id
func (h *TestHandler) ScoreInterview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid interview ID")
		return
	}

	interview, err := h.interviews.GetByID(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load interview")
		return
	}
	if interview == nil {
		respondError(c, http.StatusNotFound, "Interview not found")
		return
	}

	var req scoreInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "A recommendation is required")
		return
	}

	scores := repository.InterviewScores{
		Technical:      req.TechnicalScore,
		Communication:  req.CommunicationScore,
		ProblemSolving: req.ProblemSolvingScore,
		Overall:        req.OverallRating,
		Feedback:       req.Feedback,
		Recommendation: req.Recommendation,
	}
	if err := h.interviews.SetScores(nil, id, scores); err != nil {
		h.logger.Error("Failed to score interview", zap.Int64("id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to score interview")
		return
	}

	updated, err := h.interviews.GetByID(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load interview")
		return
	}
	respondOK(c, updated)
}

func (h *TestHandler) loadAssignment(c *gin.Context) (*models.TestAssignment, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid test ID")
		return nil, false
	}

	assignment, err := h.tests.GetAssignment(id)
	if err != nil {
		h.logger.Error("Failed to load test", zap.Int64("id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load test")
		return nil, false
	}
	if assignment == nil {
		respondError(c, http.StatusNotFound, "Test not found")
		return nil, false
	}

	return assignment, true
}

// reviewedTest decorates an assignment with candidate, job and
// assessment info for reviewer listings.
type reviewedTest struct {
	*models.TestAssignment
	CandidateName string                 `json:"candidate_name,omitempty"`
	JobTitle      string                 `json:"job_title,omitempty"`
	Assessment    *models.TestAssessment `json:"assessment,omitempty"`
}

func (h *TestHandler) withCandidateInfo(assignments []*models.TestAssignment) []reviewedTest {
	names := make(map[int64]string)
	titles := make(map[int64]string)

	out := make([]reviewedTest, 0, len(assignments))
	for _, assignment := range assignments {
		entry := reviewedTest{TestAssignment: assignment}

		name, ok := names[assignment.CandidateID]
		if !ok {
			if user, err := h.users.GetByID(assignment.CandidateID); err == nil && user != nil {
				name = user.Name
			}
			names[assignment.CandidateID] = name
		}
		entry.CandidateName = name

		title, ok := titles[assignment.JobID]
		if !ok {
			if job, err := h.recruiting.GetJobPost(assignment.JobID); err == nil && job != nil {
				title = job.Title
			}
			titles[assignment.JobID] = title
		}
		entry.JobTitle = title

		if assessment, err := h.tests.GetAssessmentByAssignment(assignment.ID); err == nil {
			entry.Assessment = assessment
		}

		out = append(out, entry)
	}

	return out
}
