package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/ai"
	"github.com/peoplehub/hrops/internal/auth"
	"github.com/peoplehub/hrops/internal/models"
	"github.com/peoplehub/hrops/internal/repository"
)

// ContentGenerator is the AI surface the generation endpoints depend
// on. *ai.Generator satisfies it; tests substitute a stub.
type ContentGenerator interface {
	GeneratePerformanceReview(ctx context.Context, input ai.PerformanceReviewInput) (*ai.PerformanceReview, error)
	GenerateInterviewQuestions(ctx context.Context, job *models.JobPost) (*ai.InterviewQuestions, error)
	GenerateJobDescription(ctx context.Context, jobTitle, extras string) (string, error)
	EnhanceProfile(ctx context.Context, resumeText, jobTitle string) (string, error)
	ScoreResume(ctx context.Context, job *models.JobPost, resumeText string) (*ai.ResumeScore, error)
	RecommendCourses(ctx context.Context, resumeText string, courses []*models.Course) (*ai.CourseRecommendation, error)
	Chat(ctx context.Context, schoolID, question string) (string, error)
	MatchJobs(ctx context.Context, resumeText string, jobs []*models.JobPost) (*ai.JobMatch, error)
	GenerateUpskillingPath(ctx context.Context, resumeText, targetRole string) (*ai.UpskillingPath, error)
	SummarizeTask(ctx context.Context, task *models.Task) (*ai.TaskSummary, error)
}

// AIHandler serves the generation endpoints.
type AIHandler struct {
	generator  ContentGenerator
	users      *repository.UserRepository
	tasks      *repository.TaskRepository
	reviews    *repository.ReviewRepository
	recruiting *repository.RecruitingRepository
	trainings  *repository.TrainingRepository
	logger     *zap.Logger
}

// NewAIHandler creates a new AI handler
func NewAIHandler(
	generator ContentGenerator,
	users *repository.UserRepository,
	tasks *repository.TaskRepository,
	reviews *repository.ReviewRepository,
	recruiting *repository.RecruitingRepository,
	trainings *repository.TrainingRepository,
	logger *zap.Logger,
) *AIHandler {
	return &AIHandler{
		generator:  generator,
		users:      users,
		tasks:      tasks,
		reviews:    reviews,
		recruiting: recruiting,
		trainings:  trainings,
		logger:     logger,
	}
}

type performanceReviewRequest struct {
	EmployeeID int64  `json:"employee_id" binding:"required"`
	Notes      string `json:"notes"`
}

// PerformanceReview handles POST /api/ai/performance_review.
// The generated review is persisted as a PerformanceReview record.
func (h *AIHandler) PerformanceReview(c *gin.Context) {
	var req performanceReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "employee_id is required")
		return
	}

	employee, err := h.users.GetByID(req.EmployeeID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to resolve employee")
		return
	}
	if employee == nil {
		respondError(c, http.StatusNotFound, "Employee not found")
		return
	}

	role, err := h.users.RoleName(employee.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to resolve employee role")
		return
	}

	tasks, err := h.tasks.List(repository.TaskFilter{AssignedToID: &req.EmployeeID})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load task history")
		return
	}

	records := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		records = append(records, *task)
	}

	review, err := h.generator.GeneratePerformanceReview(c.Request.Context(), ai.PerformanceReviewInput{
		EmployeeName: employee.Name,
		Role:         role,
		TaskRecords:  records,
		Notes:        req.Notes,
	})
	if err != nil {
		h.logger.Error("Failed to generate performance review", zap.Int64("employee_id", req.EmployeeID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	encoded, err := json.Marshal(review)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to encode review")
		return
	}

	rating := review.Rating
	record := &models.PerformanceReview{
		EmployeeID: req.EmployeeID,
		ReviewerID: auth.UserIDFrom(c),
		Type:       models.ReviewTypeAI,
		Text:       string(encoded),
		Rating:     &rating,
	}
	if err := h.reviews.Create(nil, record); err != nil {
		h.logger.Error("Failed to persist performance review", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to persist review")
		return
	}

	respondCreated(c, gin.H{
		"review_id": record.ID,
		"review":    review,
	})
}

// InterviewQuestions handles GET /api/ai/interview_questions/:jobPostId
func (h *AIHandler) InterviewQuestions(c *gin.Context) {
	job, ok := h.loadJobPost(c, "jobPostId")
	if !ok {
		return
	}

	questions, err := h.generator.GenerateInterviewQuestions(c.Request.Context(), job)
	if err != nil {
		h.logger.Error("Failed to generate interview questions", zap.Int64("job_id", job.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondOK(c, questions)
}

type makeJDRequest struct {
	JobTitle string `json:"job_title" binding:"required"`
	Extras   string `json:"extras"`
}

// MakeJD handles POST /api/ai/make_JD
func (h *AIHandler) MakeJD(c *gin.Context) {
	var req makeJDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "job_title is required")
		return
	}

	description, err := h.generator.GenerateJobDescription(c.Request.Context(), req.JobTitle, req.Extras)
	if err != nil {
		h.logger.Error("Failed to generate job description", zap.String("title", req.JobTitle), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondOK(c, gin.H{"description": description})
}

type profileEnhancementRequest struct {
	JobTitle string `json:"job_title" binding:"required"`
}

// ProfileEnhancement handles POST /api/ai/profile_enhancement/:resumeId
func (h *AIHandler) ProfileEnhancement(c *gin.Context) {
	resume, ok := h.loadResume(c)
	if !ok {
		return
	}

	var req profileEnhancementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "job_title is required")
		return
	}

	enhanced, err := h.generator.EnhanceProfile(c.Request.Context(), resume.ParsedText, req.JobTitle)
	if err != nil {
		h.logger.Error("Failed to enhance profile", zap.Int64("resume_id", resume.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondOK(c, gin.H{"enhanced_profile": enhanced})
}

// ResumeScore handles GET /api/ai/get_resume_score/:jobPostId.
// The caller's latest stored resume is scored against the job post.
func (h *AIHandler) ResumeScore(c *gin.Context) {
	job, ok := h.loadJobPost(c, "jobPostId")
	if !ok {
		return
	}

	resume, err := h.recruiting.GetLatestResumeByCandidate(auth.UserIDFrom(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load resume")
		return
	}
	if resume == nil {
		respondError(c, http.StatusNotFound, "No resume on file")
		return
	}

	score, err := h.generator.ScoreResume(c.Request.Context(), job, resume.ParsedText)
	if err != nil {
		h.logger.Error("Failed to score resume", zap.Int64("job_id", job.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondOK(c, score)
}

// GetCourses handles POST /api/ai/get_courses/:resumeId
func (h *AIHandler) GetCourses(c *gin.Context) {
	resume, ok := h.loadResume(c)
	if !ok {
		return
	}

	courses, err := h.trainings.ListAllCourses()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load courses")
		return
	}

	recommendation, err := h.generator.RecommendCourses(c.Request.Context(), resume.ParsedText, courses)
	if err != nil {
		h.logger.Error("Failed to recommend courses", zap.Int64("resume_id", resume.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondOK(c, recommendation)
}

type chatbotRequest struct {
	Question string `json:"question" binding:"required"`
}

// Chatbot handles POST /api/ai/chatbot/:schoolId
func (h *AIHandler) Chatbot(c *gin.Context) {
	schoolID := c.Param("schoolId")

	var req chatbotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "A question is required")
		return
	}

	answer, err := h.generator.Chat(c.Request.Context(), schoolID, req.Question)
	if err != nil {
		h.logger.Error("Chatbot call failed", zap.String("school_id", schoolID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondOK(c, gin.H{"answer": answer})
}

// GetJobPosts handles GET /api/ai/get_job_posts/:resumeId
func (h *AIHandler) GetJobPosts(c *gin.Context) {
	resume, ok := h.loadResume(c)
	if !ok {
		return
	}

	jobs, err := h.recruiting.ListJobPosts()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load job posts")
		return
	}

	match, err := h.generator.MatchJobs(c.Request.Context(), resume.ParsedText, jobs)
	if err != nil {
		h.logger.Error("Failed to match jobs", zap.Int64("resume_id", resume.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondOK(c, match)
}

type upskillingRequest struct {
	TargetRole string `json:"target_role"`
}

// UpskillingPath handles POST /api/ai/get_upskilling_path/:resumeId
func (h *AIHandler) UpskillingPath(c *gin.Context) {
	resume, ok := h.loadResume(c)
	if !ok {
		return
	}

	var req upskillingRequest
	_ = c.ShouldBindJSON(&req)

	path, err := h.generator.GenerateUpskillingPath(c.Request.Context(), resume.ParsedText, req.TargetRole)
	if err != nil {
		h.logger.Error("Failed to generate upskilling path", zap.Int64("resume_id", resume.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondOK(c, path)
}

func (h *AIHandler) loadJobPost(c *gin.Context, param string) (*models.JobPost, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid job post ID")
		return nil, false
	}

	job, err := h.recruiting.GetJobPost(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load job post")
		return nil, false
	}
	if job == nil {
		respondError(c, http.StatusNotFound, "Job post not found")
		return nil, false
	}

	return job, true
}

func (h *AIHandler) loadResume(c *gin.Context) (*models.Resume, bool) {
	id, err := strconv.ParseInt(c.Param("resumeId"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid resume ID")
		return nil, false
	}

	resume, err := h.recruiting.GetResume(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load resume")
		return nil, false
	}
	if resume == nil {
		respondError(c, http.StatusNotFound, "Resume not found")
		return nil, false
	}

	return resume, true
}
