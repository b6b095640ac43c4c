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
	"github.com/peoplehub/hrops/pkg/utils"
)

// TrainingHandler serves training programs, courses and enrollments.
type TrainingHandler struct {
	db        *database.DB
	trainings *repository.TrainingRepository
	logger    *zap.Logger
}

// NewTrainingHandler creates a new training handler
func NewTrainingHandler(db *database.DB, trainings *repository.TrainingRepository, logger *zap.Logger) *TrainingHandler {
	return &TrainingHandler{
		db:        db,
		trainings: trainings,
		logger:    logger,
	}
}

// ListPrograms handles GET /api/training/programs
func (h *TrainingHandler) ListPrograms(c *gin.Context) {
	programs, err := h.trainings.ListTrainings()
	if err != nil {
		h.logger.Error("Failed to list training programs", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list training programs")
		return
	}
	respondOK(c, programs)
}

type createProgramRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// CreateProgram handles POST /api/training/programs
func (h *TrainingHandler) CreateProgram(c *gin.Context) {
	var req createProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "A title is required")
		return
	}

	training := &models.Training{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		training.StartDate = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		training.EndDate = &t
	}

	if err := h.trainings.CreateTraining(nil, training); err != nil {
		h.logger.Error("Failed to create training program", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create training program")
		return
	}

	respondCreated(c, training)
}

// DeleteProgram handles DELETE /api/training/programs/:id
func (h *TrainingHandler) DeleteProgram(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid program ID")
		return
	}

	training, err := h.trainings.GetTraining(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load training program")
		return
	}
	if training == nil {
		respondError(c, http.StatusNotFound, "Training program not found")
		return
	}

	err = h.db.WithTx(func(tx *sql.Tx) error {
		return h.trainings.DeleteTraining(tx, id)
	})
	if err != nil {
		h.logger.Error("Failed to delete training program", zap.Int64("id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to delete training program")
		return
	}

	respondOK(c, gin.H{"deleted": id})
}

// ListModules handles GET /api/training/modules
func (h *TrainingHandler) ListModules(c *gin.Context) {
	if v := c.Query("training_id"); v != "" {
		trainingID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "training_id must be an ID")
			return
		}
		courses, err := h.trainings.ListCourses(trainingID)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to list modules")
			return
		}
		respondOK(c, courses)
		return
	}

	courses, err := h.trainings.ListAllCourses()
	if err != nil {
		h.logger.Error("Failed to list modules", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list modules")
		return
	}
	respondOK(c, courses)
}

// GetModule handles GET /api/training/modules/:id, including the
// caller's enrollment state when present.
func (h *TrainingHandler) GetModule(c *gin.Context) {
	course, ok := h.loadCourse(c)
	if !ok {
		return
	}

	enrollment, err := h.trainings.GetEnrollment(auth.UserIDFrom(c), course.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load enrollment")
		return
	}

	respondOK(c, gin.H{
		"module":     course,
		"enrollment": enrollment,
	})
}

type createModuleRequest struct {
	TrainingID   int64  `json:"training_id" binding:"required"`
	Title        string `json:"title" binding:"required"`
	ContentURL   string `json:"content_url"`
	DurationMins int    `json:"duration_mins"`
}

// CreateModule handles POST /api/training/modules
func (h *TrainingHandler) CreateModule(c *gin.Context) {
	var req createModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "training_id and title are required")
		return
	}

	training, err := h.trainings.GetTraining(req.TrainingID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to resolve training program")
		return
	}
	if training == nil {
		respondError(c, http.StatusNotFound, "Training program not found")
		return
	}

	course := &models.Course{
		TrainingID:   req.TrainingID,
		Title:        req.Title,
		ContentURL:   req.ContentURL,
		DurationMins: req.DurationMins,
	}
	if err := h.trainings.CreateCourse(nil, course); err != nil {
		h.logger.Error("Failed to create module", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create module")
		return
	}

	respondCreated(c, course)
}

type updateModuleRequest struct {
	Title        *string `json:"title"`
	ContentURL   *string `json:"content_url"`
	DurationMins *int    `json:"duration_mins"`
}

// UpdateModule handles PUT /api/training/modules/:id
func (h *TrainingHandler) UpdateModule(c *gin.Context) {
	course, ok := h.loadCourse(c)
	if !ok {
		return
	}

	var req updateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.ContentURL != nil {
		course.ContentURL = *req.ContentURL
	}
	if req.DurationMins != nil {
		course.DurationMins = *req.DurationMins
	}

	if err := h.trainings.UpdateCourse(nil, course); err != nil {
		h.logger.Error("Failed to update module", zap.Int64("id", course.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update module")
		return
	}

	respondOK(c, course)
}

// DeleteModule handles DELETE /api/training/modules/:id
func (h *TrainingHandler) DeleteModule(c *gin.Context) {
	course, ok := h.loadCourse(c)
	if !ok {
		return
	}

	err := h.db.WithTx(func(tx *sql.Tx) error {
		return h.trainings.DeleteCourse(tx, course.ID)
	})
	if err != nil {
		h.logger.Error("Failed to delete module", zap.Int64("id", course.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to delete module")
		return
	}

	respondOK(c, gin.H{"deleted": course.ID})
}

type progressRequest struct {
	Progress *float64 `json:"progress" binding:"required"`
}

// UpdateProgress handles PUT /api/training/modules/:id/progress
func (h *TrainingHandler) UpdateProgress(c *gin.Context) {
	course, ok := h.loadCourse(c)
	if !ok {
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "A progress value is required")
		return
	}
	if err := utils.ValidateProgress(*req.Progress); err != nil {
		respondError(c, http.StatusBadRequest, "Progress must be between 0 and 100")
		return
	}

	status := models.EnrollmentStatusEnrolled
	if *req.Progress >= 100 {
		status = models.EnrollmentStatusCompleted
	}

	enrollment := &models.Enrollment{
		UserID:   auth.UserIDFrom(c),
		CourseID: course.ID,
		Progress: *req.Progress,
		Status:   status,
	}
	if err := h.trainings.UpsertEnrollment(nil, enrollment); err != nil {
		h.logger.Error("Failed to update progress", zap.Int64("course_id", course.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update progress")
		return
	}

	stored, err := h.trainings.GetEnrollment(enrollment.UserID, course.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load enrollment")
		return
	}
	respondOK(c, stored)
}

// CompleteModule handles POST /api/training/modules/:id/complete.
// Idempotent: completing twice is a no-op.
func (h *TrainingHandler) CompleteModule(c *gin.Context) {
	course, ok := h.loadCourse(c)
	if !ok {
		return
	}

	enrollment := &models.Enrollment{
		UserID:   auth.UserIDFrom(c),
		CourseID: course.ID,
		Progress: 100,
		Status:   models.EnrollmentStatusCompleted,
	}
	if err := h.trainings.UpsertEnrollment(nil, enrollment); err != nil {
		h.logger.Error("Failed to complete module", zap.Int64("course_id", course.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to complete module")
		return
	}

	stored, err := h.trainings.GetEnrollment(enrollment.UserID, course.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to load enrollment")
		return
	}
	respondOK(c, stored)
}

func (h *TrainingHandler) loadCourse(c *gin.Context) (*models.Course, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid module ID")
		return nil, false
	}

	course, err := h.trainings.GetCourse(id)
	if err != nil {
		h.logger.Error("Failed to load module", zap.Int64("id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load module")
		return nil, false
	}
	if course == nil {
		respondError(c, http.StatusNotFound, "Module not found")
		return nil, false
	}

	return course, true
}
