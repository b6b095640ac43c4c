package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/ai"
	"github.com/peoplehub/hrops/internal/auth"
	"github.com/peoplehub/hrops/internal/models"
	"github.com/peoplehub/hrops/internal/repository"
	"github.com/peoplehub/hrops/pkg/database"
)

// TaskSummarizer condenses a reviewed task into a summary record.
type TaskSummarizer interface {
	SummarizeTask(ctx context.Context, task *models.Task) (*ai.TaskSummary, error)
}

// TaskHandler serves the task lifecycle.
type TaskHandler struct {
	db         *database.DB
	tasks      *repository.TaskRepository
	users      *repository.UserRepository
	reviews    *repository.ReviewRepository
	summarizer TaskSummarizer
	logger     *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(
	db *database.DB,
	tasks *repository.TaskRepository,
	users *repository.UserRepository,
	reviews *repository.ReviewRepository,
	summarizer TaskSummarizer,
	logger *zap.Logger,
) *TaskHandler {
	return &TaskHandler{
		db:         db,
		tasks:      tasks,
		users:      users,
		reviews:    reviews,
		summarizer: summarizer,
		logger:     logger,
	}
}

var validTaskStatuses = map[string]bool{
	models.TaskStatusPending:    true,
	models.TaskStatusInProgress: true,
	models.TaskStatusCompleted:  true,
	models.TaskStatusReviewed:   true,
}

// List handles GET /api/tasks. Without explicit filters, hr sees
// summarized tasks across the org while everyone else sees tasks they
// are party to.
func (h *TaskHandler) List(c *gin.Context) {
	filter := repository.TaskFilter{
		Status: c.Query("status"),
		Limit:  queryInt(c, "limit", 0),
	}

	explicit := false
	if v := c.Query("assigned_to"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "assigned_to must be an ID")
			return
		}
		filter.AssignedToID = &id
		explicit = true
	}
	if v := c.Query("assigned_by"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "assigned_by must be an ID")
			return
		}
		filter.AssignedByID = &id
		explicit = true
	}

	if !explicit {
		if auth.RoleFrom(c) == models.RoleHR {
			withSummary := true
			filter.HasAISummary = &withSummary
		} else {
			userID := auth.UserIDFrom(c)
			filter.PartyID = &userID
		}
	}

	tasks, err := h.tasks.List(filter)
	if err != nil {
		h.logger.Error("Failed to list tasks", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list tasks")
		return
	}

	respondOK(c, h.withAssigneeNames(tasks))
}

// Today handles GET /api/tasks/today
func (h *TaskHandler) Today(c *gin.Context) {
	tasks, err := h.tasks.ListToday(auth.UserIDFrom(c), time.Now())
	if err != nil {
		h.logger.Error("Failed to list today's tasks", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list tasks")
		return
	}
	respondOK(c, h.withAssigneeNames(tasks))
}

// Get handles GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	task, ok := h.loadTask(c, true)
	if !ok {
		return
	}
	respondOK(c, task)
}

type createTaskRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	AssignedToID int64  `json:"assigned_to_id" binding:"required"`
	Deadline     string `json:"deadline" binding:"required"`
	Priority     string `json:"priority"`
}

// Create handles POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	role := auth.RoleFrom(c)
	if role != models.RoleHO && role != models.RoleHR {
		respondError(c, http.StatusForbidden, "Only ho and hr can create tasks")
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "title, assigned_to_id and deadline are required")
		return
	}

	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		respondError(c, http.StatusBadRequest, "deadline must be RFC3339")
		return
	}

	assignee, err := h.users.GetByID(req.AssignedToID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to resolve assignee")
		return
	}
	if assignee == nil {
		respondError(c, http.StatusNotFound, "Assignee not found")
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		Title:        req.Title,
		Description:  req.Description,
		AssignedToID: req.AssignedToID,
		AssignedByID: auth.UserIDFrom(c),
		Deadline:     deadline,
		Priority:     priority,
		Status:       models.TaskStatusPending,
	}
	if err := h.tasks.Create(nil, task); err != nil {
		h.logger.Error("Failed to create task", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create task")
		return
	}

	respondCreated(c, task)
}

type updateTaskRequest struct {
	Status string `json:"status" binding:"required"`
}

// Update handles PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	task, ok := h.loadTask(c, true)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validTaskStatuses[req.Status] {
		respondError(c, http.StatusBadRequest, "A valid status is required")
		return
	}

	if err := h.tasks.UpdateStatus(nil, task.ID, req.Status); err != nil {
		h.logger.Error("Failed to update task", zap.Int64("id", task.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update task")
		return
	}

	task.Status = req.Status
	respondOK(c, task)
}

type reviewRequest struct {
	Review string `json:"review" binding:"required"`
}

// EmployeeReview handles POST /api/tasks/:id/employee-review
func (h *TaskHandler) EmployeeReview(c *gin.Context) {
	task, ok := h.loadTask(c, false)
	if !ok {
		return
	}

	if task.AssignedToID != auth.UserIDFrom(c) {
		respondError(c, http.StatusForbidden, "Only the assignee can submit a self review")
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "A review is required")
		return
	}

	now := time.Now()
	err := h.db.WithTx(func(tx *sql.Tx) error {
		if err := h.tasks.SetEmployeeReview(tx, task.ID, req.Review, now); err != nil {
			return err
		}
		return h.tasks.UpdateStatus(tx, task.ID, models.TaskStatusCompleted)
	})
	if err != nil {
		h.logger.Error("Failed to record employee review", zap.Int64("id", task.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to record review")
		return
	}

	task.EmployeeReview = req.Review
	task.EmployeeReviewedAt = &now
	task.Status = models.TaskStatusCompleted
	respondOK(c, task)
}

// ManagerReview handles POST /api/tasks/:id/manager-review
func (h *TaskHandler) ManagerReview(c *gin.Context) {
	task, ok := h.loadTask(c, false)
	if !ok {
		return
	}

	if task.AssignedByID != auth.UserIDFrom(c) {
		respondError(c, http.StatusForbidden, "Only the assigner can submit a manager review")
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "A review is required")
		return
	}

	now := time.Now()
	if err := h.tasks.SetManagerReview(nil, task.ID, req.Review, now); err != nil {
		h.logger.Error("Failed to record manager review", zap.Int64("id", task.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to record review")
		return
	}

	task.ManagerReview = req.Review
	task.ManagerReviewedAt = &now
	task.Status = models.TaskStatusReviewed
	respondOK(c, task)
}

// GenerateAISummary handles POST /api/tasks/:id/generate-ai-summary
func (h *TaskHandler) GenerateAISummary(c *gin.Context) {
	task, ok := h.loadTask(c, true)
	if !ok {
		return
	}

	if task.EmployeeReview == "" || task.ManagerReview == "" {
		respondError(c, http.StatusBadRequest, "Both reviews are required before a summary can be generated")
		return
	}

	summary, err := h.summarizer.SummarizeTask(c.Request.Context(), task)
	if err != nil {
		h.logger.Error("Failed to generate task summary", zap.Int64("id", task.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	encoded, err := json.Marshal(summary)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to encode summary")
		return
	}

	now := time.Now()
	rating := summary.Rating
	err = h.db.WithTx(func(tx *sql.Tx) error {
		if err := h.tasks.SetAISummary(tx, task.ID, string(encoded), now); err != nil {
			return err
		}
		return h.reviews.Create(tx, &models.PerformanceReview{
			EmployeeID: task.AssignedToID,
			ReviewerID: task.AssignedByID,
			Type:       models.ReviewTypeTaskPerformance,
			Text:       string(encoded),
			Rating:     &rating,
		})
	})
	if err != nil {
		h.logger.Error("Failed to store task summary", zap.Int64("id", task.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to store summary")
		return
	}

	task.AISummary = string(encoded)
	task.AISummaryGeneratedAt = &now
	respondOK(c, gin.H{
		"task":    task,
		"summary": summary,
	})
}

// loadTask parses :id and loads the task. With partyCheck, callers who
// are neither assignee nor assigner get a 403.
func (h *TaskHandler) loadTask(c *gin.Context, partyCheck bool) (*models.Task, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task ID")
		return nil, false
	}

	task, err := h.tasks.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to load task", zap.Int64("id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load task")
		return nil, false
	}
	if task == nil {
		respondError(c, http.StatusNotFound, "Task not found")
		return nil, false
	}

	if partyCheck {
		userID := auth.UserIDFrom(c)
		if task.AssignedToID != userID && task.AssignedByID != userID {
			respondError(c, http.StatusForbidden, "Not a party to this task")
			return nil, false
		}
	}

	return task, true
}

// taskWithNames decorates a task with the resolved assignee name.
type taskWithNames struct {
	*models.Task
	AssignedToName string `json:"assigned_to_name,omitempty"`
}

func (h *TaskHandler) withAssigneeNames(tasks []*models.Task) []taskWithNames {
	names := make(map[int64]string)
	out := make([]taskWithNames, 0, len(tasks))
	for _, task := range tasks {
		name, ok := names[task.AssignedToID]
		if !ok {
			if user, err := h.users.GetByID(task.AssignedToID); err == nil && user != nil {
				name = user.Name
			}
			names[task.AssignedToID] = name
		}
		out = append(out, taskWithNames{Task: task, AssignedToName: name})
	}
	return out
}
