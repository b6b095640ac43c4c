package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/models"
)

// TaskRepository handles task database operations
type TaskRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	AssignedToID *int64
	AssignedByID *int64
	// PartyID matches tasks where the user is either assignee or
	// assigner.
	PartyID      *int64
	Status       string
	HasAISummary *bool
	Limit        int
}

const taskColumns = `id, title, description, assigned_to_id, assigned_by_id, deadline,
	priority, status, employee_review, employee_reviewed_at,
	manager_review, manager_reviewed_at, ai_summary, ai_summary_generated_at, created_at`

// Create creates a new task
func (r *TaskRepository) Create(tx *sql.Tx, task *models.Task) error {
	query := `
		INSERT INTO tasks (title, description, assigned_to_id, assigned_by_id, deadline, priority, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := execer(tx, r.db).Exec(query,
		task.Title,
		task.Description,
		task.AssignedToID,
		task.AssignedByID,
		task.Deadline,
		task.Priority,
		task.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create task", zap.Error(err))
		return fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	return nil
}

// GetByID retrieves a task by ID. Returns nil when no row exists.
func (r *TaskRepository) GetByID(id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	task, err := scanTask(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get task by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// List retrieves tasks matching the filter, latest deadline first.
func (r *TaskRepository) List(filter TaskFilter) ([]*models.Task, error) {
	var clauses []string
	var args []interface{}

	if filter.AssignedToID != nil {
		clauses = append(clauses, "assigned_to_id = ?")
		args = append(args, *filter.AssignedToID)
	}
	if filter.AssignedByID != nil {
		clauses = append(clauses, "assigned_by_id = ?")
		args = append(args, *filter.AssignedByID)
	}
	if filter.PartyID != nil {
		clauses = append(clauses, "(assigned_to_id = ? OR assigned_by_id = ?)")
		args = append(args, *filter.PartyID, *filter.PartyID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.HasAISummary != nil {
		if *filter.HasAISummary {
			clauses = append(clauses, "ai_summary != ''")
		} else {
			clauses = append(clauses, "ai_summary = ''")
		}
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY deadline DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list tasks", zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListToday retrieves the assignee's active tasks for the daily view.
// Active means not yet due and still open, or already finished.
func (r *TaskRepository) ListToday(assigneeID int64, now time.Time) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE assigned_to_id = ?
		AND ((deadline >= ? AND status IN (?, ?)) OR status IN (?, ?))
		ORDER BY deadline DESC
	`

	rows, err := r.db.Query(query, assigneeID, now,
		models.TaskStatusPending, models.TaskStatusInProgress,
		models.TaskStatusCompleted, models.TaskStatusReviewed,
	)
	if err != nil {
		r.logger.Error("Failed to list today's tasks", zap.Int64("assignee_id", assigneeID), zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// UpdateStatus updates the task status
func (r *TaskRepository) UpdateStatus(tx *sql.Tx, id int64, status string) error {
	query := `UPDATE tasks SET status = ? WHERE id = ?`

	if _, err := execer(tx, r.db).Exec(query, status, id); err != nil {
		r.logger.Error("Failed to update task status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update status: %w", err)
	}

	return nil
}

// SetEmployeeReview records the assignee's self review
func (r *TaskRepository) SetEmployeeReview(tx *sql.Tx, id int64, review string, at time.Time) error {
	query := `UPDATE tasks SET employee_review = ?, employee_reviewed_at = ? WHERE id = ?`

	if _, err := execer(tx, r.db).Exec(query, review, at, id); err != nil {
		r.logger.Error("Failed to set employee review", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set employee review: %w", err)
	}

	return nil
}

// SetManagerReview records the assigner's review and moves the task to
// reviewed.
func (r *TaskRepository) SetManagerReview(tx *sql.Tx, id int64, review string, at time.Time) error {
	query := `UPDATE tasks SET manager_review = ?, manager_reviewed_at = ?, status = ? WHERE id = ?`

	if _, err := execer(tx, r.db).Exec(query, review, at, models.TaskStatusReviewed, id); err != nil {
		r.logger.Error("Failed to set manager review", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set manager review: %w", err)
	}

	return nil
}

// SetAISummary attaches a generated summary to the task
func (r *TaskRepository) SetAISummary(tx *sql.Tx, id int64, summary string, at time.Time) error {
	query := `UPDATE tasks SET ai_summary = ?, ai_summary_generated_at = ? WHERE id = ?`

	if _, err := execer(tx, r.db).Exec(query, summary, at, id); err != nil {
		r.logger.Error("Failed to set AI summary", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set AI summary: %w", err)
	}

	return nil
}

func scanTask(s scanner) (*models.Task, error) {
	var task models.Task
	var employeeAt, managerAt, summaryAt sql.NullTime

	err := s.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.AssignedToID,
		&task.AssignedByID,
		&task.Deadline,
		&task.Priority,
		&task.Status,
		&task.EmployeeReview,
		&employeeAt,
		&task.ManagerReview,
		&managerAt,
		&task.AISummary,
		&summaryAt,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if employeeAt.Valid {
		task.EmployeeReviewedAt = &employeeAt.Time
	}
	if managerAt.Valid {
		task.ManagerReviewedAt = &managerAt.Time
	}
	if summaryAt.Valid {
		task.AISummaryGeneratedAt = &summaryAt.Time
	}

	return &task, nil
}

func collectTasks(rows *sql.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
