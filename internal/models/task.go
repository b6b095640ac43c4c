package models

import "time"

// Task is a unit of work assigned by a manager to an employee. Once
// both parties have submitted reviews an AI summary can be attached.
type Task struct {
	ID                   int64      `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	AssignedToID         int64      `json:"assigned_to_id"`
	AssignedByID         int64      `json:"assigned_by_id"`
	Deadline             time.Time  `json:"deadline"`
	Priority             string     `json:"priority"`
	Status               string     `json:"status"`
	EmployeeReview       string     `json:"employee_review,omitempty"`
	EmployeeReviewedAt   *time.Time `json:"employee_reviewed_at,omitempty"`
	ManagerReview        string     `json:"manager_review,omitempty"`
	ManagerReviewedAt    *time.Time `json:"manager_reviewed_at,omitempty"`
	AISummary            string     `json:"ai_summary,omitempty"` // JSON blob
	AISummaryGeneratedAt *time.Time `json:"ai_summary_generated_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Task status constants
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusReviewed   = "reviewed"
)

// Task priority constants
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// PerformanceReview is a generated or recorded review for an employee.
type PerformanceReview struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"employee_id"`
	ReviewerID int64     `json:"reviewer_id"`
	Type       string    `json:"type"`
	Text       string    `json:"text"` // JSON blob
	Rating     *float64  `json:"rating,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Performance review type constants
const (
	ReviewTypeAI              = "ai_performance_review"
	ReviewTypeTaskPerformance = "task_performance_review"
)
