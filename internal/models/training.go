package models

import "time"

// Training is a program owning a set of courses.
type Training struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Course is a single module within a training program.
type Course struct {
	ID           int64     `json:"id"`
	TrainingID   int64     `json:"training_id"`
	Title        string    `json:"title"`
	ContentURL   string    `json:"content_url,omitempty"`
	DurationMins int       `json:"duration_mins,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Enrollment tracks a user's progress through a course.
type Enrollment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CourseID  int64     `json:"course_id"`
	Progress  float64   `json:"progress"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Enrollment status constants
const (
	EnrollmentStatusEnrolled  = "enrolled"
	EnrollmentStatusCompleted = "completed"
)
