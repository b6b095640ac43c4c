package models

import "time"

// JobPost is an open position used for question generation and
// resume matching.
type JobPost struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	CreatedAt    time.Time `json:"created_at"`
}

// Resume is an uploaded candidate resume with its extracted text.
type Resume struct {
	ID          int64     `json:"id"`
	CandidateID int64     `json:"candidate_id"`
	FilePath    string    `json:"file_path,omitempty"`
	ParsedText  string    `json:"parsed_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// TestAssignment is a technical test scheduled for a candidate.
type TestAssignment struct {
	ID              int64      `json:"id"`
	CandidateID     int64      `json:"candidate_id"`
	JobID           int64      `json:"job_id"`
	TestType        string     `json:"test_type"`
	Questions       string     `json:"questions"` // JSON blob
	Answers         string     `json:"answers,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Deadline        time.Time  `json:"deadline"`
	Instructions    string     `json:"instructions,omitempty"`
	Status          string     `json:"status"`
	CreatedBy       *int64     `json:"created_by,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Test assignment status constants
const (
	TestStatusScheduled  = "scheduled"
	TestStatusInProgress = "in_progress"
	TestStatusSubmitted  = "submitted"
	TestStatusEvaluated  = "evaluated"
)

// TestAssessment is a reviewer's evaluation of a submitted test.
type TestAssessment struct {
	ID               int64     `json:"id"`
	TestAssignmentID int64     `json:"test_assignment_id"`
	CandidateID      int64     `json:"candidate_id"`
	Score            float64   `json:"score"`
	Strengths        string    `json:"strengths,omitempty"`
	Weaknesses       string    `json:"weaknesses,omitempty"`
	Feedback         string    `json:"feedback,omitempty"`
	Recommendation   string    `json:"recommendation"`
	EvaluatedBy      *int64    `json:"evaluated_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Interview is a scored technical interview attached to a candidate.
type Interview struct {
	ID                  int64     `json:"id"`
	CandidateID         int64     `json:"candidate_id"`
	JobID               int64     `json:"job_id"`
	InterviewerID       *int64    `json:"interviewer_id,omitempty"`
	ScheduledAt         time.Time `json:"scheduled_at"`
	TechnicalScore      *float64  `json:"technical_score,omitempty"`
	CommunicationScore  *float64  `json:"communication_score,omitempty"`
	ProblemSolvingScore *float64  `json:"problem_solving_score,omitempty"`
	OverallRating       *float64  `json:"overall_rating,omitempty"`
	Feedback            string    `json:"feedback,omitempty"`
	Recommendation      string    `json:"recommendation,omitempty"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}

// Interview status constants
const (
	InterviewStatusScheduled = "scheduled"
	InterviewStatusCompleted = "completed"
)
