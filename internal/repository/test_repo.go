package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/models"
)

// TestRepository handles technical test assignment and assessment
// database operations
type TestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTestRepository creates a new test repository
func NewTestRepository(db *sql.DB, logger *zap.Logger) *TestRepository {
	return &TestRepository{
		db:     db,
		logger: logger,
	}
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	CandidateID *int64
	JobID       *int64
	Status      string
}

const assignmentColumns = `id, candidate_id, job_id, test_type, questions, answers,
	duration_minutes, deadline, instructions, status, created_by, submitted_at, created_at`

// CreateAssignment creates a test assignment
func (r *TestRepository) CreateAssignment(tx *sql.Tx, assignment *models.TestAssignment) error {
	query := `
		INSERT INTO test_assignments
			(candidate_id, job_id, test_type, questions, duration_minutes, deadline, instructions, status, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := execer(tx, r.db).Exec(query,
		assignment.CandidateID,
		assignment.JobID,
		assignment.TestType,
		assignment.Questions,
		assignment.DurationMinutes,
		assignment.Deadline,
		assignment.Instructions,
		assignment.Status,
		assignment.CreatedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create test assignment", zap.Error(err))
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	assignment.ID = id
	return nil
}

// GetAssignment retrieves a test assignment by ID. Returns nil when no
// row exists.
func (r *TestRepository) GetAssignment(id int64) (*models.TestAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM test_assignments WHERE id = ?`

	assignment, err := scanAssignment(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get test assignment", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return assignment, nil
}

// ListAssignments retrieves assignments matching the filter, newest
// first.
func (r *TestRepository) ListAssignments(filter AssignmentFilter) ([]*models.TestAssignment, error) {
	var clauses []string
	var args []interface{}

	if filter.CandidateID != nil {
		clauses = append(clauses, "candidate_id = ?")
		args = append(args, *filter.CandidateID)
	}
	if filter.JobID != nil {
		clauses = append(clauses, "job_id = ?")
		args = append(args, *filter.JobID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + assignmentColumns + ` FROM test_assignments`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list test assignments", zap.Error(err))
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*models.TestAssignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}

	return assignments, rows.Err()
}

// SaveAnswers stores the candidate's answers and moves the assignment
// to the given status. submittedAt is only stamped on final submission.
func (r *TestRepository) SaveAnswers(tx *sql.Tx, id int64, answers, status string, submittedAt *time.Time) error {
	query := `UPDATE test_assignments SET answers = ?, status = ?, submitted_at = ? WHERE id = ?`

	if _, err := execer(tx, r.db).Exec(query, answers, status, submittedAt, id); err != nil {
		r.logger.Error("Failed to save answers", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to save answers: %w", err)
	}

	return nil
}

// UpdateAssignmentStatus updates only the assignment status
func (r *TestRepository) UpdateAssignmentStatus(tx *sql.Tx, id int64, status string) error {
	query := `UPDATE test_assignments SET status = ? WHERE id = ?`

	if _, err := execer(tx, r.db).Exec(query, status, id); err != nil {
		r.logger.Error("Failed to update assignment status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update status: %w", err)
	}

	return nil
}

// CreateAssessment records a reviewer's evaluation of a submitted test
func (r *TestRepository) CreateAssessment(tx *sql.Tx, assessment *models.TestAssessment) error {
	query := `
		INSERT INTO test_assessments
			(test_assignment_id, candidate_id, score, strengths, weaknesses, feedback, recommendation, evaluated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := execer(tx, r.db).Exec(query,
		assessment.TestAssignmentID,
		assessment.CandidateID,
		assessment.Score,
		assessment.Strengths,
		assessment.Weaknesses,
		assessment.Feedback,
		assessment.Recommendation,
		assessment.EvaluatedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create assessment", zap.Error(err))
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	assessment.ID = id
	return nil
}

// GetAssessmentByAssignment retrieves the assessment for an assignment.
// Returns nil when none exists.
func (r *TestRepository) GetAssessmentByAssignment(assignmentID int64) (*models.TestAssessment, error) {
	query := `
		SELECT id, test_assignment_id, candidate_id, score, strengths, weaknesses,
			feedback, recommendation, evaluated_by, created_at
		FROM test_assessments
		WHERE test_assignment_id = ?
	`

	var assessment models.TestAssessment
	var evaluatedBy sql.NullInt64
	err := r.db.QueryRow(query, assignmentID).Scan(
		&assessment.ID,
		&assessment.TestAssignmentID,
		&assessment.CandidateID,
		&assessment.Score,
		&assessment.Strengths,
		&assessment.Weaknesses,
		&assessment.Feedback,
		&assessment.Recommendation,
		&evaluatedBy,
		&assessment.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get assessment", zap.Int64("assignment_id", assignmentID), zap.Error(err))
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if evaluatedBy.Valid {
		assessment.EvaluatedBy = &evaluatedBy.Int64
	}

	return &assessment, nil
}

func scanAssignment(s scanner) (*models.TestAssignment, error) {
	var assignment models.TestAssignment
	var createdBy sql.NullInt64
	var submittedAt sql.NullTime

	err := s.Scan(
		&assignment.ID,
		&assignment.CandidateID,
		&assignment.JobID,
		&assignment.TestType,
		&assignment.Questions,
		&assignment.Answers,
		&assignment.DurationMinutes,
		&assignment.Deadline,
		&assignment.Instructions,
		&assignment.Status,
		&createdBy,
		&submittedAt,
		&assignment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if createdBy.Valid {
		assignment.CreatedBy = &createdBy.Int64
	}
	if submittedAt.Valid {
		assignment.SubmittedAt = &submittedAt.Time
	}

	return &assignment, nil
}
