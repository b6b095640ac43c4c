package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/models"
)

// InterviewRepository handles interview database operations
type InterviewRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInterviewRepository creates a new interview repository
func NewInterviewRepository(db *sql.DB, logger *zap.Logger) *InterviewRepository {
	return &InterviewRepository{
		db:     db,
		logger: logger,
	}
}

// InterviewScores carries the score sheet recorded after an interview.
type InterviewScores struct {
	Technical      float64
	Communication  float64
	ProblemSolving float64
	Overall        float64
	Feedback       string
	Recommendation string
}

const interviewColumns = `id, candidate_id, job_id, interviewer_id, scheduled_at,
	technical_score, communication_score, problem_solving_score, overall_rating,
	feedback, recommendation, status, created_at`

// Create schedules an interview
func (r *InterviewRepository) Create(tx *sql.Tx, interview *models.Interview) error {
	query := `
		INSERT INTO interviews (candidate_id, job_id, interviewer_id, scheduled_at, status)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := execer(tx, r.db).Exec(query,
		interview.CandidateID,
		interview.JobID,
		interview.InterviewerID,
		interview.ScheduledAt,
		interview.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create interview", zap.Error(err))
		return fmt.Errorf("failed to create interview: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	interview.ID = id
	return nil
}

// GetByID retrieves an interview by ID. Returns nil when no row exists.
func (r *InterviewRepository) GetByID(id int64) (*models.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews WHERE id = ?`

	interview, err := scanInterview(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get interview", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}

	return interview, nil
}

// List retrieves interviews, optionally filtered by status, most
// recently scheduled first.
func (r *InterviewRepository) List(status string) ([]*models.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews`
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY scheduled_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list interviews", zap.Error(err))
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	var interviews []*models.Interview
	for rows.Next() {
		interview, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		interviews = append(interviews, interview)
	}

	return interviews, rows.Err()
}

// SetScores records the score sheet and marks the interview completed
func (r *InterviewRepository) SetScores(tx *sql.Tx, id int64, scores InterviewScores) error {
	query := `
		UPDATE interviews
		SET technical_score = ?, communication_score = ?, problem_solving_score = ?,
			overall_rating = ?, feedback = ?, recommendation = ?, status = ?
		WHERE id = ?
	`

	if _, err := execer(tx, r.db).Exec(query,
		scores.Technical,
		scores.Communication,
		scores.ProblemSolving,
		scores.Overall,
		scores.Feedback,
		scores.Recommendation,
		models.InterviewStatusCompleted,
		id,
	); err != nil {
		r.logger.Error("Failed to set interview scores", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set scores: %w", err)
	}

	return nil
}

func scanInterview(s scanner) (*models.Interview, error) {
	var interview models.Interview
	var interviewerID sql.NullInt64
	var technical, communication, problemSolving, overall sql.NullFloat64

	err := s.Scan(
		&interview.ID,
		&interview.CandidateID,
		&interview.JobID,
		&interviewerID,
		&interview.ScheduledAt,
		&technical,
		&communication,
		&problemSolving,
		&overall,
		&interview.Feedback,
		&interview.Recommendation,
		&interview.Status,
		&interview.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if interviewerID.Valid {
		interview.InterviewerID = &interviewerID.Int64
	}
	if technical.Valid {
		interview.TechnicalScore = &technical.Float64
	}
	if communication.Valid {
		interview.CommunicationScore = &communication.Float64
	}
	if problemSolving.Valid {
		interview.ProblemSolvingScore = &problemSolving.Float64
	}
	if overall.Valid {
		interview.OverallRating = &overall.Float64
	}

	return &interview, nil
}
