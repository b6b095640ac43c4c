package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/models"
)

// RecruitingRepository handles job post and resume database operations
type RecruitingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRecruitingRepository creates a new recruiting repository
func NewRecruitingRepository(db *sql.DB, logger *zap.Logger) *RecruitingRepository {
	return &RecruitingRepository{
		db:     db,
		logger: logger,
	}
}

// CreateJobPost creates a job post
func (r *RecruitingRepository) CreateJobPost(tx *sql.Tx, job *models.JobPost) error {
	query := `
		INSERT INTO job_posts (title, description, requirements)
		VALUES (?, ?, ?)
	`

	result, err := execer(tx, r.db).Exec(query, job.Title, job.Description, job.Requirements)
	if err != nil {
		r.logger.Error("Failed to create job post", zap.Error(err))
		return fmt.Errorf("failed to create job post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	job.ID = id
	return nil
}

// GetJobPost retrieves a job post by ID. Returns nil when no row exists.
func (r *RecruitingRepository) GetJobPost(id int64) (*models.JobPost, error) {
	query := `
		SELECT id, title, description, requirements, created_at
		FROM job_posts
		WHERE id = ?
	`

	var job models.JobPost
	err := r.db.QueryRow(query, id).Scan(
		&job.ID,
		&job.Title,
		&job.Description,
		&job.Requirements,
		&job.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get job post", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get job post: %w", err)
	}

	return &job, nil
}

// ListJobPosts retrieves every job post, newest first
func (r *RecruitingRepository) ListJobPosts() ([]*models.JobPost, error) {
	query := `
		SELECT id, title, description, requirements, created_at
		FROM job_posts
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list job posts", zap.Error(err))
		return nil, fmt.Errorf("failed to list job posts: %w", err)
	}
	defer rows.Close()

	var jobs []*models.JobPost
	for rows.Next() {
		var job models.JobPost
		if err := rows.Scan(
			&job.ID,
			&job.Title,
			&job.Description,
			&job.Requirements,
			&job.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job post: %w", err)
		}
		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}

// CreateResume stores a candidate resume
func (r *RecruitingRepository) CreateResume(tx *sql.Tx, resume *models.Resume) error {
	query := `
		INSERT INTO resumes (candidate_id, file_path, parsed_text)
		VALUES (?, ?, ?)
	`

	result, err := execer(tx, r.db).Exec(query, resume.CandidateID, resume.FilePath, resume.ParsedText)
	if err != nil {
		r.logger.Error("Failed to create resume", zap.Error(err))
		return fmt.Errorf("failed to create resume: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	resume.ID = id
	return nil
}

// GetResume retrieves a resume by ID. Returns nil when no row exists.
func (r *RecruitingRepository) GetResume(id int64) (*models.Resume, error) {
	query := `
		SELECT id, candidate_id, file_path, parsed_text, created_at
		FROM resumes
		WHERE id = ?
	`

	var resume models.Resume
	err := r.db.QueryRow(query, id).Scan(
		&resume.ID,
		&resume.CandidateID,
		&resume.FilePath,
		&resume.ParsedText,
		&resume.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get resume", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}

	return &resume, nil
}

// GetLatestResumeByCandidate retrieves a candidate's most recent
// resume. Returns nil when the candidate has none.
func (r *RecruitingRepository) GetLatestResumeByCandidate(candidateID int64) (*models.Resume, error) {
	query := `
		SELECT id, candidate_id, file_path, parsed_text, created_at
		FROM resumes
		WHERE candidate_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	var resume models.Resume
	err := r.db.QueryRow(query, candidateID).Scan(
		&resume.ID,
		&resume.CandidateID,
		&resume.FilePath,
		&resume.ParsedText,
		&resume.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get resume", zap.Int64("candidate_id", candidateID), zap.Error(err))
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}

	return &resume, nil
}
