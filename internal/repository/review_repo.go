package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/models"
)

// ReviewRepository handles performance review database operations
type ReviewRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *sql.DB, logger *zap.Logger) *ReviewRepository {
	return &ReviewRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a performance review
func (r *ReviewRepository) Create(tx *sql.Tx, review *models.PerformanceReview) error {
	query := `
		INSERT INTO performance_reviews (employee_id, reviewer_id, type, text, rating)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := execer(tx, r.db).Exec(query,
		review.EmployeeID,
		review.ReviewerID,
		review.Type,
		review.Text,
		review.Rating,
	)
	if err != nil {
		r.logger.Error("Failed to create performance review", zap.Error(err))
		return fmt.Errorf("failed to create review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	review.ID = id
	return nil
}

// ListByEmployee retrieves an employee's reviews, newest first
func (r *ReviewRepository) ListByEmployee(employeeID int64) ([]*models.PerformanceReview, error) {
	query := `
		SELECT id, employee_id, reviewer_id, type, text, rating, created_at
		FROM performance_reviews
		WHERE employee_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, employeeID)
	if err != nil {
		r.logger.Error("Failed to list reviews", zap.Int64("employee_id", employeeID), zap.Error(err))
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.PerformanceReview
	for rows.Next() {
		var review models.PerformanceReview
		var rating sql.NullFloat64
		if err := rows.Scan(
			&review.ID,
			&review.EmployeeID,
			&review.ReviewerID,
			&review.Type,
			&review.Text,
			&rating,
			&review.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		if rating.Valid {
			review.Rating = &rating.Float64
		}
		reviews = append(reviews, &review)
	}

	return reviews, rows.Err()
}
