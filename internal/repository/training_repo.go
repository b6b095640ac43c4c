package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/models"
)

// TrainingRepository handles training program, course and enrollment
// database operations
type TrainingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTrainingRepository creates a new training repository
func NewTrainingRepository(db *sql.DB, logger *zap.Logger) *TrainingRepository {
	return &TrainingRepository{
		db:     db,
		logger: logger,
	}
}

// CreateTraining creates a training program
func (r *TrainingRepository) CreateTraining(tx *sql.Tx, training *models.Training) error {
	query := `
		INSERT INTO trainings (title, description, start_date, end_date)
		VALUES (?, ?, ?, ?)
	`

	result, err := execer(tx, r.db).Exec(query,
		training.Title,
		training.Description,
		training.StartDate,
		training.EndDate,
	)
	if err != nil {
		r.logger.Error("Failed to create training", zap.Error(err))
		return fmt.Errorf("failed to create training: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	training.ID = id
	return nil
}

// GetTraining retrieves a training program by ID. Returns nil when no
// row exists.
func (r *TrainingRepository) GetTraining(id int64) (*models.Training, error) {
	query := `
		SELECT id, title, description, start_date, end_date, created_at
		FROM trainings
		WHERE id = ?
	`

	var training models.Training
	var startDate, endDate sql.NullTime
	err := r.db.QueryRow(query, id).Scan(
		&training.ID,
		&training.Title,
		&training.Description,
		&startDate,
		&endDate,
		&training.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get training", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get training: %w", err)
	}

	if startDate.Valid {
		training.StartDate = &startDate.Time
	}
	if endDate.Valid {
		training.EndDate = &endDate.Time
	}

	return &training, nil
}

// ListTrainings retrieves every training program, newest first
func (r *TrainingRepository) ListTrainings() ([]*models.Training, error) {
	query := `
		SELECT id, title, description, start_date, end_date, created_at
		FROM trainings
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list trainings", zap.Error(err))
		return nil, fmt.Errorf("failed to list trainings: %w", err)
	}
	defer rows.Close()

	var trainings []*models.Training
	for rows.Next() {
		var training models.Training
		var startDate, endDate sql.NullTime
		if err := rows.Scan(
			&training.ID,
			&training.Title,
			&training.Description,
			&startDate,
			&endDate,
			&training.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan training: %w", err)
		}
		if startDate.Valid {
			training.StartDate = &startDate.Time
		}
		if endDate.Valid {
			training.EndDate = &endDate.Time
		}
		trainings = append(trainings, &training)
	}

	return trainings, rows.Err()
}

// DeleteTraining removes a training program along with its courses and
// their enrollments.
func (r *TrainingRepository) DeleteTraining(tx *sql.Tx, id int64) error {
	ex := execer(tx, r.db)

	if _, err := ex.Exec("DELETE FROM enrollments WHERE course_id IN (SELECT id FROM courses WHERE training_id = ?)", id); err != nil {
		r.logger.Error("Failed to delete training enrollments", zap.Int64("training_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete enrollments: %w", err)
	}
	if _, err := ex.Exec("DELETE FROM courses WHERE training_id = ?", id); err != nil {
		r.logger.Error("Failed to delete training courses", zap.Int64("training_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete courses: %w", err)
	}
	if _, err := ex.Exec("DELETE FROM trainings WHERE id = ?", id); err != nil {
		r.logger.Error("Failed to delete training", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete training: %w", err)
	}

	return nil
}

// CreateCourse creates a course under a training program
func (r *TrainingRepository) CreateCourse(tx *sql.Tx, course *models.Course) error {
	query := `
		INSERT INTO courses (training_id, title, content_url, duration_mins)
		VALUES (?, ?, ?, ?)
	`

	result, err := execer(tx, r.db).Exec(query,
		course.TrainingID,
		course.Title,
		course.ContentURL,
		course.DurationMins,
	)
	if err != nil {
		r.logger.Error("Failed to create course", zap.Error(err))
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	course.ID = id
	return nil
}

// GetCourse retrieves a course by ID. Returns nil when no row exists.
func (r *TrainingRepository) GetCourse(id int64) (*models.Course, error) {
	query := `
		SELECT id, training_id, title, content_url, duration_mins, created_at
		FROM courses
		WHERE id = ?
	`

	var course models.Course
	err := r.db.QueryRow(query, id).Scan(
		&course.ID,
		&course.TrainingID,
		&course.Title,
		&course.ContentURL,
		&course.DurationMins,
		&course.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get course", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	return &course, nil
}

// ListCourses retrieves the courses of a training program
func (r *TrainingRepository) ListCourses(trainingID int64) ([]*models.Course, error) {
	query := `
		SELECT id, training_id, title, content_url, duration_mins, created_at
		FROM courses
		WHERE training_id = ?
		ORDER BY id
	`

	rows, err := r.db.Query(query, trainingID)
	if err != nil {
		r.logger.Error("Failed to list courses", zap.Int64("training_id", trainingID), zap.Error(err))
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(
			&course.ID,
			&course.TrainingID,
			&course.Title,
			&course.ContentURL,
			&course.DurationMins,
			&course.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, &course)
	}

	return courses, rows.Err()
}

// ListAllCourses retrieves every course across all programs
func (r *TrainingRepository) ListAllCourses() ([]*models.Course, error) {
	query := `
		SELECT id, training_id, title, content_url, duration_mins, created_at
		FROM courses
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list courses", zap.Error(err))
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(
			&course.ID,
			&course.TrainingID,
			&course.Title,
			&course.ContentURL,
			&course.DurationMins,
			&course.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, &course)
	}

	return courses, rows.Err()
}

// UpdateCourse updates a course's editable fields
func (r *TrainingRepository) UpdateCourse(tx *sql.Tx, course *models.Course) error {
	query := `UPDATE courses SET title = ?, content_url = ?, duration_mins = ? WHERE id = ?`

	if _, err := execer(tx, r.db).Exec(query, course.Title, course.ContentURL, course.DurationMins, course.ID); err != nil {
		r.logger.Error("Failed to update course", zap.Int64("id", course.ID), zap.Error(err))
		return fmt.Errorf("failed to update course: %w", err)
	}

	return nil
}

// DeleteCourse removes a course and its enrollments
func (r *TrainingRepository) DeleteCourse(tx *sql.Tx, id int64) error {
	ex := execer(tx, r.db)

	if _, err := ex.Exec("DELETE FROM enrollments WHERE course_id = ?", id); err != nil {
		r.logger.Error("Failed to delete course enrollments", zap.Int64("course_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete enrollments: %w", err)
	}
	if _, err := ex.Exec("DELETE FROM courses WHERE id = ?", id); err != nil {
		r.logger.Error("Failed to delete course", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete course: %w", err)
	}

	return nil
}

// GetEnrollment retrieves a user's enrollment in a course. Returns nil
// when the user is not enrolled.
func (r *TrainingRepository) GetEnrollment(userID, courseID int64) (*models.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id, progress, status, created_at, updated_at
		FROM enrollments
		WHERE user_id = ? AND course_id = ?
	`

	var enrollment models.Enrollment
	err := r.db.QueryRow(query, userID, courseID).Scan(
		&enrollment.ID,
		&enrollment.UserID,
		&enrollment.CourseID,
		&enrollment.Progress,
		&enrollment.Status,
		&enrollment.CreatedAt,
		&enrollment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get enrollment",
			zap.Int64("user_id", userID),
			zap.Int64("course_id", courseID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return &enrollment, nil
}

// ListEnrollments retrieves a user's enrollments
func (r *TrainingRepository) ListEnrollments(userID int64) ([]*models.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id, progress, status, created_at, updated_at
		FROM enrollments
		WHERE user_id = ?
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		r.logger.Error("Failed to list enrollments", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*models.Enrollment
	for rows.Next() {
		var enrollment models.Enrollment
		if err := rows.Scan(
			&enrollment.ID,
			&enrollment.UserID,
			&enrollment.CourseID,
			&enrollment.Progress,
			&enrollment.Status,
			&enrollment.CreatedAt,
			&enrollment.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, &enrollment)
	}

	return enrollments, rows.Err()
}

// UpsertEnrollment creates the enrollment or updates its progress and
// status. The UNIQUE(user_id, course_id) constraint backs the upsert.
func (r *TrainingRepository) UpsertEnrollment(tx *sql.Tx, enrollment *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (user_id, course_id, progress, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, course_id) DO UPDATE SET
			progress = excluded.progress,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := execer(tx, r.db).Exec(query,
		enrollment.UserID,
		enrollment.CourseID,
		enrollment.Progress,
		enrollment.Status,
	); err != nil {
		r.logger.Error("Failed to upsert enrollment",
			zap.Int64("user_id", enrollment.UserID),
			zap.Int64("course_id", enrollment.CourseID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert enrollment: %w", err)
	}

	return nil
}
