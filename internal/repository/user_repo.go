package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/models"
)

// UserRepository handles user and role database operations
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(tx *sql.Tx, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role_id, school_id)
		VALUES (?, ?, ?, ?, ?)
	`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.Exec(query, user.Name, user.Email, user.PasswordHash, user.RoleID, user.SchoolID)
	} else {
		result, err = r.db.Exec(query, user.Name, user.Email, user.PasswordHash, user.RoleID, user.SchoolID)
	}

	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by ID. Returns nil when no row exists.
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role_id, school_id, created_at
		FROM users
		WHERE id = ?
	`

	var user models.User
	err := r.db.QueryRow(query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.RoleID,
		&user.SchoolID,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by email. Returns nil when no row exists.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role_id, school_id, created_at
		FROM users
		WHERE email = ?
	`

	var user models.User
	err := r.db.QueryRow(query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.RoleID,
		&user.SchoolID,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// RoleName resolves the role name for a user. Returns an empty string
// when the user or role row is missing.
func (r *UserRepository) RoleName(userID int64) (string, error) {
	query := `
		SELECT roles.name
		FROM users
		JOIN roles ON roles.id = users.role_id
		WHERE users.id = ?
	`

	var name string
	err := r.db.QueryRow(query, userID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to resolve role name", zap.Int64("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("failed to resolve role: %w", err)
	}

	return name, nil
}

// EnsureRole returns the ID of the named role, creating it if needed.
func (r *UserRepository) EnsureRole(name string) (int64, error) {
	var id int64
	err := r.db.QueryRow("SELECT id FROM roles WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up role: %w", err)
	}

	result, err := r.db.Exec("INSERT INTO roles (name) VALUES (?)", name)
	if err != nil {
		r.logger.Error("Failed to create role", zap.String("name", name), zap.Error(err))
		return 0, fmt.Errorf("failed to create role: %w", err)
	}

	return result.LastInsertId()
}
