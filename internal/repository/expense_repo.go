package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/models"
)

// ExpenseRepository handles expense report and parent report database
// operations
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// ExpenseWithReport joins an expense report with its parent report and
// the names resolved for responses.
type ExpenseWithReport struct {
	Expense        models.ExpenseReport
	Report         models.Report
	UserName       string
	ApproverName   string
}

// ExpenseFilter narrows expense listings.
type ExpenseFilter struct {
	UserID    *int64
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

// CreateReport creates the parent report record
func (r *ExpenseRepository) CreateReport(tx *sql.Tx, report *models.Report) error {
	query := `
		INSERT INTO reports (user_id, report_type, start_date, end_date, format)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := execer(tx, r.db).Exec(query,
		report.UserID,
		report.ReportType,
		report.StartDate,
		report.EndDate,
		report.Format,
	)
	if err != nil {
		r.logger.Error("Failed to create report", zap.Error(err))
		return fmt.Errorf("failed to create report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	report.ID = id
	return nil
}

// CreateExpense creates the expense report record
func (r *ExpenseRepository) CreateExpense(tx *sql.Tx, expense *models.ExpenseReport) error {
	query := `
		INSERT INTO expense_reports (report_id, items, total, status)
		VALUES (?, ?, ?, ?)
	`

	result, err := execer(tx, r.db).Exec(query,
		expense.ReportID,
		expense.Items,
		expense.Total,
		expense.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	expense.ID = id
	return nil
}

// GetByID retrieves an expense joined with its parent report. Returns
// nil when no row exists.
func (r *ExpenseRepository) GetByID(id int64) (*ExpenseWithReport, error) {
	query := `
		SELECT e.id, e.report_id, e.items, e.total, e.status, e.created_at, e.updated_at,
			rp.id, rp.user_id, rp.report_type, rp.start_date, rp.end_date, rp.format,
			rp.generated_at, rp.approved_by, rp.approval_status, rp.approved_at,
			COALESCE(u.name, ''), COALESCE(a.name, '')
		FROM expense_reports e
		JOIN reports rp ON rp.id = e.report_id
		LEFT JOIN users u ON u.id = rp.user_id
		LEFT JOIN users a ON a.id = rp.approved_by
		WHERE e.id = ?
	`

	row := r.db.QueryRow(query, id)
	record, err := scanExpenseWithReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return record, nil
}

// List retrieves expenses matching the filter, newest first, with
// offset pagination. Also returns the total match count.
func (r *ExpenseRepository) List(filter ExpenseFilter, limit, offset int) ([]*ExpenseWithReport, int, error) {
	where, args := buildExpenseWhere(filter)

	countQuery := `
		SELECT COUNT(*)
		FROM expense_reports e
		JOIN reports rp ON rp.id = e.report_id
	` + where

	var total int
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count expenses", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := `
		SELECT e.id, e.report_id, e.items, e.total, e.status, e.created_at, e.updated_at,
			rp.id, rp.user_id, rp.report_type, rp.start_date, rp.end_date, rp.format,
			rp.generated_at, rp.approved_by, rp.approval_status, rp.approved_at,
			COALESCE(u.name, ''), COALESCE(a.name, '')
		FROM expense_reports e
		JOIN reports rp ON rp.id = e.report_id
		LEFT JOIN users u ON u.id = rp.user_id
		LEFT JOIN users a ON a.id = rp.approved_by
	` + where + `
		ORDER BY rp.generated_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Query(query, append(args, limit, offset)...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var records []*ExpenseWithReport
	for rows.Next() {
		record, err := scanExpenseWithReport(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		records = append(records, record)
	}

	return records, total, rows.Err()
}

// ListAll retrieves every expense matching the filter, for summary
// aggregation.
func (r *ExpenseRepository) ListAll(filter ExpenseFilter) ([]*ExpenseWithReport, error) {
	where, args := buildExpenseWhere(filter)

	query := `
		SELECT e.id, e.report_id, e.items, e.total, e.status, e.created_at, e.updated_at,
			rp.id, rp.user_id, rp.report_type, rp.start_date, rp.end_date, rp.format,
			rp.generated_at, rp.approved_by, rp.approval_status, rp.approved_at,
			COALESCE(u.name, ''), COALESCE(a.name, '')
		FROM expense_reports e
		JOIN reports rp ON rp.id = e.report_id
		LEFT JOIN users u ON u.id = rp.user_id
		LEFT JOIN users a ON a.id = rp.approved_by
	` + where + `
		ORDER BY rp.generated_at DESC
	`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var records []*ExpenseWithReport
	for rows.Next() {
		record, err := scanExpenseWithReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// UpdateStatus updates only the expense status
func (r *ExpenseRepository) UpdateStatus(tx *sql.Tx, id int64, status string) error {
	query := `UPDATE expense_reports SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	if _, err := execer(tx, r.db).Exec(query, status, id); err != nil {
		r.logger.Error("Failed to update expense status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update status: %w", err)
	}

	return nil
}

// UpdateItems replaces the item blob and total
func (r *ExpenseRepository) UpdateItems(tx *sql.Tx, id int64, items string, total float64) error {
	query := `UPDATE expense_reports SET items = ?, total = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	if _, err := execer(tx, r.db).Exec(query, items, total, id); err != nil {
		r.logger.Error("Failed to update expense items", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update items: %w", err)
	}

	return nil
}

// SetApproval stamps the approver and decision on the parent report
func (r *ExpenseRepository) SetApproval(tx *sql.Tx, reportID, approverID int64, status string, at time.Time) error {
	query := `UPDATE reports SET approved_by = ?, approval_status = ?, approved_at = ? WHERE id = ?`

	if _, err := execer(tx, r.db).Exec(query, approverID, status, at, reportID); err != nil {
		r.logger.Error("Failed to set approval", zap.Int64("report_id", reportID), zap.Error(err))
		return fmt.Errorf("failed to set approval: %w", err)
	}

	return nil
}

// Delete removes the expense and its parent report
func (r *ExpenseRepository) Delete(tx *sql.Tx, expenseID, reportID int64) error {
	if _, err := execer(tx, r.db).Exec("DELETE FROM expense_reports WHERE id = ?", expenseID); err != nil {
		r.logger.Error("Failed to delete expense", zap.Int64("id", expenseID), zap.Error(err))
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if _, err := execer(tx, r.db).Exec("DELETE FROM reports WHERE id = ?", reportID); err != nil {
		r.logger.Error("Failed to delete report", zap.Int64("id", reportID), zap.Error(err))
		return fmt.Errorf("failed to delete report: %w", err)
	}

	return nil
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExpenseWithReport(s scanner) (*ExpenseWithReport, error) {
	var record ExpenseWithReport
	var approvedBy sql.NullInt64
	var approvedAt sql.NullTime

	err := s.Scan(
		&record.Expense.ID,
		&record.Expense.ReportID,
		&record.Expense.Items,
		&record.Expense.Total,
		&record.Expense.Status,
		&record.Expense.CreatedAt,
		&record.Expense.UpdatedAt,
		&record.Report.ID,
		&record.Report.UserID,
		&record.Report.ReportType,
		&record.Report.StartDate,
		&record.Report.EndDate,
		&record.Report.Format,
		&record.Report.GeneratedAt,
		&approvedBy,
		&record.Report.ApprovalStatus,
		&approvedAt,
		&record.UserName,
		&record.ApproverName,
	)
	if err != nil {
		return nil, err
	}

	if approvedBy.Valid {
		record.Report.ApprovedBy = &approvedBy.Int64
	}
	if approvedAt.Valid {
		record.Report.ApprovedAt = &approvedAt.Time
	}

	return &record, nil
}

func buildExpenseWhere(filter ExpenseFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.UserID != nil {
		clauses = append(clauses, "rp.user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "e.status = ?")
		args = append(args, filter.Status)
	}
	if filter.StartDate != nil {
		clauses = append(clauses, "rp.generated_at >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		clauses = append(clauses, "rp.generated_at <= ?")
		args = append(args, *filter.EndDate)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// execer lets writes run on either a transaction or the pool
type sqlExecer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func execer(tx *sql.Tx, db *sql.DB) sqlExecer {
	if tx != nil {
		return tx
	}
	return db
}
