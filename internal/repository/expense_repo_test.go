package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/models"
	"github.com/peoplehub/hrops/pkg/database"
)

func createExpense(t *testing.T, db *database.DB, repo *ExpenseRepository, userID int64, status string, total float64) *ExpenseWithReport {
	t.Helper()

	var expenseID int64
	err := db.WithTx(func(tx *sql.Tx) error {
		report := &models.Report{
			UserID:     userID,
			ReportType: models.ReportTypeExpense,
			StartDate:  time.Now().AddDate(0, 0, -7),
			EndDate:    time.Now(),
			Format:     "json",
		}
		if err := repo.CreateReport(tx, report); err != nil {
			return err
		}

		expense := &models.ExpenseReport{
			ReportID: report.ID,
			Items:    `[{"category":"Food","amount":20,"description":"lunch"}]`,
			Total:    total,
			Status:   status,
		}
		if err := repo.CreateExpense(tx, expense); err != nil {
			return err
		}
		expenseID = expense.ID
		return nil
	})
	require.NoError(t, err)

	record, err := repo.GetByID(expenseID)
	require.NoError(t, err)
	require.NotNil(t, record)
	return record
}

func TestExpenseRepository_CreateAndGet(t *testing.T) {
	db := setupDB(t)
	repo := NewExpenseRepository(db.DB, zap.NewNop())
	userID := seedUser(t, db, "Ravi", "ravi@example.com", models.RoleBDA)

	record := createExpense(t, db, repo, userID, models.ExpenseStatusPending, 20)

	assert.Equal(t, userID, record.Report.UserID)
	assert.Equal(t, models.ExpenseStatusPending, record.Expense.Status)
	assert.Equal(t, 20.0, record.Expense.Total)
	assert.Equal(t, "Ravi", record.UserName)
	assert.Nil(t, record.Report.ApprovedBy)
}

func TestExpenseRepository_GetMissingReturnsNil(t *testing.T) {
	db := setupDB(t)
	repo := NewExpenseRepository(db.DB, zap.NewNop())

	record, err := repo.GetByID(404)
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestExpenseRepository_ListFiltersAndCounts(t *testing.T) {
	db := setupDB(t)
	repo := NewExpenseRepository(db.DB, zap.NewNop())
	alice := seedUser(t, db, "Alice", "alice@example.com", models.RoleBDA)
	bob := seedUser(t, db, "Bob", "bob@example.com", models.RoleBDA)

	createExpense(t, db, repo, alice, models.ExpenseStatusPending, 100)
	createExpense(t, db, repo, alice, models.ExpenseStatusApproved, 200)
	createExpense(t, db, repo, bob, models.ExpenseStatusPending, 300)

	records, total, err := repo.List(ExpenseFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, records, 3)

	records, total, err = repo.List(ExpenseFilter{Status: models.ExpenseStatusPending}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, records, 2)

	records, total, err = repo.List(ExpenseFilter{UserID: &alice}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, record := range records {
		assert.Equal(t, alice, record.Report.UserID)
	}

	// pagination still reports the full match count
	records, total, err = repo.List(ExpenseFilter{}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, records, 2)
}

func TestExpenseRepository_ApprovalFlow(t *testing.T) {
	db := setupDB(t)
	repo := NewExpenseRepository(db.DB, zap.NewNop())
	employee := seedUser(t, db, "Eve", "eve@example.com", models.RoleBDA)
	approver := seedUser(t, db, "Mina", "mina@example.com", models.RoleHR)

	record := createExpense(t, db, repo, employee, models.ExpenseStatusPending, 50)

	now := time.Now()
	err := db.WithTx(func(tx *sql.Tx) error {
		if err := repo.UpdateStatus(tx, record.Expense.ID, models.ExpenseStatusApproved); err != nil {
			return err
		}
		return repo.SetApproval(tx, record.Report.ID, approver, models.ExpenseStatusApproved, now)
	})
	require.NoError(t, err)

	got, err := repo.GetByID(record.Expense.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.ExpenseStatusApproved, got.Expense.Status)
	require.NotNil(t, got.Report.ApprovedBy)
	assert.Equal(t, approver, *got.Report.ApprovedBy)
	assert.Equal(t, "Mina", got.ApproverName)
	require.NotNil(t, got.Report.ApprovedAt)
}

func TestExpenseRepository_UpdateItems(t *testing.T) {
	db := setupDB(t)
	repo := NewExpenseRepository(db.DB, zap.NewNop())
	userID := seedUser(t, db, "Omar", "omar@example.com", models.RoleBDA)

	record := createExpense(t, db, repo, userID, models.ExpenseStatusDraft, 20)

	items := `[{"category":"Travel","amount":450,"description":"train"}]`
	require.NoError(t, repo.UpdateItems(nil, record.Expense.ID, items, 450))

	got, err := repo.GetByID(record.Expense.ID)
	require.NoError(t, err)
	assert.Equal(t, items, got.Expense.Items)
	assert.Equal(t, 450.0, got.Expense.Total)
}

func TestExpenseRepository_Delete(t *testing.T) {
	db := setupDB(t)
	repo := NewExpenseRepository(db.DB, zap.NewNop())
	userID := seedUser(t, db, "Nia", "nia@example.com", models.RoleBDA)

	record := createExpense(t, db, repo, userID, models.ExpenseStatusDraft, 20)

	err := db.WithTx(func(tx *sql.Tx) error {
		return repo.Delete(tx, record.Expense.ID, record.Report.ID)
	})
	require.NoError(t, err)

	got, err := repo.GetByID(record.Expense.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
