package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/models"
	"github.com/peoplehub/hrops/internal/repository"
)

func sampleRecords() []*repository.ExpenseWithReport {
	return []*repository.ExpenseWithReport{
		{
			Expense: models.ExpenseReport{
				Items:  `[{"category":"Food","amount":30},{"category":"Travel","amount":200}]`,
				Total:  230,
				Status: models.ExpenseStatusApproved,
			},
			Report:   models.Report{UserID: 1},
			UserName: "Alice",
		},
		{
			Expense: models.ExpenseReport{
				Items:  `[{"amount":50}]`,
				Total:  50,
				Status: models.ExpenseStatusPending,
			},
			Report:   models.Report{UserID: 2},
			UserName: "Bob",
		},
		{
			Expense: models.ExpenseReport{
				Items:  `[{"category":"Food","amount":20}]`,
				Total:  20,
				Status: models.ExpenseStatusApproved,
			},
			Report:   models.Report{UserID: 1},
			UserName: "Alice",
		},
	}
}

func TestBuildSummary(t *testing.T) {
	summary := BuildSummary(sampleRecords())

	assert.Equal(t, 3, summary.TotalCount)
	assert.Equal(t, 300.0, summary.TotalAmount)

	assert.Equal(t, 2, summary.ByStatus[models.ExpenseStatusApproved].Count)
	assert.Equal(t, 250.0, summary.ByStatus[models.ExpenseStatusApproved].Amount)
	assert.Equal(t, 1, summary.ByStatus[models.ExpenseStatusPending].Count)

	assert.Equal(t, 50.0, summary.ByCategory["Food"])
	assert.Equal(t, 200.0, summary.ByCategory["Travel"])
	// items without a category land in Other
	assert.Equal(t, 50.0, summary.ByCategory["Other"])

	assert.Equal(t, 2, summary.ByUser[1].Count)
	assert.Equal(t, "Alice", summary.ByUser[1].UserName)
}

func TestBuildSummary_BadItemBlob(t *testing.T) {
	summary := BuildSummary([]*repository.ExpenseWithReport{
		{
			Expense: models.ExpenseReport{Items: "not json", Total: 75, Status: models.ExpenseStatusDraft},
			Report:  models.Report{UserID: 1},
		},
	})

	assert.Equal(t, 1, summary.TotalCount)
	assert.Equal(t, 75.0, summary.TotalAmount)
	assert.Empty(t, summary.ByCategory)
}

func TestXLSXWriter_WriteSummary(t *testing.T) {
	writer := NewXLSXWriter(t.TempDir(), zap.NewNop())

	path, err := writer.WriteSummary(BuildSummary(sampleRecords()))
	require.NoError(t, err)
	require.FileExists(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Expense Summary", title)

	count, err := f.GetCellValue(sheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "3", count)
}
