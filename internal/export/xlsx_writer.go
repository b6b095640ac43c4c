package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// XLSXWriter renders expense summaries into spreadsheet workbooks.
type XLSXWriter struct {
	outputDir string
	logger    *zap.Logger
}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter(outputDir string, logger *zap.Logger) *XLSXWriter {
	return &XLSXWriter{
		outputDir: outputDir,
		logger:    logger,
	}
}

// WriteSummary writes the summary to a timestamped workbook and
// returns its path.
func (w *XLSXWriter) WriteSummary(summary Summary) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	w.setCell(f, sheet, "A1", "Expense Summary")
	w.setCell(f, sheet, "A2", "Generated")
	w.setCell(f, sheet, "B2", time.Now().Format("2006-01-02 15:04:05"))
	w.setCell(f, sheet, "A3", "Total reports")
	w.setCell(f, sheet, "B3", summary.TotalCount)
	w.setCell(f, sheet, "A4", "Total amount")
	w.setCell(f, sheet, "B4", summary.TotalAmount)

	row := 6
	w.setCell(f, sheet, cell("A", row), "By status")
	row++
	w.setCell(f, sheet, cell("A", row), "Status")
	w.setCell(f, sheet, cell("B", row), "Count")
	w.setCell(f, sheet, cell("C", row), "Amount")
	row++
	for _, status := range sortedKeys(summary.ByStatus) {
		bucket := summary.ByStatus[status]
		w.setCell(f, sheet, cell("A", row), status)
		w.setCell(f, sheet, cell("B", row), bucket.Count)
		w.setCell(f, sheet, cell("C", row), bucket.Amount)
		row++
	}

	row++
	w.setCell(f, sheet, cell("A", row), "By category")
	row++
	w.setCell(f, sheet, cell("A", row), "Category")
	w.setCell(f, sheet, cell("B", row), "Amount")
	row++
	for _, category := range sortedKeys(summary.ByCategory) {
		w.setCell(f, sheet, cell("A", row), category)
		w.setCell(f, sheet, cell("B", row), summary.ByCategory[category])
		row++
	}

	row++
	w.setCell(f, sheet, cell("A", row), "By user")
	row++
	w.setCell(f, sheet, cell("A", row), "User")
	w.setCell(f, sheet, cell("B", row), "Count")
	w.setCell(f, sheet, cell("C", row), "Amount")
	row++
	for _, userID := range sortedUserIDs(summary.ByUser) {
		bucket := summary.ByUser[userID]
		name := bucket.UserName
		if name == "" {
			name = fmt.Sprintf("user %d", userID)
		}
		w.setCell(f, sheet, cell("A", row), name)
		w.setCell(f, sheet, cell("B", row), bucket.Count)
		w.setCell(f, sheet, cell("C", row), bucket.Amount)
		row++
	}

	path := filepath.Join(w.outputDir, fmt.Sprintf("expense_summary_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		w.logger.Error("Failed to save workbook", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Expense summary exported", zap.String("path", path))
	return path, nil
}

func (w *XLSXWriter) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func cell(column string, row int) string {
	return fmt.Sprintf("%s%d", column, row)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedUserIDs(m map[int64]UserBucket) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
