package export

import (
	"encoding/json"

	"github.com/peoplehub/hrops/internal/models"
	"github.com/peoplehub/hrops/internal/repository"
)

// StatusBucket aggregates expenses sharing one status.
type StatusBucket struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// UserBucket aggregates one submitter's expenses.
type UserBucket struct {
	UserName string  `json:"user_name"`
	Count    int     `json:"count"`
	Amount   float64 `json:"amount"`
}

// Summary is the expense aggregation served as JSON and exported to
// xlsx.
type Summary struct {
	TotalCount  int                     `json:"total_count"`
	TotalAmount float64                 `json:"total_amount"`
	ByStatus    map[string]StatusBucket `json:"by_status"`
	ByCategory  map[string]float64      `json:"by_category"`
	ByUser      map[int64]UserBucket    `json:"by_user"`
}

// BuildSummary aggregates expense records by status, item category and
// submitter. Item blobs that fail to parse count toward the totals but
// not the category breakdown.
func BuildSummary(records []*repository.ExpenseWithReport) Summary {
	summary := Summary{
		ByStatus:   make(map[string]StatusBucket),
		ByCategory: make(map[string]float64),
		ByUser:     make(map[int64]UserBucket),
	}

	for _, record := range records {
		summary.TotalCount++
		summary.TotalAmount += record.Expense.Total

		bucket := summary.ByStatus[record.Expense.Status]
		bucket.Count++
		bucket.Amount += record.Expense.Total
		summary.ByStatus[record.Expense.Status] = bucket

		user := summary.ByUser[record.Report.UserID]
		user.UserName = record.UserName
		user.Count++
		user.Amount += record.Expense.Total
		summary.ByUser[record.Report.UserID] = user

		var items []models.ExpenseItem
		if err := json.Unmarshal([]byte(record.Expense.Items), &items); err != nil {
			continue
		}
		for _, item := range items {
			category := item.Category
			if category == "" {
				category = "Other"
			}
			summary.ByCategory[category] += item.Amount
		}
	}

	return summary
}
