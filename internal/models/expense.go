package models

import "time"

// Report is the parent record grouping a generated artifact with
// ownership and approval metadata.
type Report struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	ReportType     string     `json:"report_type"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	Format         string     `json:"format"`
	GeneratedAt    time.Time  `json:"generated_at"`
	ApprovedBy     *int64     `json:"approved_by,omitempty"`
	ApprovalStatus string     `json:"approval_status,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
}

// ExpenseReport holds the line items and aggregate total of one
// expense submission. Items are stored as a JSON blob.
type ExpenseReport struct {
	ID        int64     `json:"id"`
	ReportID  int64     `json:"report_id"`
	Items     string    `json:"items"` // JSON blob
	Total     float64   `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExpenseItem is a single line item of an expense report.
type ExpenseItem struct {
	Category         string  `json:"category"`
	Amount           float64 `json:"amount"`
	Description      string  `json:"description"`
	ExpenseDate      string  `json:"expense_date,omitempty"`
	ReceiptURL       string  `json:"receipt_url,omitempty"`
	ApprovalComments string  `json:"approval_comments,omitempty"`
	RejectionReason  string  `json:"rejection_reason,omitempty"`
}

// Expense status constants
const (
	ExpenseStatusDraft    = "draft"
	ExpenseStatusPending  = "pending"
	ExpenseStatusApproved = "approved"
	ExpenseStatusRejected = "rejected"
)

// Report type constants
const (
	ReportTypeExpense = "expense"
)
