package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/auth"
	"github.com/peoplehub/hrops/internal/export"
	"github.com/peoplehub/hrops/internal/models"
	"github.com/peoplehub/hrops/internal/policy"
	"github.com/peoplehub/hrops/internal/repository"
	"github.com/peoplehub/hrops/internal/storage"
	"github.com/peoplehub/hrops/internal/workflow"
	"github.com/peoplehub/hrops/pkg/database"
	"github.com/peoplehub/hrops/pkg/utils"
)

// ExpenseHandler serves the expense report lifecycle.
type ExpenseHandler struct {
	db       *database.DB
	expenses *repository.ExpenseRepository
	checker  *policy.Checker
	store    *storage.ReceiptStore
	xlsx     *export.XLSXWriter
	logger   *zap.Logger
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(
	db *database.DB,
	expenses *repository.ExpenseRepository,
	checker *policy.Checker,
	store *storage.ReceiptStore,
	xlsx *export.XLSXWriter,
	logger *zap.Logger,
) *ExpenseHandler {
	return &ExpenseHandler{
		db:       db,
		expenses: expenses,
		checker:  checker,
		store:    store,
		xlsx:     xlsx,
		logger:   logger,
	}
}

// expenseResponse flattens an expense with its report metadata.
type expenseResponse struct {
	ID          int64               `json:"id"`
	ReportID    int64               `json:"report_id"`
	UserID      int64               `json:"user_id"`
	UserName    string              `json:"user_name,omitempty"`
	Items       []models.ExpenseItem `json:"items"`
	Total       float64             `json:"total"`
	Status      string              `json:"status"`
	StartDate   time.Time           `json:"start_date"`
	EndDate     time.Time           `json:"end_date"`
	GeneratedAt time.Time           `json:"generated_at"`
	ApprovedBy  *int64              `json:"approved_by,omitempty"`
	Approver    string              `json:"approver_name,omitempty"`
	ApprovedAt  *time.Time          `json:"approved_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func toExpenseResponse(record *repository.ExpenseWithReport) expenseResponse {
	items, _ := parseItems(record.Expense.Items)
	return expenseResponse{
		ID:          record.Expense.ID,
		ReportID:    record.Report.ID,
		UserID:      record.Report.UserID,
		UserName:    record.UserName,
		Items:       items,
		Total:       record.Expense.Total,
		Status:      record.Expense.Status,
		StartDate:   record.Report.StartDate,
		EndDate:     record.Report.EndDate,
		GeneratedAt: record.Report.GeneratedAt,
		ApprovedBy:  record.Report.ApprovedBy,
		Approver:    record.ApproverName,
		ApprovedAt:  record.Report.ApprovedAt,
		CreatedAt:   record.Expense.CreatedAt,
		UpdatedAt:   record.Expense.UpdatedAt,
	}
}

// Submit handles POST /api/expenses/submit (multipart).
// Items arrive either as a JSON array in the "items" field or as
// single-item form fields. An optional receipt file is attached to the
// first item.
func (h *ExpenseHandler) Submit(c *gin.Context) {
	userID := auth.UserIDFrom(c)

	items, err := h.itemsFromForm(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	total := 0.0
	for _, item := range items {
		if err := utils.ValidateAmount(item.Amount); err != nil {
			respondError(c, http.StatusBadRequest, "Every item amount must be greater than zero")
			return
		}
		total += item.Amount
	}

	status := c.PostForm("status")
	switch status {
	case "":
		status = models.ExpenseStatusPending
	case models.ExpenseStatusDraft, models.ExpenseStatusPending:
	default:
		respondError(c, http.StatusBadRequest, "Status must be draft or pending")
		return
	}

	if file, err := c.FormFile("receipt"); err == nil {
		name, err := h.store.SaveUpload(file)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		items[0].ReceiptURL = name
	}

	startDate := formDate(c, "start_date", time.Now())
	endDate := formDate(c, "end_date", time.Now())

	itemsJSON, err := marshalItems(items)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to encode items")
		return
	}

	var expenseID int64
	err = h.db.WithTx(func(tx *sql.Tx) error {
		report := &models.Report{
			UserID:     userID,
			ReportType: models.ReportTypeExpense,
			StartDate:  startDate,
			EndDate:    endDate,
			Format:     "json",
		}
		if err := h.expenses.CreateReport(tx, report); err != nil {
			return err
		}

		expense := &models.ExpenseReport{
			ReportID: report.ID,
			Items:    itemsJSON,
			Total:    total,
			Status:   status,
		}
		if err := h.expenses.CreateExpense(tx, expense); err != nil {
			return err
		}
		expenseID = expense.ID
		return nil
	})
	if err != nil {
		h.logger.Error("Failed to submit expense", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to submit expense")
		return
	}

	record, err := h.expenses.GetByID(expenseID)
	if err != nil || record == nil {
		respondError(c, http.StatusInternalServerError, "Failed to load submitted expense")
		return
	}

	respondCreated(c, toExpenseResponse(record))
}

// List handles GET /api/expenses
func (h *ExpenseHandler) List(c *gin.Context) {
	filter := repository.ExpenseFilter{Status: c.Query("status")}

	if auth.RoleFrom(c) == models.RoleBDA {
		userID := auth.UserIDFrom(c)
		filter.UserID = &userID
	}

	if start := c.Query("start_date"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			respondError(c, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartDate = &t
	}
	if end := c.Query("end_date"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			respondError(c, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		// inclusive through the end of the day
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &t
	}

	page, limit := paginationParams(c)

	records, count, err := h.expenses.List(filter, limit, (page-1)*limit)
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list expenses")
		return
	}

	responses := make([]expenseResponse, 0, len(records))
	category := strings.ToLower(c.Query("category"))
	for _, record := range records {
		response := toExpenseResponse(record)
		if category != "" && !hasCategory(response.Items, category) {
			continue
		}
		responses = append(responses, response)
	}

	respondOK(c, gin.H{
		"expenses":    responses,
		"page":        page,
		"limit":       limit,
		"total_count": count,
		"total_pages": totalPages(count, limit),
	})
}

// Get handles GET /api/expenses/:id
func (h *ExpenseHandler) Get(c *gin.Context) {
	record, ok := h.loadExpense(c)
	if !ok {
		return
	}
	respondOK(c, toExpenseResponse(record))
}

type approveRequest struct {
	Comments string `json:"comments"`
}

// Approve handles PUT /api/expenses/:id/approve
func (h *ExpenseHandler) Approve(c *gin.Context) {
	record, ok := h.loadExpense(c)
	if !ok {
		return
	}

	next, err := workflow.Transition(c.Request.Context(), record.Expense.Status, workflow.TriggerApprove)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Cannot approve an expense in status %q", record.Expense.Status))
		return
	}

	var req approveRequest
	_ = c.ShouldBindJSON(&req)

	items, err := parseItems(record.Expense.Items)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Stored items are corrupted")
		return
	}
	if req.Comments != "" {
		for i := range items {
			items[i].ApprovalComments = req.Comments
		}
	}
	itemsJSON, err := marshalItems(items)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to encode items")
		return
	}

	approverID := auth.UserIDFrom(c)
	err = h.db.WithTx(func(tx *sql.Tx) error {
		if err := h.expenses.UpdateItems(tx, record.Expense.ID, itemsJSON, record.Expense.Total); err != nil {
			return err
		}
		if err := h.expenses.UpdateStatus(tx, record.Expense.ID, next); err != nil {
			return err
		}
		return h.expenses.SetApproval(tx, record.Report.ID, approverID, next, time.Now())
	})
	if err != nil {
		h.logger.Error("Failed to approve expense", zap.Int64("id", record.Expense.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to approve expense")
		return
	}

	updated, err := h.expenses.GetByID(record.Expense.ID)
	if err != nil || updated == nil {
		respondError(c, http.StatusInternalServerError, "Failed to load expense")
		return
	}
	respondOK(c, toExpenseResponse(updated))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles PUT /api/expenses/:id/reject
func (h *ExpenseHandler) Reject(c *gin.Context) {
	record, ok := h.loadExpense(c)
	if !ok {
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		respondError(c, http.StatusBadRequest, "A rejection reason is required")
		return
	}

	next, err := workflow.Transition(c.Request.Context(), record.Expense.Status, workflow.TriggerReject)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Cannot reject an expense in status %q", record.Expense.Status))
		return
	}

	items, err := parseItems(record.Expense.Items)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Stored items are corrupted")
		return
	}
	for i := range items {
		items[i].RejectionReason = req.Reason
	}
	itemsJSON, err := marshalItems(items)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to encode items")
		return
	}

	approverID := auth.UserIDFrom(c)
	err = h.db.WithTx(func(tx *sql.Tx) error {
		if err := h.expenses.UpdateItems(tx, record.Expense.ID, itemsJSON, record.Expense.Total); err != nil {
			return err
		}
		if err := h.expenses.UpdateStatus(tx, record.Expense.ID, next); err != nil {
			return err
		}
		return h.expenses.SetApproval(tx, record.Report.ID, approverID, next, time.Now())
	})
	if err != nil {
		h.logger.Error("Failed to reject expense", zap.Int64("id", record.Expense.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to reject expense")
		return
	}

	updated, err := h.expenses.GetByID(record.Expense.ID)
	if err != nil || updated == nil {
		respondError(c, http.StatusInternalServerError, "Failed to load expense")
		return
	}
	respondOK(c, toExpenseResponse(updated))
}

// Pending handles GET /api/expenses/pending
func (h *ExpenseHandler) Pending(c *gin.Context) {
	page, limit := paginationParams(c)

	records, count, err := h.expenses.List(repository.ExpenseFilter{Status: models.ExpenseStatusPending}, limit, (page-1)*limit)
	if err != nil {
		h.logger.Error("Failed to list pending expenses", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to list pending expenses")
		return
	}

	responses := make([]expenseResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, toExpenseResponse(record))
	}

	respondOK(c, gin.H{
		"expenses":    responses,
		"page":        page,
		"limit":       limit,
		"total_count": count,
		"total_pages": totalPages(count, limit),
	})
}

// Summary handles GET /api/expenses/reports
func (h *ExpenseHandler) Summary(c *gin.Context) {
	records, err := h.summaryRecords(c)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to aggregate expenses")
		return
	}
	respondOK(c, export.BuildSummary(records))
}

// SummaryExport handles GET /api/expenses/reports/export
func (h *ExpenseHandler) SummaryExport(c *gin.Context) {
	records, err := h.summaryRecords(c)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to aggregate expenses")
		return
	}

	path, err := h.xlsx.WriteSummary(export.BuildSummary(records))
	if err != nil {
		h.logger.Error("Failed to export summary", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to export summary")
		return
	}

	respondOK(c, gin.H{"file": path})
}

func (h *ExpenseHandler) summaryRecords(c *gin.Context) ([]*repository.ExpenseWithReport, error) {
	filter := repository.ExpenseFilter{}
	if auth.RoleFrom(c) == models.RoleBDA {
		userID := auth.UserIDFrom(c)
		filter.UserID = &userID
	}

	records, err := h.expenses.ListAll(filter)
	if err != nil {
		h.logger.Error("Failed to list expenses for summary", zap.Error(err))
		return nil, err
	}
	return records, nil
}

// aiVerifyResult is the placeholder per-item verification payload
// returned until receipt OCR is wired in.
type aiVerifyResult struct {
	Item     string  `json:"item"`
	Category string  `json:"category"`
	Verified bool    `json:"verified"`
	Score    float64 `json:"score"`
	Notes    string  `json:"notes"`
}

// AIVerify handles POST /api/expenses/:id/ai-verify
func (h *ExpenseHandler) AIVerify(c *gin.Context) {
	record, ok := h.loadExpense(c)
	if !ok {
		return
	}

	items, err := parseItems(record.Expense.Items)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Stored items are corrupted")
		return
	}

	results := make([]aiVerifyResult, 0, len(items))
	for _, item := range items {
		results = append(results, aiVerifyResult{
			Item:     item.Description,
			Category: item.Category,
			Verified: true,
			Score:    1.0,
			Notes:    "Automated receipt verification is not yet enabled",
		})
	}

	respondOK(c, gin.H{
		"expense_id": record.Expense.ID,
		"results":    results,
	})
}

// PolicyCheck handles GET /api/expenses/:id/policy-check
func (h *ExpenseHandler) PolicyCheck(c *gin.Context) {
	record, ok := h.loadExpense(c)
	if !ok {
		return
	}

	items, err := parseItems(record.Expense.Items)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Stored items are corrupted")
		return
	}

	result := h.checker.Check(items)
	respondOK(c, gin.H{
		"expense_id":      record.Expense.ID,
		"is_compliant":    result.Compliant,
		"violations":      result.Violations,
		"warnings":        result.Warnings,
		"category_totals": result.CategoryTotals,
		"limits":          h.checker.Limits(),
	})
}

type updateExpenseRequest struct {
	Items  []models.ExpenseItem `json:"items"`
	Total  *float64             `json:"total"`
	Status string               `json:"status"`
}

// Update handles PUT /api/expenses/:id
func (h *ExpenseHandler) Update(c *gin.Context) {
	record, ok := h.loadExpense(c)
	if !ok {
		return
	}

	if workflow.State(record.Expense.Status).IsTerminal() {
		respondError(c, http.StatusBadRequest, "Approved or rejected expenses cannot be updated")
		return
	}

	var req updateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Status != "" && req.Status != models.ExpenseStatusDraft && req.Status != models.ExpenseStatusPending {
		respondError(c, http.StatusBadRequest, "Status may only be set to draft or pending")
		return
	}

	itemsJSON := record.Expense.Items
	total := record.Expense.Total
	if req.Items != nil {
		total = 0
		for _, item := range req.Items {
			if err := utils.ValidateAmount(item.Amount); err != nil {
				respondError(c, http.StatusBadRequest, "Every item amount must be greater than zero")
				return
			}
			total += item.Amount
		}
		encoded, err := marshalItems(req.Items)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to encode items")
			return
		}
		itemsJSON = encoded
	}
	if req.Total != nil {
		total = *req.Total
	}

	err := h.db.WithTx(func(tx *sql.Tx) error {
		if err := h.expenses.UpdateItems(tx, record.Expense.ID, itemsJSON, total); err != nil {
			return err
		}
		if req.Status != "" {
			return h.expenses.UpdateStatus(tx, record.Expense.ID, req.Status)
		}
		return nil
	})
	if err != nil {
		h.logger.Error("Failed to update expense", zap.Int64("id", record.Expense.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to update expense")
		return
	}

	updated, err := h.expenses.GetByID(record.Expense.ID)
	if err != nil || updated == nil {
		respondError(c, http.StatusInternalServerError, "Failed to load expense")
		return
	}
	respondOK(c, toExpenseResponse(updated))
}

// Delete handles DELETE /api/expenses/:id
func (h *ExpenseHandler) Delete(c *gin.Context) {
	record, ok := h.loadExpense(c)
	if !ok {
		return
	}

	if record.Expense.Status != models.ExpenseStatusDraft {
		respondError(c, http.StatusBadRequest, "Only draft expenses can be deleted")
		return
	}

	items, _ := parseItems(record.Expense.Items)

	err := h.db.WithTx(func(tx *sql.Tx) error {
		return h.expenses.Delete(tx, record.Expense.ID, record.Report.ID)
	})
	if err != nil {
		h.logger.Error("Failed to delete expense", zap.Int64("id", record.Expense.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to delete expense")
		return
	}

	// receipt files go after the rows so a failed delete leaves them
	// reachable
	for _, item := range items {
		if item.ReceiptURL == "" {
			continue
		}
		if err := h.store.Delete(item.ReceiptURL); err != nil {
			h.logger.Warn("Failed to remove receipt file",
				zap.String("name", item.ReceiptURL),
				zap.Error(err))
		}
	}

	respondOK(c, gin.H{"deleted": record.Expense.ID})
}

// loadExpense parses the :id parameter and loads the record, handling
// 400/403/404 responses itself.
func (h *ExpenseHandler) loadExpense(c *gin.Context) (*repository.ExpenseWithReport, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid expense ID")
		return nil, false
	}

	record, err := h.expenses.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to load expense", zap.Int64("id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load expense")
		return nil, false
	}
	if record == nil {
		respondError(c, http.StatusNotFound, "Expense not found")
		return nil, false
	}

	if auth.RoleFrom(c) == models.RoleBDA && record.Report.UserID != auth.UserIDFrom(c) {
		respondError(c, http.StatusForbidden, "Not your expense report")
		return nil, false
	}

	return record, true
}

// itemsFromForm decodes the submitted items, either a JSON array in
// the "items" field or a single item spread over form fields.
func (h *ExpenseHandler) itemsFromForm(c *gin.Context) ([]models.ExpenseItem, error) {
	if raw := c.PostForm("items"); raw != "" {
		var items []models.ExpenseItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("items must be a JSON array")
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("at least one item is required")
		}
		return items, nil
	}

	amountStr := c.PostForm("amount")
	if amountStr == "" {
		return nil, fmt.Errorf("at least one item is required")
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		return nil, fmt.Errorf("amount must be a number")
	}

	return []models.ExpenseItem{{
		Category:    c.PostForm("category"),
		Amount:      amount,
		Description: c.PostForm("description"),
		ExpenseDate: c.PostForm("expense_date"),
	}}, nil
}

func formDate(c *gin.Context, key string, fallback time.Time) time.Time {
	if value := c.PostForm(key); value != "" {
		if t, err := time.Parse("2006-01-02", value); err == nil {
			return t
		}
	}
	return fallback
}

func parseItems(blob string) ([]models.ExpenseItem, error) {
	var items []models.ExpenseItem
	if blob == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}
	return items, nil
}

func marshalItems(items []models.ExpenseItem) (string, error) {
	encoded, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode items: %w", err)
	}
	return string(encoded), nil
}

func hasCategory(items []models.ExpenseItem, category string) bool {
	for _, item := range items {
		if strings.ToLower(item.Category) == category {
			return true
		}
	}
	return false
}
