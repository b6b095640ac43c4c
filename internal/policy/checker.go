package policy

import (
	"fmt"
	"strings"

	"github.com/peoplehub/hrops/internal/config"
	"github.com/peoplehub/hrops/internal/models"
)

// Violation records one exceeded spending ceiling.
type Violation struct {
	Item     string  `json:"item,omitempty"`
	Category string  `json:"category,omitempty"`
	Type     string  `json:"type"`
	Limit    float64 `json:"limit"`
	Actual   float64 `json:"actual"`
}

// Warning records an item approaching a ceiling.
type Warning struct {
	Item    string `json:"item"`
	Message string `json:"message"`
}

// Result is the outcome of one compliance check.
type Result struct {
	Compliant      bool               `json:"is_compliant"`
	Violations     []Violation        `json:"violations"`
	Warnings       []Warning          `json:"warnings"`
	CategoryTotals map[string]float64 `json:"category_totals"`
}

// Violation type constants
const (
	ViolationPerItem = "per_item_limit"
	ViolationPerMeal = "per_meal_limit"
	ViolationPerDay  = "per_day_limit"
	ViolationTotal   = "total_limit"
)

// warnThreshold is the fraction of a per-item limit past which a
// warning is raised.
const warnThreshold = 0.8

// defaultCategory is applied to items that carry no category.
const defaultCategory = "Other"

// Checker evaluates expense items against a configured limit table.
// It holds no mutable state; the same items always yield the same
// result.
type Checker struct {
	limits map[string]config.PolicyLimit
}

// NewChecker creates a checker over the given limit table. Category
// names are matched case-insensitively.
func NewChecker(cfg config.PolicyConfig) *Checker {
	limits := make(map[string]config.PolicyLimit, len(cfg.Limits))
	for category, limit := range cfg.Limits {
		limits[strings.ToLower(category)] = limit
	}
	return &Checker{limits: limits}
}

// Check evaluates the items. Items in categories absent from the
// limit table pass unchecked but still appear in the totals.
func (c *Checker) Check(items []models.ExpenseItem) Result {
	result := Result{
		Violations:     []Violation{},
		Warnings:       []Warning{},
		CategoryTotals: make(map[string]float64),
	}

	for _, item := range items {
		category := itemCategory(item)
		result.CategoryTotals[category] += item.Amount

		limit, ok := c.limits[strings.ToLower(category)]
		if !ok {
			continue
		}

		if limit.MaxPerItem > 0 && item.Amount > limit.MaxPerItem {
			result.Violations = append(result.Violations, Violation{
				Item:   item.Description,
				Type:   ViolationPerItem,
				Limit:  limit.MaxPerItem,
				Actual: item.Amount,
			})
		}

		if limit.MaxPerMeal > 0 && item.Amount > limit.MaxPerMeal {
			result.Violations = append(result.Violations, Violation{
				Item:   item.Description,
				Type:   ViolationPerMeal,
				Limit:  limit.MaxPerMeal,
				Actual: item.Amount,
			})
		}

		if limit.MaxPerDay > 0 && item.Amount > limit.MaxPerDay {
			result.Violations = append(result.Violations, Violation{
				Item:   item.Description,
				Type:   ViolationPerDay,
				Limit:  limit.MaxPerDay,
				Actual: item.Amount,
			})
		}

		if limit.MaxPerItem > 0 && item.Amount > limit.MaxPerItem*warnThreshold {
			result.Warnings = append(result.Warnings, Warning{
				Item:    item.Description,
				Message: fmt.Sprintf("Approaching policy limit for %s", category),
			})
		}
	}

	for category, total := range result.CategoryTotals {
		limit, ok := c.limits[strings.ToLower(category)]
		if !ok || limit.MaxTotal <= 0 {
			continue
		}
		if total > limit.MaxTotal {
			result.Violations = append(result.Violations, Violation{
				Category: category,
				Type:     ViolationTotal,
				Limit:    limit.MaxTotal,
				Actual:   total,
			})
		}
	}

	result.Compliant = len(result.Violations) == 0
	return result
}

// Limits exposes the configured table for inclusion in responses.
func (c *Checker) Limits() map[string]config.PolicyLimit {
	return c.limits
}

func itemCategory(item models.ExpenseItem) string {
	if item.Category == "" {
		return defaultCategory
	}
	return item.Category
}
