package ai

import (
	"strings"
	"testing"

	"github.com/peoplehub/hrops/internal/models"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "plain object",
			content:  `{"score": 80}`,
			expected: `{"score": 80}`,
		},
		{
			name:     "fenced markdown",
			content:  "```json\n{\"score\": 80}\n```",
			expected: `{"score": 80}`,
		},
		{
			name:     "prose around object",
			content:  `Here is the result: {"a": 1} hope it helps`,
			expected: `{"a": 1}`,
		},
		{
			name:     "nested objects",
			content:  `{"outer": {"inner": 1}}`,
			expected: `{"outer": {"inner": 1}}`,
		},
		{
			name:     "braces inside strings",
			content:  `{"text": "a } b { c"}`,
			expected: `{"text": "a } b { c"}`,
		},
		{
			name:     "escaped quotes",
			content:  `{"text": "say \"hi\""}`,
			expected: `{"text": "say \"hi\""}`,
		},
		{
			name:     "no object",
			content:  "sorry, cannot comply",
			expected: "",
		},
		{
			name:     "unbalanced",
			content:  `{"a": 1`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.content); got != tt.expected {
				t.Errorf("extractJSON() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildInterviewQuestionsPrompt(t *testing.T) {
	job := &models.JobPost{
		Title:        "Backend Engineer",
		Description:  "Build services",
		Requirements: "Go, SQL",
	}

	prompt := buildInterviewQuestionsPrompt(job)

	for _, want := range []string{"Backend Engineer", "3 easy", "10 hard"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildCourseRecommendationPrompt_EmptyCatalog(t *testing.T) {
	prompt := buildCourseRecommendationPrompt("resume text", nil)

	if !strings.Contains(prompt, "No courses available") {
		t.Error("prompt should note the empty catalog")
	}
}

func TestBuildPerformanceReviewPrompt_IncludesReviews(t *testing.T) {
	prompt := buildPerformanceReviewPrompt(PerformanceReviewInput{
		EmployeeName: "Dev",
		Role:         "bda",
		TaskRecords: []models.Task{
			{Title: "Outreach", Status: models.TaskStatusReviewed, Priority: models.TaskPriorityHigh, EmployeeReview: "done early", ManagerReview: "solid"},
		},
	})

	for _, want := range []string{"Dev", "Outreach", "done early", "solid"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
