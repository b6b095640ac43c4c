package ai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/models"
)

// Generator produces HR content through the OpenAI chat-completion API.
// Every method sends one request and decodes a JSON object from the
// reply, falling back to fenced-block extraction when the model wraps
// its answer in markdown.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewGenerator creates a new generator
func NewGenerator(apiKey, model string, temperature float32, maxTokens int, logger *zap.Logger) *Generator {
	return &Generator{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// PerformanceReviewInput carries the facts a review is written from.
type PerformanceReviewInput struct {
	EmployeeName string
	Role         string
	TaskRecords  []models.Task
	Notes        string
}

// PerformanceReview is a generated review document.
type PerformanceReview struct {
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	AreasToImprove  []string `json:"areas_to_improve"`
	Rating          float64  `json:"rating"`
	Recommendations []string `json:"recommendations"`
}

// InterviewQuestions is a difficulty-graded question set.
type InterviewQuestions struct {
	Easy   []string `json:"easy"`
	Medium []string `json:"medium"`
	Hard   []string `json:"hard"`
}

// ResumeScore grades one resume against one job post.
type ResumeScore struct {
	Score     float64  `json:"score"`
	Matched   []string `json:"matched_skills"`
	Missing   []string `json:"missing_skills"`
	Reasoning string   `json:"reasoning"`
}

// CourseRecommendation names stored courses a candidate should take.
type CourseRecommendation struct {
	CourseTitles []string `json:"course_titles"`
	Reasoning    string   `json:"reasoning"`
}

// JobMatch ranks stored job posts for a resume.
type JobMatch struct {
	JobTitles []string `json:"job_titles"`
	Reasoning string   `json:"reasoning"`
}

// UpskillingPath is an ordered learning plan.
type UpskillingPath struct {
	Steps     []string `json:"steps"`
	Timeline  string   `json:"timeline"`
	Reasoning string   `json:"reasoning"`
}

// TaskSummary condenses the two task reviews into one record.
type TaskSummary struct {
	Summary        string  `json:"summary"`
	Rating         float64 `json:"rating"`
	EmployeeEffort string  `json:"employee_effort"`
	ManagerVerdict string  `json:"manager_verdict"`
}

const systemPrompt = "You are an HR operations assistant. Always respond with a single valid JSON object and nothing else."

// GeneratePerformanceReview writes a performance review from task
// history and notes.
func (g *Generator) GeneratePerformanceReview(ctx context.Context, input PerformanceReviewInput) (*PerformanceReview, error) {
	var review PerformanceReview
	if err := g.complete(ctx, buildPerformanceReviewPrompt(input), &review); err != nil {
		return nil, err
	}

	g.logger.Info("Performance review generated",
		zap.String("employee", input.EmployeeName),
		zap.Float64("rating", review.Rating))
	return &review, nil
}

// GenerateInterviewQuestions produces 3 easy, 3 medium and 10 hard
// questions for a job post.
func (g *Generator) GenerateInterviewQuestions(ctx context.Context, job *models.JobPost) (*InterviewQuestions, error) {
	var questions InterviewQuestions
	if err := g.complete(ctx, buildInterviewQuestionsPrompt(job), &questions); err != nil {
		return nil, err
	}

	g.logger.Info("Interview questions generated",
		zap.Int64("job_id", job.ID),
		zap.Int("easy", len(questions.Easy)),
		zap.Int("medium", len(questions.Medium)),
		zap.Int("hard", len(questions.Hard)))
	return &questions, nil
}

// GenerateJobDescription writes a job description for a title.
func (g *Generator) GenerateJobDescription(ctx context.Context, jobTitle, extras string) (string, error) {
	var out struct {
		Description string `json:"description"`
	}
	if err := g.complete(ctx, buildJobDescriptionPrompt(jobTitle, extras), &out); err != nil {
		return "", err
	}
	return out.Description, nil
}

// EnhanceProfile rewrites resume text toward a target job title.
func (g *Generator) EnhanceProfile(ctx context.Context, resumeText, jobTitle string) (string, error) {
	var out struct {
		EnhancedProfile string `json:"enhanced_profile"`
	}
	if err := g.complete(ctx, buildProfileEnhancementPrompt(resumeText, jobTitle), &out); err != nil {
		return "", err
	}
	return out.EnhancedProfile, nil
}

// ScoreResume grades a resume against a job post.
func (g *Generator) ScoreResume(ctx context.Context, job *models.JobPost, resumeText string) (*ResumeScore, error) {
	var score ResumeScore
	if err := g.complete(ctx, buildResumeScorePrompt(job, resumeText), &score); err != nil {
		return nil, err
	}

	g.logger.Info("Resume scored", zap.Int64("job_id", job.ID), zap.Float64("score", score.Score))
	return &score, nil
}

// RecommendCourses picks from the stored courses for a candidate.
func (g *Generator) RecommendCourses(ctx context.Context, resumeText string, courses []*models.Course) (*CourseRecommendation, error) {
	var recommendation CourseRecommendation
	if err := g.complete(ctx, buildCourseRecommendationPrompt(resumeText, courses), &recommendation); err != nil {
		return nil, err
	}
	return &recommendation, nil
}

// Chat answers a free-form question in a school's context.
func (g *Generator) Chat(ctx context.Context, schoolID, question string) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	if err := g.complete(ctx, buildChatbotPrompt(schoolID, question), &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

// MatchJobs ranks the stored job posts against a resume.
func (g *Generator) MatchJobs(ctx context.Context, resumeText string, jobs []*models.JobPost) (*JobMatch, error) {
	var match JobMatch
	if err := g.complete(ctx, buildJobMatchPrompt(resumeText, jobs), &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// GenerateUpskillingPath plans learning steps for a candidate.
func (g *Generator) GenerateUpskillingPath(ctx context.Context, resumeText, targetRole string) (*UpskillingPath, error) {
	var path UpskillingPath
	if err := g.complete(ctx, buildUpskillingPathPrompt(resumeText, targetRole), &path); err != nil {
		return nil, err
	}
	return &path, nil
}

// SummarizeTask condenses the employee and manager reviews of a task.
func (g *Generator) SummarizeTask(ctx context.Context, task *models.Task) (*TaskSummary, error) {
	var summary TaskSummary
	if err := g.complete(ctx, buildTaskSummaryPrompt(task), &summary); err != nil {
		return nil, err
	}

	g.logger.Info("Task summary generated",
		zap.Int64("task_id", task.ID),
		zap.Float64("rating", summary.Rating))
	return &summary, nil
}

// complete sends one chat completion and decodes the JSON reply into
// out.
func (g *Generator) complete(ctx context.Context, prompt string, out interface{}) error {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		g.logger.Error("OpenAI API call failed", zap.Error(err))
		return fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		// Fallback: the model sometimes wraps JSON in markdown fences
		if jsonStr := extractJSON(content); jsonStr != "" {
			if err := json.Unmarshal([]byte(jsonStr), out); err == nil {
				g.logger.Info("Extracted JSON from fenced response")
				return nil
			}
		}

		g.logger.Error("Failed to parse OpenAI response",
			zap.Error(err),
			zap.String("content", content))
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// extractJSON returns the first balanced JSON object in content, or ""
// when none exists.
func extractJSON(content string) string {
	start := -1
	for i := 0; i < len(content); i++ {
		if content[i] == '{' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	braceCount := 0
	inString := false
	escapeNext := false

	for i := start; i < len(content); i++ {
		char := content[i]

		if escapeNext {
			escapeNext = false
			continue
		}
		if char == '\\' {
			escapeNext = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if char == '{' {
			braceCount++
		} else if char == '}' {
			braceCount--
			if braceCount == 0 {
				return content[start : i+1]
			}
		}
	}

	return ""
}
