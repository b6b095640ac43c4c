package ai

import (
	"fmt"
	"strings"

	"github.com/peoplehub/hrops/internal/models"
)

func buildPerformanceReviewPrompt(input PerformanceReviewInput) string {
	var tasks strings.Builder
	for _, task := range input.TaskRecords {
		fmt.Fprintf(&tasks, "- %s (status: %s, priority: %s)\n", task.Title, task.Status, task.Priority)
		if task.EmployeeReview != "" {
			fmt.Fprintf(&tasks, "  employee review: %s\n", task.EmployeeReview)
		}
		if task.ManagerReview != "" {
			fmt.Fprintf(&tasks, "  manager review: %s\n", task.ManagerReview)
		}
	}
	if tasks.Len() == 0 {
		tasks.WriteString("No task records available.\n")
	}

	return fmt.Sprintf(`Write a performance review for this employee.

**Employee:** %s
**Role:** %s

**Task history:**
%s
**Additional notes:**
%s

Respond with ONLY a JSON object with this exact structure:
{
  "summary": string,
  "strengths": [string array],
  "areas_to_improve": [string array],
  "rating": number between 1.0 and 5.0,
  "recommendations": [string array]
}`,
		input.EmployeeName,
		input.Role,
		tasks.String(),
		input.Notes,
	)
}

func buildInterviewQuestionsPrompt(job *models.JobPost) string {
	return fmt.Sprintf(`Generate interview questions for this position.

**Title:** %s
**Description:** %s
**Requirements:** %s

Produce exactly 3 easy, 3 medium and 10 hard questions. Respond with
ONLY a JSON object with this exact structure:
{
  "easy": [3 strings],
  "medium": [3 strings],
  "hard": [10 strings]
}`,
		job.Title,
		job.Description,
		job.Requirements,
	)
}

func buildJobDescriptionPrompt(jobTitle, extras string) string {
	return fmt.Sprintf(`Write a complete job description for the title "%s".
%s
Include responsibilities, required qualifications and preferred skills.

Respond with ONLY a JSON object: {"description": string}`,
		jobTitle,
		extrasSection(extras),
	)
}

func buildProfileEnhancementPrompt(resumeText, jobTitle string) string {
	return fmt.Sprintf(`Rewrite this candidate profile to better target the role of "%s".
Keep every claim truthful to the original text; improve structure,
wording and emphasis only.

**Original profile:**
%s

Respond with ONLY a JSON object: {"enhanced_profile": string}`,
		jobTitle,
		resumeText,
	)
}

func buildResumeScorePrompt(job *models.JobPost, resumeText string) string {
	return fmt.Sprintf(`Score this resume against the job post on a 0-100 scale.

**Job title:** %s
**Description:** %s
**Requirements:** %s

**Resume:**
%s

Respond with ONLY a JSON object with this exact structure:
{
  "score": number between 0 and 100,
  "matched_skills": [string array],
  "missing_skills": [string array],
  "reasoning": string
}`,
		job.Title,
		job.Description,
		job.Requirements,
		resumeText,
	)
}

func buildCourseRecommendationPrompt(resumeText string, courses []*models.Course) string {
	var catalog strings.Builder
	for _, course := range courses {
		fmt.Fprintf(&catalog, "- %s (%d minutes)\n", course.Title, course.DurationMins)
	}
	if catalog.Len() == 0 {
		catalog.WriteString("No courses available.\n")
	}

	return fmt.Sprintf(`Recommend courses for this candidate. Choose ONLY from the catalog
below; use the exact titles.

**Catalog:**
%s
**Candidate resume:**
%s

Respond with ONLY a JSON object:
{"course_titles": [string array], "reasoning": string}`,
		catalog.String(),
		resumeText,
	)
}

func buildChatbotPrompt(schoolID, question string) string {
	return fmt.Sprintf(`You are answering a staff question for school %s. Answer concisely
and factually. If the question cannot be answered from general HR
knowledge, say so.

**Question:** %s

Respond with ONLY a JSON object: {"answer": string}`,
		schoolID,
		question,
	)
}

func buildJobMatchPrompt(resumeText string, jobs []*models.JobPost) string {
	var postings strings.Builder
	for _, job := range jobs {
		fmt.Fprintf(&postings, "- %s: %s\n", job.Title, job.Requirements)
	}
	if postings.Len() == 0 {
		postings.WriteString("No job posts available.\n")
	}

	return fmt.Sprintf(`Rank the open positions below by fit for this candidate, best first.
Use the exact titles.

**Open positions:**
%s
**Candidate resume:**
%s

Respond with ONLY a JSON object:
{"job_titles": [string array], "reasoning": string}`,
		postings.String(),
		resumeText,
	)
}

func buildUpskillingPathPrompt(resumeText, targetRole string) string {
	return fmt.Sprintf(`Plan an upskilling path for this candidate toward the role of "%s".
Order the steps from immediate to long term.

**Candidate resume:**
%s

Respond with ONLY a JSON object with this exact structure:
{
  "steps": [string array],
  "timeline": string,
  "reasoning": string
}`,
		targetRole,
		resumeText,
	)
}

func buildTaskSummaryPrompt(task *models.Task) string {
	return fmt.Sprintf(`Summarize the outcome of this task from the two reviews below.

**Task:** %s
**Description:** %s
**Employee review:** %s
**Manager review:** %s

Respond with ONLY a JSON object with this exact structure:
{
  "summary": string,
  "rating": number between 1.0 and 5.0,
  "employee_effort": string,
  "manager_verdict": string
}`,
		task.Title,
		task.Description,
		task.EmployeeReview,
		task.ManagerReview,
	)
}

func extrasSection(extras string) string {
	if extras == "" {
		return ""
	}
	return fmt.Sprintf("\n**Additional requirements:**\n%s\n", extras)
}
