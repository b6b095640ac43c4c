package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/ai"
	"github.com/peoplehub/hrops/internal/auth"
	"github.com/peoplehub/hrops/internal/config"
	"github.com/peoplehub/hrops/internal/export"
	"github.com/peoplehub/hrops/internal/models"
	"github.com/peoplehub/hrops/internal/policy"
	"github.com/peoplehub/hrops/internal/repository"
	"github.com/peoplehub/hrops/internal/storage"
	"github.com/peoplehub/hrops/pkg/database"
)

// stubGenerator satisfies ContentGenerator and TaskSummarizer with
// canned responses. Set err to force adapter failures.
type stubGenerator struct {
	err error
}

func (s *stubGenerator) GeneratePerformanceReview(_ context.Context, _ ai.PerformanceReviewInput) (*ai.PerformanceReview, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ai.PerformanceReview{
		Summary:   "Consistent delivery across the review period",
		Strengths: []string{"ownership"},
		Rating:    4.2,
	}, nil
}

func (s *stubGenerator) GenerateInterviewQuestions(_ context.Context, _ *models.JobPost) (*ai.InterviewQuestions, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ai.InterviewQuestions{
		Easy:   []string{"q1", "q2", "q3"},
		Medium: []string{"q4", "q5", "q6"},
		Hard:   []string{"q7", "q8", "q9", "q10", "q11", "q12", "q13", "q14", "q15", "q16"},
	}, nil
}

func (s *stubGenerator) GenerateJobDescription(_ context.Context, jobTitle, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "JD for " + jobTitle, nil
}

func (s *stubGenerator) EnhanceProfile(_ context.Context, _, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "enhanced profile", nil
}

func (s *stubGenerator) ScoreResume(_ context.Context, _ *models.JobPost, _ string) (*ai.ResumeScore, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ai.ResumeScore{Score: 72, Matched: []string{"go"}}, nil
}

func (s *stubGenerator) RecommendCourses(_ context.Context, _ string, _ []*models.Course) (*ai.CourseRecommendation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ai.CourseRecommendation{CourseTitles: []string{"Distributed Systems"}}, nil
}

func (s *stubGenerator) Chat(_ context.Context, _, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "answer", nil
}

func (s *stubGenerator) MatchJobs(_ context.Context, _ string, _ []*models.JobPost) (*ai.JobMatch, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ai.JobMatch{JobTitles: []string{"Backend Engineer"}}, nil
}

func (s *stubGenerator) GenerateUpskillingPath(_ context.Context, _, _ string) (*ai.UpskillingPath, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ai.UpskillingPath{Steps: []string{"learn sql"}, Timeline: "3 months"}, nil
}

func (s *stubGenerator) SummarizeTask(_ context.Context, _ *models.Task) (*ai.TaskSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ai.TaskSummary{Summary: "done well", Rating: 4.5}, nil
}

var errStub = errors.New("adapter unavailable")

// testEnv wires the full router against a temp sqlite database.
type testEnv struct {
	db         *database.DB
	router     *gin.Engine
	authSvc    *auth.Service
	users      *repository.UserRepository
	expenses   *repository.ExpenseRepository
	tasks      *repository.TaskRepository
	reviews    *repository.ReviewRepository
	trainings  *repository.TrainingRepository
	tests      *repository.TestRepository
	interviews *repository.InterviewRepository
	recruiting *repository.RecruitingRepository
	gen        *stubGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).Run())

	env := &testEnv{
		db:         db,
		authSvc:    auth.NewService("test-secret", time.Hour),
		users:      repository.NewUserRepository(db.DB, logger),
		expenses:   repository.NewExpenseRepository(db.DB, logger),
		tasks:      repository.NewTaskRepository(db.DB, logger),
		reviews:    repository.NewReviewRepository(db.DB, logger),
		trainings:  repository.NewTrainingRepository(db.DB, logger),
		tests:      repository.NewTestRepository(db.DB, logger),
		interviews: repository.NewInterviewRepository(db.DB, logger),
		recruiting: repository.NewRecruitingRepository(db.DB, logger),
		gen:        &stubGenerator{},
	}

	checker := policy.NewChecker(config.PolicyConfig{
		Limits: map[string]config.PolicyLimit{
			"travel":   {MaxPerDay: 500, MaxTotal: 5000},
			"food":     {MaxPerMeal: 50, MaxPerDay: 150},
			"supplies": {MaxPerItem: 200, MaxTotal: 1000},
			"other":    {MaxPerItem: 100, MaxTotal: 500},
		},
	})
	store := storage.NewReceiptStore(t.TempDir(), []string{"pdf", "png", "jpg", "jpeg", "gif"}, 5<<20, logger)
	xlsx := export.NewXLSXWriter(t.TempDir(), logger)

	server := NewServer(
		config.ServerConfig{},
		env.authSvc,
		env.users,
		NewAuthHandler(env.authSvc, env.users, logger),
		NewExpenseHandler(db, env.expenses, checker, store, xlsx, logger),
		NewTaskHandler(db, env.tasks, env.users, env.reviews, env.gen, logger),
		NewTrainingHandler(db, env.trainings, logger),
		NewAIHandler(env.gen, env.users, env.tasks, env.reviews, env.recruiting, env.trainings, logger),
		NewTestHandler(db, env.tests, env.interviews, env.recruiting, env.users, logger),
		logger,
	)
	env.router = server.Router()

	return env
}

func (e *testEnv) newUser(t *testing.T, name, email, role string) int64 {
	t.Helper()
	roleID, err := e.users.EnsureRole(role)
	require.NoError(t, err)
	hash, err := e.authSvc.HashPassword("password123")
	require.NoError(t, err)
	user := &models.User{Name: name, Email: email, PasswordHash: hash, RoleID: roleID}
	require.NoError(t, e.users.Create(nil, user))
	return user.ID
}

func (e *testEnv) token(t *testing.T, userID int64) string {
	t.Helper()
	token, err := e.authSvc.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doForm(t *testing.T, method, path, token string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// envelope mirrors the response wrapper with raw data for per-test
// decoding.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.True(t, env.Success, "expected success envelope, got error %q", env.Error)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
}

func TestMissingTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/api/expenses", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenForUnknownUserRejected(t *testing.T) {
	env := newTestEnv(t)

	token := env.token(t, 9999)
	w := env.doJSON(t, http.MethodGet, "/api/expenses", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
