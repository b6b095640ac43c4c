// Package handlers provides the HTTP adapter over the application
// services. Handlers translate requests into repository and service
// calls and wrap every reply in the standard JSON envelope.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/auth"
	"github.com/peoplehub/hrops/internal/config"
	"github.com/peoplehub/hrops/internal/models"
	"github.com/peoplehub/hrops/internal/repository"
)

// Server is the HTTP server adapter
type Server struct {
	config      config.ServerConfig
	httpServer  *http.Server
	router      *gin.Engine
	authService *auth.Service
	users       *repository.UserRepository
	authH       *AuthHandler
	expenses    *ExpenseHandler
	tasks       *TaskHandler
	trainings   *TrainingHandler
	ai          *AIHandler
	tests       *TestHandler
	logger      *zap.Logger
}

// NewServer creates a new HTTP server wired with the given handlers
func NewServer(
	cfg config.ServerConfig,
	authService *auth.Service,
	users *repository.UserRepository,
	authH *AuthHandler,
	expenses *ExpenseHandler,
	tasks *TaskHandler,
	trainings *TrainingHandler,
	ai *AIHandler,
	tests *TestHandler,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:      cfg,
		router:      gin.New(),
		authService: authService,
		users:       users,
		authH:       authH,
		expenses:    expenses,
		tasks:       tasks,
		trainings:   trainings,
		ai:          ai,
		tests:       tests,
		logger:      logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	s.router.POST("/api/auth/login", s.authH.Login)
	s.router.POST("/api/auth/register", s.authH.Register)

	api := s.router.Group("/api")
	api.Use(auth.Middleware(s.authService, s.users, s.logger))

	expenses := api.Group("/expenses")
	{
		expenses.POST("/submit", s.expenses.Submit)
		expenses.GET("", s.expenses.List)
		expenses.GET("/pending", s.expenses.Pending)
		expenses.GET("/reports", s.expenses.Summary)
		expenses.GET("/reports/export", s.expenses.SummaryExport)
		expenses.GET("/:id", s.expenses.Get)
		expenses.PUT("/:id", s.expenses.Update)
		expenses.DELETE("/:id", s.expenses.Delete)
		expenses.PUT("/:id/approve",
			auth.RequireRoles(models.RoleManager, models.RoleHR, models.RoleHO, models.RoleAdmin),
			s.expenses.Approve)
		expenses.PUT("/:id/reject",
			auth.RequireRoles(models.RoleManager, models.RoleHR, models.RoleHO, models.RoleAdmin),
			s.expenses.Reject)
		expenses.POST("/:id/ai-verify", s.expenses.AIVerify)
		expenses.GET("/:id/policy-check", s.expenses.PolicyCheck)
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("", s.tasks.List)
		tasks.GET("/today", s.tasks.Today)
		tasks.POST("", s.tasks.Create)
		tasks.GET("/:id", s.tasks.Get)
		tasks.PUT("/:id", s.tasks.Update)
		tasks.POST("/:id/employee-review", s.tasks.EmployeeReview)
		tasks.POST("/:id/manager-review", s.tasks.ManagerReview)
		tasks.POST("/:id/generate-ai-summary", s.tasks.GenerateAISummary)
	}

	training := api.Group("/training")
	{
		training.GET("/programs", s.trainings.ListPrograms)
		training.POST("/programs", s.trainings.CreateProgram)
		training.DELETE("/programs/:id", s.trainings.DeleteProgram)
		training.GET("/modules", s.trainings.ListModules)
		training.POST("/modules", s.trainings.CreateModule)
		training.GET("/modules/:id", s.trainings.GetModule)
		training.PUT("/modules/:id", s.trainings.UpdateModule)
		training.DELETE("/modules/:id", s.trainings.DeleteModule)
		training.PUT("/modules/:id/progress", s.trainings.UpdateProgress)
		training.POST("/modules/:id/complete", s.trainings.CompleteModule)
	}

	aiGroup := api.Group("/ai")
	{
		aiGroup.POST("/performance_review", s.ai.PerformanceReview)
		aiGroup.GET("/interview_questions/:jobPostId", s.ai.InterviewQuestions)
		aiGroup.POST("/profile_enhancement/:resumeId", s.ai.ProfileEnhancement)
		aiGroup.POST("/make_JD", s.ai.MakeJD)
		aiGroup.GET("/get_resume_score/:jobPostId", s.ai.ResumeScore)
		aiGroup.POST("/get_courses/:resumeId", s.ai.GetCourses)
		aiGroup.POST("/chatbot/:schoolId", s.ai.Chatbot)
		aiGroup.GET("/get_job_posts/:resumeId", s.ai.GetJobPosts)
		aiGroup.POST("/get_upskilling_path/:resumeId", s.ai.UpskillingPath)

		aiGroup.POST("/schedule-test", s.tests.ScheduleTest)
		aiGroup.GET("/test/:id", s.tests.GetTest)
		aiGroup.GET("/test-results/:id", s.tests.TestResults)
		aiGroup.POST("/submit-test/:id", s.tests.SubmitTest)
		aiGroup.POST("/save-test-progress/:id", s.tests.SaveTestProgress)
		aiGroup.GET("/candidate-tests", s.tests.CandidateTests)
		aiGroup.GET("/pending-assessments", s.tests.PendingAssessments)
		aiGroup.POST("/submit-assessment", s.tests.SubmitAssessment)
		aiGroup.GET("/technical-tests",
			auth.RequireRoles(models.RoleHR, models.RoleHO, models.RoleAdmin),
			s.tests.ListTests)
		aiGroup.GET("/ho/technical-tests",
			auth.RequireRoles(models.RoleHO, models.RoleHR),
			s.tests.ListTests)
		aiGroup.GET("/ho/technical-interviews",
			auth.RequireRoles(models.RoleHO),
			s.tests.ListInterviews)
		aiGroup.POST("/ho/score-technical-interview/:id",
			auth.RequireRoles(models.RoleHO),
			s.tests.ScoreInterview)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	respondOK(c, gin.H{"status": "healthy"})
}

// Start starts the HTTP server and blocks until the context is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
