package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/ai"
	"github.com/peoplehub/hrops/internal/auth"
	"github.com/peoplehub/hrops/internal/config"
	"github.com/peoplehub/hrops/internal/export"
	"github.com/peoplehub/hrops/internal/handlers"
	"github.com/peoplehub/hrops/internal/policy"
	"github.com/peoplehub/hrops/internal/repository"
	"github.com/peoplehub/hrops/internal/storage"
	"github.com/peoplehub/hrops/pkg/database"
	"github.com/peoplehub/hrops/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting HR operations server",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.NewMigrator(db, logger).Run(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Export.OutputDir, 0755); err != nil {
		logger.Fatal("Failed to create export directory", zap.Error(err))
	}

	// Repositories
	users := repository.NewUserRepository(db.DB, logger)
	expenses := repository.NewExpenseRepository(db.DB, logger)
	tasks := repository.NewTaskRepository(db.DB, logger)
	reviews := repository.NewReviewRepository(db.DB, logger)
	trainings := repository.NewTrainingRepository(db.DB, logger)
	tests := repository.NewTestRepository(db.DB, logger)
	interviews := repository.NewInterviewRepository(db.DB, logger)
	recruiting := repository.NewRecruitingRepository(db.DB, logger)

	// Services
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	checker := policy.NewChecker(cfg.Policy)
	receipts := storage.NewReceiptStore(
		cfg.Upload.Dir,
		cfg.Upload.AllowedExtensions,
		cfg.Upload.MaxSizeBytes,
		logger,
	)
	xlsx := export.NewXLSXWriter(cfg.Export.OutputDir, logger)
	generator := ai.NewGenerator(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.Temperature,
		cfg.OpenAI.MaxTokens,
		logger,
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, users, logger)
	expenseHandler := handlers.NewExpenseHandler(db, expenses, checker, receipts, xlsx, logger)
	taskHandler := handlers.NewTaskHandler(db, tasks, users, reviews, generator, logger)
	trainingHandler := handlers.NewTrainingHandler(db, trainings, logger)
	aiHandler := handlers.NewAIHandler(generator, users, tasks, reviews, recruiting, trainings, logger)
	testHandler := handlers.NewTestHandler(db, tests, interviews, recruiting, users, logger)

	server := handlers.NewServer(
		cfg.Server,
		authService,
		users,
		authHandler,
		expenseHandler,
		taskHandler,
		trainingHandler,
		aiHandler,
		testHandler,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}
