// Package app provides the application initialization and lifecycle management
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/methodgen/internal/config"
	"github.com/tildaslashalef/methodgen/internal/database"
	"github.com/tildaslashalef/methodgen/internal/git"
	"github.com/tildaslashalef/methodgen/internal/llm"
	"github.com/tildaslashalef/methodgen/internal/loggy"
	"github.com/tildaslashalef/methodgen/internal/results"
	"github.com/tildaslashalef/methodgen/internal/testrun"
	"github.com/tildaslashalef/methodgen/internal/workspace"
)

// App represents the application instance with its dependencies
type App struct {
	Config    *config.Config
	Logger    *loggy.Logger
	LLM       *llm.Factory
	Git       *git.Service
	Workspace *workspace.Workspace
	Runner    *testrun.MavenRunner
	Results   *results.Service
}

// New initializes a new application instance with all its dependencies
func New(ctx context.Context) (*App, error) {
	cfg, err := initConfig()
	if err != nil {
		return nil, err
	}

	if err := initLogger(cfg); err != nil {
		return nil, err
	}

	loggy.Info("Application initializing",
		"version", os.Getenv("VERSION"),
		"log_level", cfg.Logging.Level,
		"provider", cfg.DefaultLLMProvider,
	)

	if err := database.InitDB(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if _, err := database.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	app, err := initServices(ctx, cfg)
	if err != nil {
		return nil, err
	}

	loggy.Info("Application initialized successfully")
	return app, nil
}

// initConfig loads and sets up the application configuration
func initConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv("", "")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	config.Set(cfg)
	return cfg, nil
}

// initLogger initializes the logging system
func initLogger(cfg *config.Config) error {
	err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initServices wires the services on top of the open database
func initServices(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := loggy.GetGlobalLogger()

	db, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	factory, err := llm.NewFactory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM clients: %w", err)
	}

	gitService := git.NewService(logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		LLM:       factory,
		Git:       gitService,
		Workspace: workspace.New(cfg.Dataset.ReposDir, gitService, logger),
		Runner:    testrun.NewMavenRunner(cfg.Evaluation, cfg.Dataset.TestResultsDir, logger),
		Results:   results.NewService(db, logger),
	}, nil
}

// Shutdown gracefully shuts down the application
func (app *App) Shutdown() error {
	loggy.Info("Shutting down application")

	if err := database.CloseDB(); err != nil {
		loggy.Error("Error closing database connection", "error", err)
		return err
	}

	return nil
}

// FromContext retrieves the App instance from the CLI context
func FromContext(c *cli.Context) (*App, error) {
	if c.App.Metadata == nil {
		return nil, fmt.Errorf("app metadata not found in context")
	}

	app, ok := c.App.Metadata["app"].(*App)
	if !ok {
		return nil, fmt.Errorf("app instance not found in context")
	}

	return app, nil
}
