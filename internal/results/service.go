package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tildaslashalef/methodgen/internal/loggy"
	"github.com/tildaslashalef/methodgen/internal/tokens"
	"github.com/tildaslashalef/methodgen/internal/ulid"
)

// Service records runs and their sample results
type Service struct {
	repo   Repository
	logger *loggy.Logger
}

// NewService creates a results service on the SQLite repository
func NewService(db *sql.DB, logger *loggy.Logger) *Service {
	return NewServiceWithRepository(NewSQLRepository(db, logger), logger)
}

// NewServiceWithRepository creates a results service on any repository
func NewServiceWithRepository(repo Repository, logger *loggy.Logger) *Service {
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	return &Service{repo: repo, logger: logger}
}

// StartRun creates a running run
func (s *Service) StartRun(ctx context.Context, name, provider, model string) (*Run, error) {
	run := &Run{
		ID:        ulid.RunID(),
		Name:      name,
		Provider:  provider,
		Model:     model,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}

	if err := s.repo.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}

	s.logger.Info("Run started", "run_id", run.ID, "name", name, "provider", provider, "model", model)
	return run, nil
}

// FinishRun stores the final usage and derives the status from runErr.
// The update uses a fresh context so a cancelled run is still recorded.
func (s *Service) FinishRun(ctx context.Context, run *Run, usage tokens.Usage, runErr error) error {
	now := time.Now()
	run.FinishedAt = &now
	run.SetUsage(usage)

	switch {
	case runErr == nil:
		run.Status = RunStatusCompleted
	case errors.Is(runErr, context.Canceled):
		run.Status = RunStatusCancelled
		run.Error = runErr.Error()
	default:
		run.Status = RunStatusFailed
		run.Error = runErr.Error()
	}

	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
	}

	if err := s.repo.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}

	s.logger.Info("Run finished",
		"run_id", run.ID,
		"status", run.Status,
		"duration", run.Duration(),
		"prompt_tokens", run.PromptTokens,
		"completion_tokens", run.CompletionTokens,
	)
	return nil
}

// RecordSample stores the outcome of one sample variant
func (s *Service) RecordSample(ctx context.Context, result *SampleResult) error {
	if result.ID == "" {
		result.ID = ulid.ResultID()
	}

	if err := s.repo.CreateSampleResult(ctx, result); err != nil {
		s.logger.Error("Failed to record sample result", "sample", result.SampleIndex, "variant", result.Variant, "error", err)
		return fmt.Errorf("recording sample %d: %w", result.SampleIndex, err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *Service) GetRun(ctx context.Context, id string) (*Run, error) {
	return s.repo.GetRun(ctx, id)
}

// ListRuns returns the most recent runs
func (s *Service) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	return s.repo.ListRuns(ctx, limit)
}

// ListSampleResults returns the sample results of a run
func (s *Service) ListSampleResults(ctx context.Context, runID string) ([]*SampleResult, error) {
	return s.repo.ListSampleResults(ctx, runID)
}

// CountVerdicts returns the verdict histogram of a run
func (s *Service) CountVerdicts(ctx context.Context, runID string) (map[string]int, error) {
	return s.repo.CountVerdicts(ctx, runID)
}
