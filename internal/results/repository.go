package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tildaslashalef/methodgen/internal/loggy"
)

// Repository defines persistence for runs and sample results
type Repository interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	CreateSampleResult(ctx context.Context, result *SampleResult) error
	ListSampleResults(ctx context.Context, runID string) ([]*SampleResult, error)
	CountVerdicts(ctx context.Context, runID string) (map[string]int, error)
}

var runColumns = []string{
	"id",
	"name",
	"provider",
	"model",
	"status",
	"sample_count",
	"variant_count",
	"context_tokens",
	"truncated_tokens",
	"prompt_tokens",
	"completion_tokens",
	"error",
	"started_at",
	"finished_at",
}

var sampleResultColumns = []string{
	"id",
	"run_id",
	"sample_index",
	"project",
	"method_name",
	"variant",
	"verdict",
	"end_line",
	"method",
	"test_outcome",
	"test_output_path",
	"prompt_tokens",
	"completion_tokens",
	"error",
	"created_at",
}

// SQLRepository implements Repository on SQLite
type SQLRepository struct {
	db      *sql.DB
	logger  *loggy.Logger
	builder sq.StatementBuilderType
}

// NewSQLRepository creates a new results repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) *SQLRepository {
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	return &SQLRepository{
		db:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// CreateRun inserts a new run
func (r *SQLRepository) CreateRun(ctx context.Context, run *Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	query, args, err := r.builder.
		Insert("runs").
		Columns(runColumns...).
		Values(
			run.ID,
			run.Name,
			run.Provider,
			run.Model,
			run.Status,
			run.SampleCount,
			run.VariantCount,
			run.ContextTokens,
			run.TruncatedTokens,
			run.PromptTokens,
			run.CompletionTokens,
			run.Error,
			run.StartedAt,
			run.FinishedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert run query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	r.logger.Debug("Created run", "id", run.ID, "name", run.Name)
	return nil
}

// UpdateRun writes the mutable run fields
func (r *SQLRepository) UpdateRun(ctx context.Context, run *Run) error {
	query, args, err := r.builder.
		Update("runs").
		Set("status", run.Status).
		Set("sample_count", run.SampleCount).
		Set("variant_count", run.VariantCount).
		Set("context_tokens", run.ContextTokens).
		Set("truncated_tokens", run.TruncatedTokens).
		Set("prompt_tokens", run.PromptTokens).
		Set("completion_tokens", run.CompletionTokens).
		Set("error", run.Error).
		Set("finished_at", run.FinishedAt).
		Where(sq.Eq{"id": run.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update run query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// GetRun retrieves a run by ID
func (r *SQLRepository) GetRun(ctx context.Context, id string) (*Run, error) {
	query, args, err := r.builder.
		Select(runColumns...).
		From("runs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get run query: %w", err)
	}

	run, err := scanRun(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (r *SQLRepository) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	q := r.builder.
		Select(runColumns...).
		From("runs").
		OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list runs query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// CreateSampleResult inserts one sample outcome
func (r *SQLRepository) CreateSampleResult(ctx context.Context, result *SampleResult) error {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}

	query, args, err := r.builder.
		Insert("sample_results").
		Columns(sampleResultColumns...).
		Values(
			result.ID,
			result.RunID,
			result.SampleIndex,
			result.Project,
			result.MethodName,
			result.Variant,
			result.Verdict,
			result.EndLine,
			result.Method,
			result.TestOutcome,
			result.TestOutputPath,
			result.PromptTokens,
			result.CompletionTokens,
			result.Error,
			result.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert sample result query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting sample result: %w", err)
	}
	return nil
}

// ListSampleResults returns the results of a run ordered by sample and variant
func (r *SQLRepository) ListSampleResults(ctx context.Context, runID string) ([]*SampleResult, error) {
	query, args, err := r.builder.
		Select(sampleResultColumns...).
		From("sample_results").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("sample_index", "variant").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list sample results query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sample results: %w", err)
	}
	defer rows.Close()

	var out []*SampleResult
	for rows.Next() {
		var res SampleResult
		if err := rows.Scan(
			&res.ID,
			&res.RunID,
			&res.SampleIndex,
			&res.Project,
			&res.MethodName,
			&res.Variant,
			&res.Verdict,
			&res.EndLine,
			&res.Method,
			&res.TestOutcome,
			&res.TestOutputPath,
			&res.PromptTokens,
			&res.CompletionTokens,
			&res.Error,
			&res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning sample result: %w", err)
		}
		out = append(out, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sample results: %w", err)
	}
	return out, nil
}

// CountVerdicts returns the number of results per verdict for a run
func (r *SQLRepository) CountVerdicts(ctx context.Context, runID string) (map[string]int, error) {
	query, args, err := r.builder.
		Select("verdict", "COUNT(*)").
		From("sample_results").
		Where(sq.Eq{"run_id": runID}).
		GroupBy("verdict").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building count verdicts query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting verdicts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var verdict string
		var n int
		if err := rows.Scan(&verdict, &n); err != nil {
			return nil, fmt.Errorf("scanning verdict count: %w", err)
		}
		counts[verdict] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating verdict counts: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var finished sql.NullTime

	err := row.Scan(
		&run.ID,
		&run.Name,
		&run.Provider,
		&run.Model,
		&run.Status,
		&run.SampleCount,
		&run.VariantCount,
		&run.ContextTokens,
		&run.TruncatedTokens,
		&run.PromptTokens,
		&run.CompletionTokens,
		&run.Error,
		&run.StartedAt,
		&finished,
	)
	if err != nil {
		return nil, err
	}

	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
