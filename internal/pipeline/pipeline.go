// Package pipeline runs the evaluation: it prompts a model for every sample
// variant, classifies the generated method, writes the results back and
// optionally runs the project's unit test against it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tildaslashalef/methodgen/internal/config"
	"github.com/tildaslashalef/methodgen/internal/dataset"
	"github.com/tildaslashalef/methodgen/internal/extractor"
	"github.com/tildaslashalef/methodgen/internal/llm"
	"github.com/tildaslashalef/methodgen/internal/loggy"
	"github.com/tildaslashalef/methodgen/internal/prompt"
	"github.com/tildaslashalef/methodgen/internal/results"
	"github.com/tildaslashalef/methodgen/internal/testrun"
	"github.com/tildaslashalef/methodgen/internal/tokens"
	"github.com/tildaslashalef/methodgen/internal/workspace"
)

// Options select what one run evaluates
type Options struct {
	RunName     string
	Provider    string
	Model       string
	Variants    []string // input stems, defaults to the configured variants
	ResultsDir  string   // defaults to the configured results dir
	Limit       int      // maximum number of samples, 0 for all
	Concurrency int      // concurrent model calls, defaults to the configured value
	RunTests    bool

	// OnProgress is called after each job is applied
	OnProgress func(done, total int)
}

// Dependencies are the collaborators of a Pipeline. Runner, Workspace and
// Results may be nil: tests are then skipped and nothing is persisted.
type Dependencies struct {
	Client    llm.Client
	Counter   tokens.Counter
	Extractor *extractor.Extractor
	Runner    testrun.Runner
	Workspace *workspace.Workspace
	Results   *results.Service
	Logger    *loggy.Logger
}

// Pipeline evaluates a dataset against one model
type Pipeline struct {
	cfg  *config.Config
	deps Dependencies
}

// New creates a pipeline
func New(cfg *config.Config, deps Dependencies) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = loggy.NewNoopLogger()
	}
	if deps.Counter == nil {
		deps.Counter = tokens.Estimator{}
	}
	if deps.Extractor == nil {
		var opts []extractor.Option
		if cfg.Evaluation.LegacyQuotes {
			opts = append(opts, extractor.WithLegacyQuotes())
		}
		if cfg.Evaluation.LegacyBodySpan {
			opts = append(opts, extractor.WithLegacyBodySpan())
		}
		deps.Extractor = extractor.New(opts...)
	}
	return &Pipeline{cfg: cfg, deps: deps}
}

// Summary is the outcome of a run
type Summary struct {
	RunID        string
	RunName      string
	Samples      int
	Jobs         int
	Verdicts     map[extractor.Kind]int
	Passed       int
	NotPassed    int
	TestsSkipped int
	Failed       int // jobs that produced no verdict
	Usage        tokens.Usage
	Duration     time.Duration
}

// generation is the result of the concurrent phase for one job
type generation struct {
	job
	split  *prompt.Context
	result extractor.Result
	usage  tokens.Usage
	err    error
}

// Run evaluates every sample variant. Per-sample failures do not stop the
// run; they are logged, recorded and joined into the returned error.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	opts = p.withDefaults(opts)
	logger := p.deps.Logger

	meta, err := dataset.LoadMetadata(p.cfg.Dataset.MetadataCSV)
	if err != nil {
		return nil, err
	}
	inst, err := dataset.LoadInstances(p.cfg.Dataset.InstancesCSV)
	if err != nil {
		return nil, err
	}

	jobs, samples, err := planJobs(opts.ResultsDir, opts.Limit, dataset.Variants(opts.Variants), meta, inst, logger)
	if err != nil {
		return nil, fmt.Errorf("planning jobs: %w", err)
	}

	summary := &Summary{
		RunName:  opts.RunName,
		Samples:  samples,
		Jobs:     len(jobs),
		Verdicts: make(map[extractor.Kind]int),
	}

	var run *results.Run
	if p.deps.Results != nil {
		run, err = p.deps.Results.StartRun(ctx, opts.RunName, opts.Provider, opts.Model)
		if err != nil {
			return nil, err
		}
		run.SampleCount = samples
		run.VariantCount = len(jobs)
		summary.RunID = run.ID
		ctx = loggy.WithRunID(ctx, run.ID)
		logger = logger.With("run_id", run.ID)
	}

	logger.Info("Evaluation started", "samples", samples, "jobs", len(jobs), "concurrency", opts.Concurrency)

	if opts.RunTests {
		p.prepareProjects(jobs)
	}

	gens := p.generate(ctx, jobs, opts)

	var errs []error
	done := 0
	for _, gen := range gens {
		if gen == nil {
			// not started before cancellation
			continue
		}
		summary.Usage.Add(gen.usage)

		if err := p.apply(ctx, inst, gen, opts, run, summary); err != nil {
			errs = append(errs, err)
		}

		done++
		if opts.OnProgress != nil {
			opts.OnProgress(done, len(jobs))
		}
	}

	if err := inst.Save(); err != nil {
		errs = append(errs, fmt.Errorf("saving instances: %w", err))
	}

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	runErr := errors.Join(errs...)

	if run != nil {
		if err := p.deps.Results.FinishRun(ctx, run, summary.Usage, runErr); err != nil {
			logger.Error("Failed to finish run", "error", err)
			runErr = errors.Join(runErr, err)
		}
	}

	summary.Duration = time.Since(start)
	logger.Info("Evaluation finished",
		"jobs", summary.Jobs,
		"failed", summary.Failed,
		"passed", summary.Passed,
		"prompt_tokens", summary.Usage.PromptTokens,
		"duration", summary.Duration,
	)

	return summary, runErr
}

func (p *Pipeline) withDefaults(opts Options) Options {
	if len(opts.Variants) == 0 {
		opts.Variants = p.cfg.Dataset.Variants
	}
	if opts.ResultsDir == "" {
		opts.ResultsDir = p.cfg.Dataset.ResultsDir
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = p.cfg.Evaluation.Concurrency
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.RunTests && (p.deps.Runner == nil || p.deps.Workspace == nil) {
		p.deps.Logger.Warn("No test runner configured, tests will be skipped")
		opts.RunTests = false
	}
	return opts
}

// prepareProjects restores sources an interrupted run left replaced and
// warns about uncommitted changes in the projects under test
func (p *Pipeline) prepareProjects(jobs []job) {
	seen := make(map[string]bool)
	for _, j := range jobs {
		if seen[j.project] {
			continue
		}
		seen[j.project] = true

		if _, err := p.deps.Workspace.Recover(j.project); err != nil {
			p.deps.Logger.Warn("Could not recover project sources", "project", j.project, "error", err)
			continue
		}
		if _, err := p.deps.Workspace.CheckClean(j.project); err != nil {
			p.deps.Logger.Debug("Worktree status unavailable", "project", j.project, "error", err)
		}
	}
}

// generate runs the model calls with bounded concurrency. The slot of a job
// that never started because ctx was cancelled stays nil.
func (p *Pipeline) generate(ctx context.Context, jobs []job, opts Options) []*generation {
	gens := make([]*generation, len(jobs))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			gens[i] = p.generateOne(ctx, j, opts.Model)
			return nil
		})
	}

	_ = g.Wait()
	return gens
}

func (p *Pipeline) generateOne(ctx context.Context, j job, model string) *generation {
	gen := &generation{job: j}
	logger := p.deps.Logger.With("sample", j.index, "variant", j.variant.Input)

	source, err := dataset.ReadJavaSource(j.inputPath())
	if err != nil {
		gen.err = fmt.Errorf("sample %d %s: %w", j.index, j.variant.Input, err)
		return gen
	}

	split, err := prompt.Split(source, j.meta.StartLine)
	if err != nil {
		gen.err = fmt.Errorf("sample %d %s: %w", j.index, j.variant.Input, err)
		return gen
	}
	gen.split = split

	pr := prompt.Build(split, p.cfg.Dataset.MaxContextChars)
	gen.usage.Samples = 1
	gen.usage.ContextTokens = tokens.CountPrompt(p.deps.Counter, prompt.StripComments(split.Upper), split.Comment, split.Signature)
	gen.usage.TruncatedTokens = tokens.CountPrompt(p.deps.Counter, pr.Pieces()...)
	if pr.Truncated {
		logger.Debug("Upper context truncated", "max_chars", p.cfg.Dataset.MaxContextChars)
	}

	messages, err := pr.Messages()
	if err != nil {
		gen.err = fmt.Errorf("sample %d %s: %w", j.index, j.variant.Input, err)
		return gen
	}

	resp, err := p.deps.Client.GenerateChat(ctx, llm.ChatRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		logger.Error("Generation failed", "error", err)
		gen.err = fmt.Errorf("sample %d %s: %w", j.index, j.variant.Input, err)
		return gen
	}

	gen.usage.PromptTokens = resp.Usage.PromptTokens
	gen.usage.CompletionTokens = resp.Usage.CompletionTokens
	gen.result = p.deps.Extractor.Evaluate(resp.Content)

	logger.Debug("Generated method classified", "verdict", gen.result.Verdict.String())
	return gen
}
