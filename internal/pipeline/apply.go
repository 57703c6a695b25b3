package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tildaslashalef/methodgen/internal/dataset"
	"github.com/tildaslashalef/methodgen/internal/extractor"
	"github.com/tildaslashalef/methodgen/internal/results"
	"github.com/tildaslashalef/methodgen/internal/testrun"
)

// apply writes one generation back: instances cells, the reconstructed
// output file, the test outcome and the sample result row. It runs on a
// single goroutine because the test step mutates the shared project checkout.
func (p *Pipeline) apply(ctx context.Context, inst *dataset.Instances, gen *generation, opts Options, run *results.Run, summary *Summary) error {
	logger := p.deps.Logger.With("sample", gen.index, "variant", gen.variant.Input)

	record := &results.SampleResult{
		SampleIndex:      gen.index,
		Project:          gen.project,
		MethodName:       gen.methodName,
		Variant:          gen.variant.Output,
		PromptTokens:     gen.usage.PromptTokens,
		CompletionTokens: gen.usage.CompletionTokens,
	}
	if run != nil {
		record.RunID = run.ID
	}

	if gen.err != nil {
		if errors.Is(gen.err, context.Canceled) && ctx.Err() != nil {
			return nil
		}
		summary.Failed++
		record.Verdict = "error"
		record.Error = gen.err.Error()
		p.persist(ctx, record)
		return gen.err
	}

	verdict := gen.result.Verdict
	summary.Verdicts[verdict.Kind]++
	record.Verdict = verdict.Kind.String()
	record.EndLine = verdict.EndLine
	record.Method = gen.result.Method()

	label := gen.result.Label(p.cfg.Dataset.MaxStoredChars)
	if err := inst.Set(gen.index, gen.variant.ResultColumn(), label); err != nil {
		return err
	}

	reconstructed := gen.split.Reconstruct(gen.result.Method())
	if err := os.WriteFile(gen.outputPath(), []byte(reconstructed), 0644); err != nil {
		err = fmt.Errorf("sample %d: writing %s: %w", gen.index, gen.variant.OutputFile(), err)
		record.Error = err.Error()
		p.persist(ctx, record)
		return err
	}

	outcome, outputPath, err := p.test(ctx, gen, verdict, reconstructed, opts)
	record.TestOutcome = outcome
	record.TestOutputPath = outputPath
	switch outcome {
	case dataset.TestPass:
		summary.Passed++
	case dataset.TestNotPass:
		summary.NotPassed++
	default:
		summary.TestsSkipped++
	}
	if err != nil {
		record.Error = err.Error()
	}

	if setErr := inst.Set(gen.index, gen.variant.TestColumn(), outcome); setErr != nil {
		err = errors.Join(err, setErr)
	}

	logger.Info("Sample evaluated", "verdict", verdict.String(), "test", outcome)
	p.persist(ctx, record)
	return err
}

// test injects the reconstructed file into the project and runs its unit
// test. Only valid methods are tested; other verdicts cannot compile.
func (p *Pipeline) test(ctx context.Context, gen *generation, verdict extractor.Verdict, reconstructed string, opts Options) (string, string, error) {
	if !opts.RunTests {
		return dataset.TestSkipped, "", nil
	}
	if !verdict.IsValid() {
		return dataset.TestNotPass, "", nil
	}
	if ctx.Err() != nil {
		return dataset.TestSkipped, "", nil
	}

	target := gen.target()
	projectDir, err := p.deps.Workspace.ProjectDir(target.Project)
	if err != nil {
		return dataset.TestNotPass, "", fmt.Errorf("sample %d: %w", gen.index, err)
	}

	restore, err := p.deps.Workspace.Inject(target, reconstructed)
	if err != nil {
		return dataset.TestNotPass, "", fmt.Errorf("sample %d: %w", gen.index, err)
	}
	defer func() {
		if err := restore(); err != nil {
			p.deps.Logger.Error("Failed to restore project source", "sample", gen.index, "error", err)
		}
	}()

	res, err := p.deps.Runner.Run(ctx, testrun.Request{
		ProjectDir: projectDir,
		TestClass:  target.TestClass(),
		MethodName: gen.methodName,
		OutputStem: gen.variant.Output,
	})
	if err != nil {
		return dataset.TestNotPass, "", fmt.Errorf("sample %d: running tests: %w", gen.index, err)
	}

	return res.Outcome(), res.OutputPath, nil
}

func (p *Pipeline) persist(ctx context.Context, record *results.SampleResult) {
	if p.deps.Results == nil || record.RunID == "" {
		return
	}
	if err := p.deps.Results.RecordSample(context.WithoutCancel(ctx), record); err != nil {
		p.deps.Logger.Warn("Sample result not persisted", "sample", record.SampleIndex, "error", err)
	}
}
