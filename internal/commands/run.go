package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/methodgen/internal/app"
	"github.com/tildaslashalef/methodgen/internal/extractor"
	"github.com/tildaslashalef/methodgen/internal/llm"
	"github.com/tildaslashalef/methodgen/internal/pipeline"
	"github.com/tildaslashalef/methodgen/internal/tokens"
	"github.com/tildaslashalef/methodgen/internal/utils"
)

// RunCommand returns the CLI command that evaluates the dataset
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Generate every sample method with a model and evaluate the result",
		Description: "Prompts the model with the context, comment and signature of each sample variant, " +
			"classifies the generated method, writes the reconstructed source and the instances CSV " +
			"and, unless disabled, runs the project's unit test against valid methods.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "LLM provider: openai, ollama, claude or gemini (default: configured provider)",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Model name (default: the provider's configured model)",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Run name (default: a generated name)",
			},
			&cli.StringSliceFlag{
				Name:  "variants",
				Usage: "Input file stems to evaluate (default: configured variants)",
			},
			&cli.StringFlag{
				Name:  "results-dir",
				Usage: "Directory holding one sub directory per sample",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Evaluate at most this many samples",
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"j"},
				Usage:   "Concurrent model calls",
			},
			&cli.BoolFlag{
				Name:  "no-tests",
				Usage: "Skip the unit test step",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}
	cfg := application.Config

	client, clientType, err := selectClient(application.LLM, c.String("provider"))
	if err != nil {
		utils.PrintError(err.Error())
		return err
	}

	if clientType == llm.Ollama {
		version, err := application.LLM.Ollama().GetVersion(c.Context)
		if err != nil {
			utils.PrintError(fmt.Sprintf("Ollama is not reachable at %s: %s", cfg.Ollama.Endpoint, err))
			return err
		}
		application.Logger.Debug("Ollama server reachable", "version", version)
	}

	model := c.String("model")
	if model == "" {
		model = application.LLM.DefaultModel(clientType)
	}

	counter, err := tokens.NewCounter(model)
	if err != nil {
		application.Logger.Warn("No tokenizer for model, estimating token counts", "model", model, "error", err)
	}

	name := utils.SanitizeName(c.String("name"))
	if name == "" {
		name = utils.GenerateRunName()
	}

	runTests := cfg.Evaluation.RunTests && !c.Bool("no-tests")

	utils.PrintHeading("Evaluating " + color.CyanString("%s", name))
	utils.PrintKeyValue("Provider", string(clientType))
	utils.PrintKeyValue("Model", model)
	utils.PrintKeyValue("Results", orDefault(c.String("results-dir"), cfg.Dataset.ResultsDir))
	utils.PrintKeyValue("Tests", strconv.FormatBool(runTests))
	utils.PrintDivider()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pw := utils.CreateProgressWriter()
	tracker := utils.CreateProgressTracker("Evaluating samples", 0)
	pw.AppendTracker(tracker)
	go pw.Render()

	p := pipeline.New(cfg, pipeline.Dependencies{
		Client:    client,
		Counter:   counter,
		Runner:    application.Runner,
		Workspace: application.Workspace,
		Results:   application.Results,
		Logger:    application.Logger,
	})

	summary, runErr := p.Run(ctx, pipeline.Options{
		RunName:     name,
		Provider:    string(clientType),
		Model:       model,
		Variants:    c.StringSlice("variants"),
		ResultsDir:  c.String("results-dir"),
		Limit:       c.Int("limit"),
		Concurrency: c.Int("concurrency"),
		RunTests:    runTests,
		OnProgress: func(done, total int) {
			tracker.UpdateTotal(int64(total))
			tracker.SetValue(int64(done))
		},
	})

	finishProgress(pw, tracker, runErr)

	if summary != nil {
		printSummary(summary)
	}

	switch {
	case runErr == nil:
		utils.PrintSuccess("Evaluation completed")
	case errors.Is(runErr, context.Canceled):
		utils.PrintWarning("Evaluation cancelled, partial results were saved")
	default:
		utils.PrintError(fmt.Sprintf("Evaluation finished with errors: %s", runErr))
	}

	return runErr
}

// selectClient returns the named provider's client, or the default one
func selectClient(factory *llm.Factory, provider string) (llm.Client, llm.ClientType, error) {
	if provider == "" {
		return factory.GetDefaultClient()
	}
	clientType := llm.ClientType(provider)
	client, err := factory.GetClient(clientType)
	if err != nil {
		return nil, "", err
	}
	return client, clientType, nil
}

func finishProgress(pw progress.Writer, tracker *progress.Tracker, err error) {
	if err != nil {
		tracker.MarkAsErrored()
	} else {
		tracker.MarkAsDone()
	}
	pw.Stop()
	for pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}

func printSummary(s *pipeline.Summary) {
	kinds := make([]extractor.Kind, 0, len(s.Verdicts))
	for kind := range s.Verdicts {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	var rows [][]string
	for _, kind := range kinds {
		rows = append(rows, []string{"verdict", kind.String(), strconv.Itoa(s.Verdicts[kind])})
	}
	rows = append(rows,
		[]string{"test", "pass", strconv.Itoa(s.Passed)},
		[]string{"test", "not pass", strconv.Itoa(s.NotPassed)},
		[]string{"test", "skipped", strconv.Itoa(s.TestsSkipped)},
		[]string{"error", "failed", strconv.Itoa(s.Failed)},
		[]string{"tokens", "context", strconv.Itoa(s.Usage.ContextTokens)},
		[]string{"tokens", "truncated", strconv.Itoa(s.Usage.TruncatedTokens)},
		[]string{"tokens", "prompt", strconv.Itoa(s.Usage.PromptTokens)},
		[]string{"tokens", "completion", strconv.Itoa(s.Usage.CompletionTokens)},
	)

	title := s.RunName
	if s.RunID != "" {
		title = fmt.Sprintf("%s (%s)", s.RunName, s.RunID)
	}

	utils.PrintTable([]string{"Group", "Outcome", "Count"}, rows, utils.TableOptions{
		Title:  title,
		Footer: []string{"", fmt.Sprintf("%d samples, %d jobs", s.Samples, s.Jobs), s.Duration.Round(time.Millisecond).String()},
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
