package commands

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/methodgen/internal/app"
	"github.com/tildaslashalef/methodgen/internal/results"
	"github.com/tildaslashalef/methodgen/internal/utils"
)

// ReportCommand returns the CLI command for browsing stored runs
func ReportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "List evaluation runs, or show the results of one run",
		ArgsUsage: "[run-id]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of runs to list",
				Value: 20,
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "Width of the method preview column",
				Value: 48,
			},
		},
		Action: reportAction,
	}
}

func reportAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	if runID := c.Args().First(); runID != "" {
		return showRun(c, application, runID)
	}

	runs, err := application.Results.ListRuns(c.Context, c.Int("limit"))
	if err != nil {
		utils.PrintError(fmt.Sprintf("Failed to list runs: %s", err))
		return err
	}
	if len(runs) == 0 {
		utils.PrintInfo("No runs recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Name,
			run.Provider + "/" + run.Model,
			statusText(run.Status),
			strconv.Itoa(run.SampleCount),
			strconv.Itoa(run.PromptTokens + run.CompletionTokens),
			run.StartedAt.Local().Format(time.DateTime),
		})
	}

	utils.PrintTable([]string{"ID", "Name", "Model", "Status", "Samples", "Tokens", "Started"}, rows)
	return nil
}

func showRun(c *cli.Context, application *app.App, runID string) error {
	run, err := application.Results.GetRun(c.Context, runID)
	if errors.Is(err, results.ErrNotFound) {
		utils.PrintError("No run with id " + runID)
		return err
	}
	if err != nil {
		utils.PrintError(fmt.Sprintf("Failed to load run: %s", err))
		return err
	}

	utils.PrintHeading(run.Name)
	utils.PrintKeyValue("ID", run.ID)
	utils.PrintKeyValue("Model", run.Provider+"/"+run.Model)
	utils.PrintKeyValue("Status", statusText(run.Status))
	utils.PrintKeyValue("Duration", run.Duration().Round(time.Second).String())
	utils.PrintKeyValue("Tokens", fmt.Sprintf("%d context, %d truncated, %d prompt, %d completion",
		run.ContextTokens, run.TruncatedTokens, run.PromptTokens, run.CompletionTokens))
	if run.Error != "" {
		utils.PrintKeyValueWithColor("Error", utils.Wrap(run.Error, 100), utils.Theme.Error)
	}
	utils.PrintDivider()

	counts, err := application.Results.CountVerdicts(c.Context, run.ID)
	if err != nil {
		return err
	}
	verdicts := make([]string, 0, len(counts))
	for v := range counts {
		verdicts = append(verdicts, v)
	}
	sort.Strings(verdicts)

	countRows := make([][]string, 0, len(verdicts))
	for _, v := range verdicts {
		countRows = append(countRows, []string{v, strconv.Itoa(counts[v])})
	}
	utils.PrintTable([]string{"Verdict", "Count"}, countRows, utils.TableOptions{Title: "Verdicts"})

	samples, err := application.Results.ListSampleResults(c.Context, run.ID)
	if err != nil {
		return err
	}

	width := c.Int("width")
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		detail := s.Method
		if s.Error != "" {
			detail = s.Error
		}
		rows = append(rows, []string{
			strconv.Itoa(s.SampleIndex),
			s.Variant,
			s.Verdict,
			s.TestOutcome,
			utils.Preview(detail, width),
		})
	}
	utils.PrintTable([]string{"Sample", "Variant", "Verdict", "Test", "Method"}, rows, utils.TableOptions{Title: "Samples"})
	return nil
}

func statusText(status results.RunStatus) string {
	var colors text.Colors
	switch status {
	case results.RunStatusCompleted:
		colors = utils.Theme.Success
	case results.RunStatusFailed:
		colors = utils.Theme.Error
	case results.RunStatusCancelled:
		colors = utils.Theme.Warning
	default:
		colors = utils.Theme.Info
	}
	return colors.Sprint(string(status))
}
