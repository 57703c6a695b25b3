package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/methodgen/internal/app"
	"github.com/tildaslashalef/methodgen/internal/extractor"
	"github.com/tildaslashalef/methodgen/internal/utils"
)

// ClassifyCommand returns the CLI command that classifies a saved model response
func ClassifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Extract and classify the method in a model response",
		ArgsUsage: "[file]",
		Description: "Reads a raw model response from a file, or stdin when no file is given, " +
			"and prints the verdict, its stored code and the extracted method.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "render",
				Usage: "Render the extracted method as highlighted markdown",
			},
			&cli.BoolFlag{
				Name:  "legacy-quotes",
				Usage: "Count braces inside string and char literals",
			},
			&cli.BoolFlag{
				Name:  "legacy-body-span",
				Usage: "Judge emptiness on the lines after the signature only",
			},
		},
		Action: classifyAction,
	}
}

func classifyAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	raw, err := readInput(c.Args().First())
	if err != nil {
		utils.PrintError(err.Error())
		return err
	}

	var opts []extractor.Option
	if c.Bool("legacy-quotes") || application.Config.Evaluation.LegacyQuotes {
		opts = append(opts, extractor.WithLegacyQuotes())
	}
	if c.Bool("legacy-body-span") || application.Config.Evaluation.LegacyBodySpan {
		opts = append(opts, extractor.WithLegacyBodySpan())
	}

	result := extractor.New(opts...).Evaluate(raw)
	verdict := result.Verdict

	colors := utils.Theme.Warning
	if verdict.IsValid() {
		colors = utils.Theme.Success
	}
	utils.PrintKeyValueWithColor("Verdict", verdict.String(), colors)
	utils.PrintKeyValue("Code", strconv.Itoa(verdict.Code()))
	if verdict.EndLine > 0 {
		utils.PrintKeyValue("End line", strconv.Itoa(verdict.EndLine))
	}
	utils.PrintKeyValue("Stored as", utils.Preview(result.Label(application.Config.Dataset.MaxStoredChars), 60))

	method := result.Method()
	if method == "" {
		return nil
	}

	if !c.Bool("render") {
		fmt.Println(utils.Panel(method, verdict.IsValid()))
		return nil
	}

	utils.PrintDivider()

	rendered, err := renderJava(method)
	if err != nil {
		application.Logger.Warn("Markdown rendering failed", "error", err)
		fmt.Println(utils.CodeBlock(method))
		return nil
	}
	fmt.Print(rendered)
	return nil
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func renderJava(code string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render("```java\n" + code + "\n```\n")
}
