package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/methodgen/internal/app"
	"github.com/tildaslashalef/methodgen/internal/commands"
)

// Version information - populated at build time
var (
	Version    = "dev"
	BuildTime  = "unknown"
	CommitHash = "unknown"
	Author     = "unknown"
	Email      = "unknown"
)

// standalone commands manage their own setup
var standalone = map[string]bool{
	"init": true,
	"help": true,
	"h":    true,
	"":     true,
}

func main() {
	cliApp := &cli.App{
		Name:  "methodgen",
		Usage: "Evaluate LLM generated Java methods",
		Description: "methodgen asks a model to write a Java method from its surrounding context, comment and signature,\n" +
			"extracts and classifies the method from the response and checks it against the project's unit test.",
		Version: fmt.Sprintf("%s (%s)", Version, CommitHash),
		Compiled: func() time.Time {
			t, err := time.Parse(time.RFC3339, BuildTime)
			if err != nil {
				return time.Now()
			}
			return t
		}(),
		Authors: []*cli.Author{
			{
				Name:  Author,
				Email: Email,
			},
		},
		Before: func(c *cli.Context) error {
			if standalone[c.Args().First()] {
				return nil
			}

			application, err := app.New(c.Context)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			c.App.Metadata = map[string]interface{}{
				"app": application,
			}

			return nil
		},
		After: func(c *cli.Context) error {
			if application, ok := c.App.Metadata["app"].(*app.App); ok {
				return application.Shutdown()
			}
			return nil
		},
		Commands: []*cli.Command{
			commands.RunCommand(),
			commands.ClassifyCommand(),
			commands.ReportCommand(),
			commands.InitCommand(),
			commands.MigrateCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
