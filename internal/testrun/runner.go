// Package testrun compiles a project and runs the unit test of one class
// with the project's build tool.
package testrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tildaslashalef/methodgen/internal/config"
	"github.com/tildaslashalef/methodgen/internal/dataset"
	"github.com/tildaslashalef/methodgen/internal/loggy"
)

// DefaultBuildTool is the Maven binary looked up on PATH
const DefaultBuildTool = "mvn"

// Request describes one test execution
type Request struct {
	ProjectDir string
	TestClass  string // simple class name, e.g. CalculatorTest
	MethodName string
	OutputStem string // variant output stem, e.g. NewResultOriginal
}

// Result is the outcome of one test execution
type Result struct {
	Passed     bool
	Compiled   bool
	TimedOut   bool
	ExitCode   int
	Duration   time.Duration
	OutputPath string
	Output     []byte
}

// Outcome returns the value stored in the TestResults column
func (r *Result) Outcome() string {
	if r.Passed {
		return dataset.TestPass
	}
	return dataset.TestNotPass
}

// Runner executes the unit test of one class
type Runner interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// CommandFunc builds the command for a build tool invocation
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// MavenRunner runs "compile test-compile" followed by "test -Dtest=<class>"
type MavenRunner struct {
	binary    string
	outputDir string
	timeout   time.Duration
	command   CommandFunc
	logger    *loggy.Logger
}

// NewMavenRunner creates a runner writing build output below outputDir
func NewMavenRunner(cfg config.EvaluationConfig, outputDir string, logger *loggy.Logger) *MavenRunner {
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}

	binary := cfg.BuildTool
	if binary == "" {
		binary = DefaultBuildTool
	}

	return &MavenRunner{
		binary:    binary,
		outputDir: outputDir,
		timeout:   cfg.TestTimeout,
		command:   exec.CommandContext,
		logger:    logger,
	}
}

// WithCommand replaces the command constructor
func (r *MavenRunner) WithCommand(fn CommandFunc) *MavenRunner {
	r.command = fn
	return r
}

// OutputFileName names the file holding the build output of one test run
func OutputFileName(testClass, methodName, outputStem string) string {
	return fmt.Sprintf("result_test_%s_%s_%s.txt", stem(testClass), methodName, stem(outputStem))
}

func stem(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// Run compiles the project and runs the test class. A failing build or test
// is a NOT PASS result, not an error; errors mean the tool could not run.
func (r *MavenRunner) Run(ctx context.Context, req Request) (*Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	logger := r.logger.With("project", req.ProjectDir, "test_class", req.TestClass)
	if runID := loggy.GetRunID(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}

	start := time.Now()
	var output bytes.Buffer
	result := &Result{}

	exitCode, err := r.exec(ctx, &output, "-f", req.ProjectDir, "compile", "test-compile")
	if err != nil {
		return nil, err
	}
	result.Compiled = exitCode == 0

	if result.Compiled {
		exitCode, err = r.exec(ctx, &output, "-f", req.ProjectDir, "test", "-Dtest="+req.TestClass)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("Project does not compile", "exit_code", exitCode)
	}

	result.ExitCode = exitCode
	result.Passed = result.Compiled && exitCode == 0
	result.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
	result.Duration = time.Since(start)
	result.Output = output.Bytes()

	if result.TimedOut {
		logger.Warn("Test run timed out", "timeout", r.timeout)
	}

	path, err := r.writeOutput(req, result.Output)
	if err != nil {
		return result, err
	}
	result.OutputPath = path

	logger.Info("Test run finished",
		"outcome", result.Outcome(),
		"exit_code", result.ExitCode,
		"duration", result.Duration,
	)
	return result, nil
}

// exec runs the build tool, appending its combined output to out. A non-zero
// exit, including one caused by the timeout, is reported through the code.
func (r *MavenRunner) exec(ctx context.Context, out *bytes.Buffer, args ...string) (int, error) {
	cmd := r.command(ctx, r.binary, args...)
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if ctx.Err() != nil {
		return -1, nil
	}
	return -1, fmt.Errorf("running %s %s: %w", r.binary, strings.Join(args, " "), err)
}

func (r *MavenRunner) writeOutput(req Request, output []byte) (string, error) {
	if r.outputDir == "" {
		return "", nil
	}

	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating test results dir: %w", err)
	}

	path := filepath.Join(r.outputDir, OutputFileName(req.TestClass, req.MethodName, req.OutputStem))
	if err := os.WriteFile(path, output, 0644); err != nil {
		return "", fmt.Errorf("writing test output: %w", err)
	}
	return path, nil
}
