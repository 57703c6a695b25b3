// Package results persists evaluation runs and per-sample outcomes
package results

import (
	"errors"
	"time"

	"github.com/tildaslashalef/methodgen/internal/tokens"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("not found")

// RunStatus is the lifecycle state of a run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one invocation of the evaluation pipeline
type Run struct {
	ID               string
	Name             string
	Provider         string
	Model            string
	Status           RunStatus
	SampleCount      int
	VariantCount     int
	ContextTokens    int
	TruncatedTokens  int
	PromptTokens     int
	CompletionTokens int
	Error            string
	StartedAt        time.Time
	FinishedAt       *time.Time
}

// SetUsage copies the token accounting onto the run
func (r *Run) SetUsage(u tokens.Usage) {
	r.ContextTokens = u.ContextTokens
	r.TruncatedTokens = u.TruncatedTokens
	r.PromptTokens = u.PromptTokens
	r.CompletionTokens = u.CompletionTokens
}

// Duration returns how long the run took, or has taken so far
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SampleResult is the outcome of one variant of one sample
type SampleResult struct {
	ID               string
	RunID            string
	SampleIndex      int
	Project          string
	MethodName       string
	Variant          string // output stem, e.g. NewResultOriginal
	Verdict          string // extractor kind name
	EndLine          int
	Method           string
	TestOutcome      string
	TestOutputPath   string
	PromptTokens     int
	CompletionTokens int
	Error            string
	CreatedAt        time.Time
}
