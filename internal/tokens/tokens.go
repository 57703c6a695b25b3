// Package tokens counts prompt tokens and accumulates usage across a run.
package tokens

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used when the model has no known encoding
const DefaultEncoding = "cl100k_base"

// Chat framing overhead of the gpt-3.5/gpt-4 message format
const (
	tokensPerMessage = 3
	replyPriming     = 3
)

// Counter counts the tokens of a text
type Counter interface {
	Count(text string) int
}

// TiktokenCounter counts with a BPE encoding
type TiktokenCounter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the encoding of model, falling back to cl100k_base
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("loading %s encoding: %w", DefaultEncoding, err)
		}
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count implements Counter
func (c *TiktokenCounter) Count(text string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}

// Estimator approximates four characters per token
type Estimator struct{}

// Count implements Counter
func (Estimator) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// NewCounter returns a tiktoken counter for model, or the estimator when the
// encoding cannot be loaded (it is fetched on first use)
func NewCounter(model string) (Counter, error) {
	c, err := NewTiktokenCounter(model)
	if err != nil {
		return Estimator{}, err
	}
	return c, nil
}

// CountPrompt counts pieces as one chat message each, plus reply priming
func CountPrompt(c Counter, pieces ...string) int {
	total := 0
	for _, p := range pieces {
		total += tokensPerMessage + c.Count(p)
	}
	return total + replyPriming
}

// Usage is the token and sample accounting of a run
type Usage struct {
	Samples          int `json:"samples"`
	ContextTokens    int `json:"context_tokens"`   // prompt pieces before truncation
	TruncatedTokens  int `json:"truncated_tokens"` // prompt pieces as sent
	PromptTokens     int `json:"prompt_tokens"`    // billed by the provider
	CompletionTokens int `json:"completion_tokens"`
}

// Add sums other into u
func (u *Usage) Add(other Usage) {
	u.Samples += other.Samples
	u.ContextTokens += other.ContextTokens
	u.TruncatedTokens += other.TruncatedTokens
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
}

// Total is prompt plus completion tokens billed
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}
