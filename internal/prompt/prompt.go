package prompt

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/tildaslashalef/methodgen/internal/llm"
)

// SystemInstruction is sent as the system message of every request
const SystemInstruction = "You are a helpful code assistant. Your language of choice is Java. Generate the code block for the mentioned method with full code and logic."

// The separators are part of the prompt the results were produced with:
// the comment line keeps its newline and nothing separates it from "and".
const userTemplate = `Write a valid Java method with implementation logic whose preceding code context is: {{.Context}},whose comment is : {{.Comment}}and the method signature is: {{.Signature}}`

var userTmpl = template.Must(template.New("user").Parse(userTemplate))

// Prompt holds the three pieces sent to the model
type Prompt struct {
	Context   string
	Comment   string
	Signature string
	Truncated bool
}

// Build cleans the upper context and fits it into maxChars
func Build(c *Context, maxChars int) Prompt {
	upper := StripComments(c.Upper)
	upper, truncated := FitContext(upper, c.Comment, c.Signature, maxChars)
	return Prompt{
		Context:   upper,
		Comment:   c.Comment,
		Signature: c.Signature,
		Truncated: truncated,
	}
}

// Pieces returns the three prompt pieces in order, for token accounting
func (p Prompt) Pieces() []string {
	return []string{p.Context, p.Comment, p.Signature}
}

// UserMessage renders the user message
func (p Prompt) UserMessage() (string, error) {
	var buf bytes.Buffer
	if err := userTmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("rendering user message: %w", err)
	}
	return buf.String(), nil
}

// Messages builds the chat message list for the model
func (p Prompt) Messages() ([]llm.Message, error) {
	user, err := p.UserMessage()
	if err != nil {
		return nil, err
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemInstruction},
		{Role: llm.RoleUser, Content: user},
	}, nil
}
