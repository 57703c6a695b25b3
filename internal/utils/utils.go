package utils

import (
	"strings"
	"time"

	"github.com/goombaio/namegenerator"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// GenerateRunName creates a random, memorable run name like "wispy-dust"
func GenerateRunName() string {
	seed := time.Now().UTC().UnixNano()
	nameGenerator := namegenerator.NewNameGenerator(seed)
	return strings.ReplaceAll(nameGenerator.Generate(), "_", "-")
}

// SanitizeName cleans up a user supplied run name
func SanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	replacer := strings.NewReplacer(
		" ", "-",
		"_", "-",
		".", "-",
		",", "-",
		";", "-",
		":", "-",
		"/", "-",
		"\\", "-",
	)
	name = replacer.Replace(name)

	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}

	return strings.Trim(name, "-")
}

// Preview flattens text to one line and cuts it to width cells
func Preview(s string, width int) string {
	flat := strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return flat
	}
	return truncate.StringWithTail(flat, uint(width), "…")
}

// Wrap wraps text at width cells
func Wrap(s string, width int) string {
	return wordwrap.String(s, width)
}
