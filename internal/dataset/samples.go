package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Test outcome values written to the TestResults columns
const (
	TestPass    = "PASS"
	TestNotPass = "NOT PASS"
	TestSkipped = "SKIPPED"
)

// Variant pairs an input file stem with the output it produces
type Variant struct {
	Input  string // e.g. Original
	Output string // e.g. NewResultOriginal
}

// NewVariant derives the output stem from the input stem
func NewVariant(input string) Variant {
	return Variant{Input: input, Output: "NewResult" + input}
}

// Variants maps input stems to variants, in order
func Variants(inputs []string) []Variant {
	out := make([]Variant, len(inputs))
	for i, in := range inputs {
		out[i] = NewVariant(in)
	}
	return out
}

// InputFile is the Java file the variant reads
func (v Variant) InputFile() string { return v.Input + ".java" }

// OutputFile is the Java file the variant writes
func (v Variant) OutputFile() string { return v.Output + ".java" }

// ResultColumn holds the verdict label or the extracted method
func (v Variant) ResultColumn() string { return v.Output }

// TestColumn holds the test outcome
func (v Variant) TestColumn() string { return "TestResults" + v.Output }

// ListSamples returns the sample indexes found as sub directories of dir,
// ascending. Entries whose names are not integers are skipped.
func ListSamples(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading results dir: %w", err)
	}

	var indexes []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		index, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		indexes = append(indexes, index)
	}

	sort.Ints(indexes)
	return indexes, nil
}

// SampleDir returns the directory of one sample
func SampleDir(resultsDir string, index int) string {
	return filepath.Join(resultsDir, strconv.Itoa(index))
}
