// Package dataset reads the evaluation inputs: the metadata and instances
// CSV files and the per-sample directories of Java variants.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Metadata column names
const (
	ColIndex        = "index"
	ColSpanMethod   = "spanMethod"
	ColAbsolutePath = "absolutePath"
)

var (
	// ErrMissingColumn is returned when a CSV lacks a required column
	ErrMissingColumn = errors.New("missing column")

	// ErrUnknownSample is returned for an index absent from a CSV
	ErrUnknownSample = errors.New("unknown sample")
)

// Metadata locates one sample's method in its project
type Metadata struct {
	Index      int
	StartLine  int    // first line of the method span
	EndLine    int    // last line of the method span, 0 when absent
	SourcePath string // project relative, forward slashes
}

// ParseSpan parses a "start-end" method span
func ParseSpan(span string) (start, end int, err error) {
	startStr, endStr, _ := strings.Cut(strings.TrimSpace(span), "-")

	start, err = strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid span %q: %w", span, err)
	}

	if endStr != "" {
		end, err = strconv.Atoi(strings.TrimSpace(endStr))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid span %q: %w", span, err)
		}
	}

	return start, end, nil
}

// LoadMetadata reads the metadata CSV keyed by sample index
func LoadMetadata(path string) (map[int]Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening metadata: %w", err)
	}
	defer f.Close()

	return ReadMetadata(f)
}

// ReadMetadata parses metadata CSV content
func ReadMetadata(r io.Reader) (map[int]Metadata, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading metadata header: %w", err)
	}

	cols, err := columnIndex(header, ColIndex, ColSpanMethod, ColAbsolutePath)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}

	out := make(map[int]Metadata)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading metadata line %d: %w", line, err)
		}

		index, err := strconv.Atoi(strings.TrimSpace(field(record, cols[ColIndex])))
		if err != nil {
			return nil, fmt.Errorf("metadata line %d: invalid index: %w", line, err)
		}

		start, end, err := ParseSpan(field(record, cols[ColSpanMethod]))
		if err != nil {
			return nil, fmt.Errorf("metadata line %d: %w", line, err)
		}

		out[index] = Metadata{
			Index:      index,
			StartLine:  start,
			EndLine:    end,
			SourcePath: strings.TrimPrefix(field(record, cols[ColAbsolutePath]), "/"),
		}
	}

	return out, nil
}

// columnIndex maps the required column names to their positions
func columnIndex(header []string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
