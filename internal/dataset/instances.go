package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Instances column names
const (
	ColProject    = "project"
	ColMethodName = "methodName"
)

// Instances is the instances CSV held in memory. Unknown columns are kept
// and written back unchanged; result columns are appended on first use.
type Instances struct {
	mu      sync.RWMutex
	path    string
	header  []string
	cols    map[string]int
	rows    [][]string
	byIndex map[int]int
}

// LoadInstances reads the instances CSV
func LoadInstances(path string) (*Instances, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening instances: %w", err)
	}
	defer f.Close()

	inst, err := ReadInstances(f)
	if err != nil {
		return nil, err
	}
	inst.path = path
	return inst, nil
}

// ReadInstances parses instances CSV content
func ReadInstances(r io.Reader) (*Instances, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading instances: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("instances: %w: %s", ErrMissingColumn, ColIndex)
	}

	header := records[0]
	cols, err := columnIndex(header, ColIndex, ColProject, ColMethodName)
	if err != nil {
		return nil, fmt.Errorf("instances: %w", err)
	}

	inst := &Instances{
		header:  header,
		cols:    cols,
		rows:    make([][]string, 0, len(records)-1),
		byIndex: make(map[int]int, len(records)-1),
	}

	for i, record := range records[1:] {
		row := make([]string, len(header))
		copy(row, record)

		index, err := strconv.Atoi(strings.TrimSpace(row[cols[ColIndex]]))
		if err != nil {
			return nil, fmt.Errorf("instances line %d: invalid index: %w", i+2, err)
		}

		inst.byIndex[index] = len(inst.rows)
		inst.rows = append(inst.rows, row)
	}

	return inst, nil
}

// Len returns the number of rows
func (in *Instances) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.rows)
}

// Has reports whether the sample index has a row
func (in *Instances) Has(index int) bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	_, ok := in.byIndex[index]
	return ok
}

// Get returns a cell, or "" when the column does not exist
func (in *Instances) Get(index int, column string) (string, error) {
	in.mu.RLock()
	defer in.mu.RUnlock()

	row, ok := in.byIndex[index]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownSample, index)
	}
	col, ok := in.cols[column]
	if !ok {
		return "", nil
	}
	return in.rows[row][col], nil
}

// Set writes a cell, adding the column when needed
func (in *Instances) Set(index int, column, value string) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	row, ok := in.byIndex[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSample, index)
	}

	col, ok := in.cols[column]
	if !ok {
		col = len(in.header)
		in.header = append(in.header, column)
		in.cols[column] = col
		for i := range in.rows {
			in.rows[i] = append(in.rows[i], "")
		}
	}

	in.rows[row][col] = value
	return nil
}

// Project returns the project directory name of a sample
func (in *Instances) Project(index int) (string, error) {
	return in.Get(index, ColProject)
}

// MethodName returns the name of the method under evaluation
func (in *Instances) MethodName(index int) (string, error) {
	return in.Get(index, ColMethodName)
}

// Header returns a copy of the column names
func (in *Instances) Header() []string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return append([]string(nil), in.header...)
}

// Write encodes the table as CSV
func (in *Instances) Write(w io.Writer) error {
	in.mu.RLock()
	defer in.mu.RUnlock()

	writer := csv.NewWriter(w)
	if err := writer.Write(in.header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := writer.WriteAll(in.rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// Save writes the table back to the file it was loaded from
func (in *Instances) Save() error {
	if in.path == "" {
		return fmt.Errorf("instances were not loaded from a file")
	}
	return in.SaveAs(in.path)
}

// SaveAs writes the table to path through a temporary file and a rename
func (in *Instances) SaveAs(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".instances-*.csv")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := in.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
