// Package ulid wraps github.com/oklog/ulid/v2 with prefixed, time sortable
// identifiers for runs and sample results.
package ulid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// PrefixRun marks evaluation run IDs
	PrefixRun = "run"

	// PrefixResult marks per-sample result IDs
	PrefixResult = "res"

	// PrefixSeparator is used to separate the prefix from the ULID
	PrefixSeparator = "-"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// ULID is a ulid.ULID with an optional prefix
type ULID struct {
	ulid.ULID
	prefix string
}

// Generate creates a new ULID with the current timestamp
func Generate() ULID {
	return NewWithTime(time.Now())
}

// GenerateWithPrefix creates a new ULID with the current timestamp and a prefix
func GenerateWithPrefix(prefix string) ULID {
	id := NewWithTime(time.Now())
	id.prefix = prefix
	return id
}

// NewWithTime creates a new ULID with a specific timestamp.
// Monotonic entropy keeps IDs from the same millisecond ordered.
func NewWithTime(t time.Time) ULID {
	entropyLock.Lock()
	id := ulid.MustNew(ulid.Timestamp(t), entropy)
	entropyLock.Unlock()
	return ULID{ULID: id}
}

// Parse parses a plain or prefixed ULID string
func Parse(id string) (ULID, error) {
	prefix, rawID, found := strings.Cut(id, PrefixSeparator)
	if !found {
		prefix, rawID = "", id
	}

	parsed, err := ulid.Parse(rawID)
	if err != nil {
		return ULID{}, fmt.Errorf("invalid ULID %q: %w", id, err)
	}
	return ULID{ULID: parsed, prefix: prefix}, nil
}

// Validate reports whether id parses
func Validate(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Prefix returns the prefix, or ""
func (u ULID) Prefix() string {
	return u.prefix
}

// String returns the prefixed representation
func (u ULID) String() string {
	if u.prefix == "" {
		return u.ULID.String()
	}
	return u.prefix + PrefixSeparator + u.ULID.String()
}

// Time returns the timestamp encoded in the ULID
func (u ULID) Time() time.Time {
	return ulid.Time(u.ULID.Time())
}

// RunID generates a new evaluation run ID
func RunID() string {
	return GenerateWithPrefix(PrefixRun).String()
}

// ResultID generates a new sample result ID
func ResultID() string {
	return GenerateWithPrefix(PrefixResult).String()
}
