package ulid

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	id1 := Generate()
	id2 := Generate()

	assert.NotEqual(t, id1.String(), id2.String())
	assert.Empty(t, id1.Prefix())
	assert.Len(t, id1.String(), 26)
}

func TestMonotonicOrder(t *testing.T) {
	now := time.Now()
	prev := NewWithTime(now).String()
	for i := 0; i < 100; i++ {
		next := NewWithTime(now).String()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestParse(t *testing.T) {
	plain := Generate()
	parsed, err := Parse(plain.String())
	require.NoError(t, err)
	assert.Equal(t, plain.ULID, parsed.ULID)
	assert.Empty(t, parsed.Prefix())

	prefixed := GenerateWithPrefix(PrefixRun)
	parsed, err = Parse(prefixed.String())
	require.NoError(t, err)
	assert.Equal(t, prefixed, parsed)
	assert.Equal(t, PrefixRun, parsed.Prefix())

	_, err = Parse("run-not-a-ulid")
	assert.Error(t, err)
	assert.False(t, Validate("garbage"))
}

func TestDomainIDs(t *testing.T) {
	tests := []struct {
		name   string
		fn     func() string
		prefix string
	}{
		{"RunID", RunID, PrefixRun},
		{"ResultID", ResultID, PrefixResult},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id := tc.fn()
			assert.True(t, strings.HasPrefix(id, tc.prefix+PrefixSeparator))

			parsed, err := Parse(id)
			require.NoError(t, err)
			assert.Equal(t, tc.prefix, parsed.Prefix())
			assert.WithinDuration(t, time.Now(), parsed.Time(), time.Minute)
		})
	}
}
