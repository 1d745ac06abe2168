package service

import (
	"testing"
	"time"

	"github.com/plantlog/plantlog-server/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveTimestamp(t *testing.T) {
	s := &DefaultService{logger: utils.NewLogger()}

	// Calendar date maps to midnight UTC of that day
	got := s.effectiveTimestamp("2024-01-10")
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), got)

	// RFC3339 is honored and normalized to UTC
	got = s.effectiveTimestamp("2024-01-10T15:04:05+02:00")
	assert.True(t, got.Equal(time.Date(2024, 1, 10, 13, 4, 5, 0, time.UTC)))
	assert.Equal(t, time.UTC, got.Location())

	// Empty and malformed input both fall back to now
	for _, raw := range []string{"", "10/01/2024", "yesterday"} {
		before := time.Now().UTC()
		got = s.effectiveTimestamp(raw)
		assert.False(t, got.Before(before.Add(-time.Second)), "input %q", raw)
		assert.False(t, got.After(time.Now().UTC().Add(time.Second)), "input %q", raw)
	}
}
