package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate_TruncatesTimeOfDay(t *testing.T) {
	input := time.Date(2024, 1, 1, 15, 42, 7, 123, time.UTC)

	got := NormalizeDate(input)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestNormalizeDate_ConvertsZoneBeforeTruncating(t *testing.T) {
	// 2024-01-01 23:30 UTC-5 is already 2024-01-02 in UTC
	zone := time.FixedZone("UTC-5", -5*60*60)
	input := time.Date(2024, 1, 1, 23, 30, 0, 0, zone)

	got := NormalizeDate(input)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_DateOnly(t *testing.T) {
	got, err := ParseDate("2024-01-01")

	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_FullTimestampIsTruncated(t *testing.T) {
	got, err := ParseDate("2024-03-15T18:04:05Z")

	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("not-a-date")

	assert.Error(t, err)
}
