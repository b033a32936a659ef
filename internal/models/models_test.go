package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstant(t *testing.T) {
	got, err := ParseInstant("2024-01-01T02:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())

	for _, bad := range []string{"", "2024-01-01T00:00:00", "2024-01-01 00:00:00", "yesterday"} {
		_, err := ParseInstant(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseOptionalInstant(t *testing.T) {
	got, err := ParseOptionalInstant("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseOptionalInstant("2024-01-01T00:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, got)

	_, err = ParseOptionalInstant("2024-01-01T00:00")
	assert.Error(t, err)
}

func TestBucketTruncate(t *testing.T) {
	ts := time.Date(2024, 3, 5, 13, 47, 59, 500, time.FixedZone("CET", 3600))

	assert.Equal(t, time.Date(2024, 3, 5, 12, 47, 0, 0, time.UTC), BucketMinute.Truncate(ts))
	assert.Equal(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), BucketHour.Truncate(ts))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), BucketDay.Truncate(ts))
	assert.True(t, BucketNone.Valid())
	assert.False(t, Bucket("week").Valid())
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitIDs([]string{"a, b", "", " c "}))
	assert.Empty(t, SplitIDs(nil))
}
