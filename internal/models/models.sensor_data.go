// FilePath: internal/models/models.sensor_data.go
package models

import "time"

// Reading is a single sensor measurement over [Start, End].
type Reading struct {
	ID        int64      `json:"id" db:"id"`
	SensorID  string     `json:"sensor_id" db:"sensor_id"`
	OwnerID   *string    `json:"owner_id,omitempty" db:"owner_id"`
	Start     time.Time  `json:"start_time" db:"start_ts"`
	End       *time.Time `json:"end_time,omitempty" db:"end_ts"`
	Value     float64    `json:"value" db:"value"`
	Unit      string     `json:"unit" db:"unit"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// ReadingInput is what a caller submits to create a reading.
type ReadingInput struct {
	SensorID string
	Start    time.Time
	End      *time.Time
	Value    float64
	Unit     string
}

// Bucket is the resample width of an aggregated query.
type Bucket string

const (
	BucketNone   Bucket = ""
	BucketMinute Bucket = "minute"
	BucketHour   Bucket = "hour"
	BucketDay    Bucket = "day"
)

// Valid reports whether b is a known bucket (or none).
func (b Bucket) Valid() bool {
	switch b {
	case BucketNone, BucketMinute, BucketHour, BucketDay:
		return true
	}
	return false
}

// Truncate returns the start of the bucket t falls into, in UTC.
func (b Bucket) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch b {
	case BucketMinute:
		return t.Truncate(time.Minute)
	case BucketHour:
		return t.Truncate(time.Hour)
	case BucketDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t
}

// Sample is one row of a query result. For bucketed queries Timestamp is the
// bucket start, Value the mean and Unit is empty.
type Sample struct {
	SensorID  string    `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Count     int       `json:"count"`
}

// ReadingPage is a cursor-paginated slice of readings.
type ReadingPage struct {
	Readings   []Reading `json:"readings"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
