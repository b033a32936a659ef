package models

import (
	"strings"
	"time"
)

// ReadingQuery selects readings of a sensor set inside [Start, End], either
// raw or resampled by Bucket.
type ReadingQuery struct {
	SensorIDs []string
	Start     time.Time
	End       time.Time
	Bucket    Bucket
}

// QueryParams is the wire form of a ReadingQuery (query string).
type QueryParams struct {
	SensorIDs []string `schema:"sensor_id" validate:"required,min=1,dive,required"`
	Start     string   `schema:"start" validate:"required,instant"`
	End       string   `schema:"end" validate:"required,instant"`
	Bucket    string   `schema:"bucket" validate:"omitempty,oneof=minute hour day"`
}

// ExportParams is the query string of a CSV/ZIP export.
type ExportParams struct {
	SensorIDs []string `schema:"sensor_id" validate:"required,min=1,dive,required"`
	Start     string   `schema:"start" validate:"required,instant"`
	End       string   `schema:"end" validate:"required,instant"`
}

// ReadingListParams is the query string of the paginated readings listing.
type ReadingListParams struct {
	SensorIDs []string `schema:"sensor_id"`
	Start     string   `schema:"start" validate:"omitempty,instant"`
	End       string   `schema:"end" validate:"omitempty,instant"`
	Cursor    string   `schema:"cursor"`
	Limit     int      `schema:"limit" validate:"omitempty,min=1,max=1000"`
}

// PruneParams is the query string of the bulk delete by cutoff.
type PruneParams struct {
	Before string `schema:"before" validate:"required,instant"`
}

// FileListParams filters the file listing.
type FileListParams struct {
	Kind string `schema:"kind" validate:"omitempty,oneof=video file"`
}

// ReadingSubmission is the JSON body used to submit a reading by sensor name.
type ReadingSubmission struct {
	SensorName string   `json:"sensor_name" validate:"required,max=255"`
	Start      string   `json:"start_time" validate:"required,instant"`
	End        string   `json:"end_time" validate:"omitempty,instant"`
	Value      *float64 `json:"value" validate:"required"`
	Unit       string   `json:"unit" validate:"max=64"`
}

// ReadingCorrection is the JSON body of a value/unit update.
type ReadingCorrection struct {
	Value *float64 `json:"value" validate:"required"`
	Unit  string   `json:"unit" validate:"max=64"`
}

// SplitIDs flattens repeated and comma separated id parameters, dropping blanks.
func SplitIDs(raw []string) []string {
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		for _, id := range strings.Split(r, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
