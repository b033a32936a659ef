// Package resample answers range queries over readings, either raw or
// averaged into minute, hour or day buckets.
package resample

import (
	"context"
	"sort"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/repository"
)

// Scanner is the part of the reading store the engine reads from.
type Scanner interface {
	Scan(ctx context.Context, scope access.Scope, filter repository.ScanFilter, fn func(*models.Reading) error) error
}

// Resolver checks that every sensor id exists and is visible.
type Resolver interface {
	ResolveIDs(ctx context.Context, scope access.Scope, ids []string) ([]*models.Sensor, error)
}

type Engine struct {
	readings Scanner
	sensors  Resolver
}

func New(readings Scanner, sensors Resolver) *Engine {
	return &Engine{readings: readings, sensors: sensors}
}

// Validate checks a query without touching the store.
func Validate(q models.ReadingQuery) error {
	if len(q.SensorIDs) == 0 {
		return errors.NewValidationError("at least one sensor id is required", nil)
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return errors.NewValidationError("start and end are required", nil)
	}
	if q.End.Before(q.Start) {
		return errors.NewValidationError("end must not be before start", nil)
	}
	if !q.Bucket.Valid() {
		return errors.NewValidationError("bucket must be one of minute, hour, day", nil)
	}
	return nil
}

// Query collects the result of Stream. An empty window yields an empty slice.
func (e *Engine) Query(ctx context.Context, scope access.Scope, q models.ReadingQuery) ([]models.Sample, error) {
	samples := []models.Sample{}
	err := e.Stream(ctx, scope, q, func(s models.Sample) error {
		samples = append(samples, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// Stream emits the samples of q in order. Raw rows come in scan order; bucketed
// rows are ordered by bucket, then sensor id. Only the accumulators of the
// current bucket are held in memory.
func (e *Engine) Stream(ctx context.Context, scope access.Scope, q models.ReadingQuery, emit func(models.Sample) error) error {
	if err := Validate(q); err != nil {
		return err
	}
	if _, err := e.sensors.ResolveIDs(ctx, scope, q.SensorIDs); err != nil {
		return err
	}

	filter := repository.ScanFilter{SensorIDs: q.SensorIDs, Start: q.Start, End: q.End}
	if q.Bucket == models.BucketNone {
		return e.readings.Scan(ctx, scope, filter, func(r *models.Reading) error {
			return emit(models.Sample{
				SensorID:  r.SensorID,
				Timestamp: r.Start,
				Value:     r.Value,
				Unit:      r.Unit,
				Count:     1,
			})
		})
	}

	b := &bucketer{bucket: q.Bucket, emit: emit, acc: map[string]*accumulator{}}
	if err := e.readings.Scan(ctx, scope, filter, b.add); err != nil {
		return err
	}
	return b.flush()
}

type accumulator struct {
	sum   float64
	count int
}

type bucketer struct {
	bucket  models.Bucket
	emit    func(models.Sample) error
	current time.Time
	started bool
	acc     map[string]*accumulator
}

func (b *bucketer) add(r *models.Reading) error {
	ts := b.bucket.Truncate(r.Start)
	if b.started && !ts.Equal(b.current) {
		if err := b.flush(); err != nil {
			return err
		}
	}
	b.current, b.started = ts, true

	a, ok := b.acc[r.SensorID]
	if !ok {
		a = &accumulator{}
		b.acc[r.SensorID] = a
	}
	a.sum += r.Value
	a.count++
	return nil
}

func (b *bucketer) flush() error {
	if len(b.acc) == 0 {
		return nil
	}
	ids := make([]string, 0, len(b.acc))
	for id := range b.acc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		a := b.acc[id]
		if err := b.emit(models.Sample{
			SensorID:  id,
			Timestamp: b.current,
			Value:     a.sum / float64(a.count),
			Count:     a.count,
		}); err != nil {
			return err
		}
	}
	b.acc = map[string]*accumulator{}
	return nil
}
