package resample

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memScanner struct {
	readings []*models.Reading
}

func (m *memScanner) Scan(ctx context.Context, scope access.Scope, f repository.ScanFilter, fn func(*models.Reading) error) error {
	rows := append([]*models.Reading(nil), m.readings...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Start.Equal(rows[j].Start) {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].Start.Before(rows[j].Start)
	})
	ids := map[string]bool{}
	for _, id := range f.SensorIDs {
		ids[id] = true
	}
	for _, r := range rows {
		end := r.Start
		if r.End != nil {
			end = *r.End
		}
		if !ids[r.SensorID] || r.Start.Before(f.Start) || end.After(f.End) {
			continue
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

type memResolver struct {
	owners map[string]string
}

func (m memResolver) ResolveIDs(ctx context.Context, scope access.Scope, ids []string) ([]*models.Sensor, error) {
	out := []*models.Sensor{}
	for _, id := range ids {
		owner, ok := m.owners[id]
		if !ok {
			return nil, errors.NewNotFoundError("sensor not found", nil)
		}
		if !scope.Allows(models.OwnerRef(owner)) {
			return nil, errors.NewAuthorizationError("sensor belongs to another owner", nil)
		}
		out = append(out, &models.Sensor{ID: id, OwnerID: models.OwnerRef(owner)})
	}
	return out, nil
}

var (
	u1   = access.ScopeFor(models.Principal{ID: "u1"})
	base = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
)

func reading(id int64, sensor string, offset time.Duration, value float64) *models.Reading {
	return &models.Reading{ID: id, SensorID: sensor, Start: base.Add(offset), Value: value, Unit: "C"}
}

func newEngine(rows ...*models.Reading) *Engine {
	return New(&memScanner{readings: rows}, memResolver{owners: map[string]string{"s1": "u1", "s2": "u1", "x": "u2"}})
}

func TestHourBucketMean(t *testing.T) {
	e := newEngine(
		reading(1, "s1", 0, 10),
		reading(2, "s1", 20*time.Minute, 20),
		reading(3, "s1", 40*time.Minute, 30),
	)

	got, err := e.Query(context.Background(), u1, models.ReadingQuery{
		SensorIDs: []string{"s1"}, Start: base, End: base.Add(time.Hour), Bucket: models.BucketHour,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 20.0, got[0].Value)
	assert.Equal(t, 3, got[0].Count)
	assert.True(t, got[0].Timestamp.Equal(base))
	assert.Empty(t, got[0].Unit)
}

func TestBucketsOrderedByTimeThenSensor(t *testing.T) {
	e := newEngine(
		reading(1, "s2", 0, 1),
		reading(2, "s1", time.Minute, 3),
		reading(3, "s2", 61*time.Minute, 5),
		reading(4, "s1", 62*time.Minute, 7),
		reading(5, "s1", 63*time.Minute, 9),
	)

	got, err := e.Query(context.Background(), u1, models.ReadingQuery{
		SensorIDs: []string{"s1", "s2"}, Start: base, End: base.Add(2 * time.Hour), Bucket: models.BucketHour,
	})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "s1", got[0].SensorID)
	assert.Equal(t, 3.0, got[0].Value)
	assert.Equal(t, "s2", got[1].SensorID)
	assert.Equal(t, 1.0, got[1].Value)
	assert.Equal(t, "s1", got[2].SensorID)
	assert.Equal(t, 8.0, got[2].Value)
	assert.True(t, got[2].Timestamp.Equal(base.Add(time.Hour)))
	assert.Equal(t, "s2", got[3].SensorID)
}

func TestRawQuery(t *testing.T) {
	e := newEngine(reading(1, "s1", time.Minute, 4), reading(2, "s1", 0, 2))

	got, err := e.Query(context.Background(), u1, models.ReadingQuery{
		SensorIDs: []string{"s1"}, Start: base, End: base.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Value)
	assert.Equal(t, "C", got[0].Unit)
	assert.Equal(t, 1, got[0].Count)
}

func TestEmptyWindow(t *testing.T) {
	e := newEngine(reading(1, "s1", 0, 4))

	got, err := e.Query(context.Background(), u1, models.ReadingQuery{
		SensorIDs: []string{"s1"}, Start: base.Add(24 * time.Hour), End: base.Add(48 * time.Hour), Bucket: models.BucketDay,
	})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestQueryValidation(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	_, err := e.Query(ctx, u1, models.ReadingQuery{Start: base, End: base})
	assert.True(t, errors.IsValidation(err))

	_, err = e.Query(ctx, u1, models.ReadingQuery{SensorIDs: []string{"s1"}, Start: base, End: base.Add(-time.Second)})
	assert.True(t, errors.IsValidation(err))

	_, err = e.Query(ctx, u1, models.ReadingQuery{SensorIDs: []string{"s1"}, Start: base, End: base, Bucket: "week"})
	assert.True(t, errors.IsValidation(err))

	_, err = e.Query(ctx, u1, models.ReadingQuery{SensorIDs: []string{"x"}, Start: base, End: base})
	assert.True(t, errors.IsAuthorization(err))

	_, err = e.Query(ctx, u1, models.ReadingQuery{SensorIDs: []string{"nope"}, Start: base, End: base})
	assert.True(t, errors.IsNotFound(err))
}
