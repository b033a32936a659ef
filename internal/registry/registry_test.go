package registry

import (
	"context"
	"testing"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSensors struct {
	conflicts int
	calls     int
	byID      map[string]*models.Sensor
}

func (f *fakeSensors) GetOrCreate(ctx context.Context, scope access.Scope, name string, ownerID *string) (*models.Sensor, error) {
	f.calls++
	if f.calls <= f.conflicts {
		return nil, errors.NewConflictError("not visible yet", nil)
	}
	return &models.Sensor{ID: "id-" + name, Name: name, OwnerID: ownerID}, nil
}

func (f *fakeSensors) Get(ctx context.Context, scope access.Scope, id string) (*models.Sensor, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, errors.NewNotFoundError("sensor not found", nil)
	}
	if !scope.Allows(s.OwnerID) {
		return nil, errors.NewAuthorizationError("sensor belongs to another owner", nil)
	}
	return s, nil
}

func (f *fakeSensors) List(ctx context.Context, scope access.Scope) ([]*models.Sensor, error) {
	return nil, nil
}

func (f *fakeSensors) Stats(ctx context.Context, scope access.Scope) ([]*models.SensorStats, error) {
	return nil, nil
}

type fakeCache struct {
	entries map[string]*models.Sensor
	evicted []string
}

func (c *fakeCache) key(ownerID *string, name string) string {
	if ownerID == nil {
		return "|" + name
	}
	return *ownerID + "|" + name
}

func (c *fakeCache) Get(ctx context.Context, ownerID *string, name string) (*models.Sensor, bool) {
	s, ok := c.entries[c.key(ownerID, name)]
	return s, ok
}

func (c *fakeCache) Set(ctx context.Context, s *models.Sensor) {
	c.entries[c.key(s.OwnerID, s.Name)] = s
}

func (c *fakeCache) EvictOwner(ctx context.Context, ownerID string) error {
	c.evicted = append(c.evicted, ownerID)
	return nil
}

var u1 = access.ScopeFor(models.Principal{ID: "u1"})

func TestResolveRetriesConflicts(t *testing.T) {
	repo := &fakeSensors{conflicts: 2}
	r := New(repo, nil)
	r.backoff = time.Millisecond

	s, err := r.Resolve(context.Background(), u1, "temp", models.OwnerRef("u1"))
	require.NoError(t, err)
	assert.Equal(t, "id-temp", s.ID)
	assert.Equal(t, 3, repo.calls)
}

func TestResolveGivesUpAfterThreeConflicts(t *testing.T) {
	repo := &fakeSensors{conflicts: 5}
	r := New(repo, nil)
	r.backoff = time.Millisecond

	_, err := r.Resolve(context.Background(), u1, "temp", models.OwnerRef("u1"))
	assert.True(t, errors.IsConflict(err))
	assert.Equal(t, 3, repo.calls)
}

func TestResolveUsesCache(t *testing.T) {
	repo := &fakeSensors{}
	cache := &fakeCache{entries: map[string]*models.Sensor{}}
	r := New(repo, cache)
	ctx := context.Background()

	first, err := r.Resolve(ctx, u1, "temp", models.OwnerRef("u1"))
	require.NoError(t, err)
	second, err := r.Resolve(ctx, u1, "temp", models.OwnerRef("u1"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.calls)

	// a cached sensor is still not handed to another owner
	_, err = r.Resolve(ctx, access.ScopeFor(models.Principal{ID: "u2"}), "temp", models.OwnerRef("u1"))
	assert.True(t, errors.IsAuthorization(err))

	require.NoError(t, r.Evict(ctx, "u1"))
	assert.Equal(t, []string{"u1"}, cache.evicted)
}

func TestResolveIDs(t *testing.T) {
	repo := &fakeSensors{byID: map[string]*models.Sensor{
		"a": {ID: "a", OwnerID: models.OwnerRef("u1")},
		"b": {ID: "b", OwnerID: models.OwnerRef("u2")},
	}}
	r := New(repo, nil)
	ctx := context.Background()

	got, err := r.ResolveIDs(ctx, u1, []string{"a", "a"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = r.ResolveIDs(ctx, u1, []string{"a", "b"})
	assert.True(t, errors.IsAuthorization(err))
	_, err = r.ResolveIDs(ctx, u1, []string{"zzz"})
	assert.True(t, errors.IsNotFound(err))
}
