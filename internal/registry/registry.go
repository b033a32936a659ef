// Package registry resolves sensor names to stable sensor ids, fronting the
// sensor repository with an optional cache and retrying get-or-create races.
package registry

import (
	"context"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 20 * time.Millisecond
)

type Registry struct {
	sensors  repository.SensorRepository
	cache    repository.SensorCache
	attempts int
	backoff  time.Duration
}

// New creates a registry. cache may be nil.
func New(sensors repository.SensorRepository, cache repository.SensorCache) *Registry {
	return &Registry{
		sensors:  sensors,
		cache:    cache,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
}

// Resolve returns the sensor named name owned by ownerID, creating it on first
// use. Conflicts from concurrent creation are retried before being surfaced.
func (r *Registry) Resolve(ctx context.Context, scope access.Scope, name string, ownerID *string) (*models.Sensor, error) {
	if !scope.Allows(ownerID) {
		return nil, errors.NewAuthorizationError("cannot use sensors of another owner", nil)
	}
	if r.cache != nil {
		if sensor, ok := r.cache.Get(ctx, ownerID, name); ok {
			return sensor, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		sensor, err := r.sensors.GetOrCreate(ctx, scope, name, ownerID)
		if err == nil {
			if r.cache != nil {
				r.cache.Set(ctx, sensor)
			}
			return sensor, nil
		}
		if !errors.IsConflict(err) {
			return nil, err
		}

		lastErr = err
		nuts.L.Warnf("[Registry] get-or-create of %q conflicted (attempt %d/%d)", name, attempt, r.attempts)
		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.NewInternalError("sensor resolution cancelled", ctx.Err())
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}
	return nil, lastErr
}

// Get returns one sensor by id.
func (r *Registry) Get(ctx context.Context, scope access.Scope, id string) (*models.Sensor, error) {
	return r.sensors.Get(ctx, scope, id)
}

// ResolveIDs checks every id in order and returns the sensors. The first
// unknown id yields NotFound, the first foreign one Authorization.
func (r *Registry) ResolveIDs(ctx context.Context, scope access.Scope, ids []string) ([]*models.Sensor, error) {
	sensors := make([]*models.Sensor, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		sensor, err := r.sensors.Get(ctx, scope, id)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, sensor)
	}
	return sensors, nil
}

// List returns the visible sensors ordered by name.
func (r *Registry) List(ctx context.Context, scope access.Scope) ([]*models.Sensor, error) {
	return r.sensors.List(ctx, scope)
}

// Stats returns per sensor reading statistics.
func (r *Registry) Stats(ctx context.Context, scope access.Scope) ([]*models.SensorStats, error) {
	return r.sensors.Stats(ctx, scope)
}

// Evict drops cached lookups of an owner.
func (r *Registry) Evict(ctx context.Context, ownerID string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.EvictOwner(ctx, ownerID)
}
