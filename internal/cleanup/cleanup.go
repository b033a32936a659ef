package cleanup

import (
	"context"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Events emitted after a successful cleanup. Handlers receive the id of the
// removed thing: a sensor name, file id, owner id, sensor id or cutoff.
const (
	EventSensorDeleted  = "sensor.deleted"
	EventSensorCleared  = "sensor.cleared"
	EventFileDeleted    = "file.deleted"
	EventOwnerDeleted   = "owner.deleted"
	EventReadingsPruned = "readings.pruned"
)

// Evicter drops cached sensor lookups of an owner
type Evicter interface {
	Evict(ctx context.Context, ownerID string) error
}

// CleanupService coordinates bulk deletion of readings and owner data
type CleanupService struct {
	owners   repository.OwnerRepository
	readings repository.ReadingRepository
	blobs    repository.BlobStore
	sensors  Evicter
	events   *nuts.EventEmitter
}

// New creates a new CleanupService
func New(
	owners repository.OwnerRepository,
	readings repository.ReadingRepository,
	blobs repository.BlobStore,
	sensors Evicter,
) *CleanupService {
	return &CleanupService{
		owners:   owners,
		readings: readings,
		blobs:    blobs,
		sensors:  sensors,
		events:   nuts.NewEventEmitter(),
	}
}

// DeleteOwner removes the readings, sensors and files of an owner. The rows go
// in one transaction; blobs are removed after it commits.
func (s *CleanupService) DeleteOwner(ctx context.Context, scope access.Scope, ownerID string) (*models.OwnerPurge, error) {
	if !scope.IsAdmin() {
		return nil, errors.NewAuthorizationError("only admins can delete owners", nil)
	}
	if ownerID == "" {
		return nil, errors.NewValidationError("owner id is required", nil)
	}

	purge, err := s.owners.PurgeOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	for _, file := range purge.Files {
		if s.blobs != nil {
			if err := s.blobs.Delete(ctx, file.StorageKey); err != nil {
				nuts.L.Warnf("[Cleanup] Failed to delete blob %s of file %s: %v", file.StorageKey, file.ID, err)
			}
		}
		s.events.Emit(EventFileDeleted, file.ID)
	}
	for _, name := range purge.SensorNames {
		s.events.Emit(EventSensorDeleted, name)
	}

	if s.sensors != nil {
		if err := s.sensors.Evict(ctx, ownerID); err != nil {
			nuts.L.Warnf("[Cleanup] Failed to evict cached sensors of owner %s: %v", ownerID, err)
		}
	}

	nuts.L.Infof("[Cleanup] Owner %s removed: %d readings, %d sensors, %d files",
		ownerID, purge.Readings, len(purge.SensorNames), len(purge.Files))
	s.events.Emit(EventOwnerDeleted, ownerID)
	return purge, nil
}

// PruneBefore deletes the visible readings that ended before cutoff.
func (s *CleanupService) PruneBefore(ctx context.Context, scope access.Scope, cutoff time.Time) (int64, error) {
	deleted, err := s.readings.DeleteBefore(ctx, scope, cutoff)
	if err != nil {
		return 0, err
	}
	s.events.Emit(EventReadingsPruned, cutoff.UTC().Format(time.RFC3339))
	return deleted, nil
}

// ClearSensor deletes every reading of one sensor and keeps the sensor.
func (s *CleanupService) ClearSensor(ctx context.Context, scope access.Scope, sensorID string) (int64, error) {
	deleted, err := s.readings.DeleteBySensor(ctx, scope, sensorID)
	if err != nil {
		return 0, err
	}
	s.events.Emit(EventSensorCleared, sensorID)
	return deleted, nil
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(id string)) {
	s.events.On(event, nuts.NID("cleanup", 8), func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
