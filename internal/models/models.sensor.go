// FilePath: internal/models/models.sensor.go
package models

import "time"

// Sensor is a named measurement source scoped to an owner. The (Name, OwnerID)
// pair identifies one logical sensor; OwnerID is nil for legacy unowned sensors.
type Sensor struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   *string   `json:"owner_id,omitempty" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SensorStats summarizes the readings stored for one sensor.
type SensorStats struct {
	SensorID     string     `json:"sensor_id" db:"sensor_id"`
	Name         string     `json:"name" db:"name"`
	OwnerID      *string    `json:"owner_id,omitempty" db:"owner_id"`
	ReadingCount int64      `json:"reading_count" db:"reading_count"`
	FirstReading *time.Time `json:"first_reading,omitempty" db:"first_reading"`
	LastReading  *time.Time `json:"last_reading,omitempty" db:"last_reading"`
}

// Principal is the authenticated actor of a request.
type Principal struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// OwnerRef returns a pointer to id, or nil when id is empty.
func OwnerRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// OwnerPurge reports what an owner cascade removed.
type OwnerPurge struct {
	OwnerID     string       `json:"owner_id"`
	Readings    int64        `json:"readings_deleted"`
	SensorNames []string     `json:"sensors_deleted"`
	Files       []*FileAsset `json:"files_deleted"`
}
