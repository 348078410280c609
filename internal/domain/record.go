package domain

import "time"

// Collection names. They double as the local store keys (after the
// configured prefix) and as the cloud collection names.
const (
	CollectionStudents = "students"
	CollectionTrainers = "trainers"
	CollectionSessions = "sessions"
	CollectionFinance  = "finance"
	CollectionMedia    = "media"
	CollectionDrills   = "drills"
	CollectionNotes    = "notes"
)

// Collections lists every collection in the order they are synced.
var Collections = []string{
	CollectionStudents,
	CollectionTrainers,
	CollectionSessions,
	CollectionFinance,
	CollectionMedia,
	CollectionDrills,
	CollectionNotes,
}

// Record is implemented by every entity stored in a collection.
type Record interface {
	RecordID() string
	LastUpdated() *time.Time
}

// Meta carries the identity and the cloud timestamps shared by all records.
// CreatedAt and UpdatedAt are stamped by the cloud store, never by callers.
type Meta struct {
	ID        string     `bson:"_id,omitempty" json:"id" validate:"required"`
	CreatedAt *time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

func (m Meta) RecordID() string { return m.ID }

func (m Meta) LastUpdated() *time.Time { return m.UpdatedAt }

// SetID replaces the record id. Only used for promoting pending-local ids.
func (m *Meta) SetID(id string) { m.ID = id }
