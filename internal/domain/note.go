package domain

// NoteStatus tracks whether a trainer note has been read by management.
type NoteStatus string

const (
	NoteNew  NoteStatus = "new"
	NoteRead NoteStatus = "read"
)

// TrainerNote is a message from a trainer about a group, a student or the academy.
type TrainerNote struct {
	Meta      `bson:",inline"`
	TrainerID string     `bson:"trainerId,omitempty" json:"trainerId,omitempty"`
	Scope     string     `bson:"scope" json:"scope"` // e.g. "group", "student", "general"
	Priority  string     `bson:"priority" json:"priority" validate:"omitempty,oneof=low normal high"`
	Status    NoteStatus `bson:"status" json:"status" validate:"oneof=new read"`
	Content   string     `bson:"content" json:"content" validate:"required"`
}
