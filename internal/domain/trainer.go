package domain

// Trainer is a coach working for the academy.
type Trainer struct {
	Meta      `bson:",inline"`
	Name      string   `bson:"name" json:"name" validate:"required"`
	Specialty string   `bson:"specialty,omitempty" json:"specialty,omitempty"`
	Groups    []string `bson:"groups,omitempty" json:"groups,omitempty"`
	Bio       string   `bson:"bio,omitempty" json:"bio,omitempty"`
	PhotoURL  string   `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	PhotoKey  string   `bson:"photoKey,omitempty" json:"photoKey,omitempty"` // object storage key, internal
}
