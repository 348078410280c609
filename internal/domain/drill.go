package domain

// Drill is a training exercise, authored by hand or generated by the assistant.
type Drill struct {
	Meta        `bson:",inline"`
	Title       string   `bson:"title" json:"title" validate:"required"`
	Category    string   `bson:"category" json:"category"`
	Difficulty  string   `bson:"difficulty,omitempty" json:"difficulty,omitempty"` // e.g. "easy", "medium", "hard"
	Equipment   []string `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	AIGenerated bool     `bson:"aiGenerated" json:"aiGenerated"`
}
