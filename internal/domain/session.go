package domain

// TrainingSession is a recurring slot on the weekly schedule.
type TrainingSession struct {
	Meta      `bson:",inline"`
	Day       string `bson:"day" json:"day" validate:"required"`   // e.g. "Monday"
	Time      string `bson:"time" json:"time" validate:"required"` // e.g. "17:30"
	Group     string `bson:"group" json:"group" validate:"required"`
	Location  string `bson:"location,omitempty" json:"location,omitempty"`
	TrainerID string `bson:"trainerId,omitempty" json:"trainerId,omitempty"` // not enforced against trainers
}
