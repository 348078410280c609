package domain

// StudentStatus tracks whether a student currently trains with the academy.
type StudentStatus string

const (
	StudentActive  StudentStatus = "active"
	StudentPassive StudentStatus = "passive"
)

// FeeStatus is the monthly fee state shown on the roster.
type FeeStatus string

const (
	FeePaid    FeeStatus = "paid"
	FeePending FeeStatus = "pending"
	FeeOverdue FeeStatus = "overdue"
)

// Student is an athlete enrolled in one of the academy's branches.
type Student struct {
	Meta      `bson:",inline"`
	Name      string             `bson:"name" json:"name" validate:"required"`
	Sport     string             `bson:"sport" json:"sport" validate:"required"`
	Branch    string             `bson:"branch,omitempty" json:"branch,omitempty"`
	Group     string             `bson:"group,omitempty" json:"group,omitempty"`
	Status    StudentStatus      `bson:"status" json:"status" validate:"oneof=active passive"`
	Stats     map[string]float64 `bson:"stats,omitempty" json:"stats,omitempty"` // e.g. "goals", "attendance"
	FeeStatus FeeStatus          `bson:"feeStatus" json:"feeStatus" validate:"omitempty,oneof=paid pending overdue"`

	// Parent portal credentials. The hash is persisted, never returned by the API.
	ParentName         string `bson:"parentName,omitempty" json:"parentName,omitempty"`
	ParentPhone        string `bson:"parentPhone,omitempty" json:"parentPhone,omitempty"`
	ParentUsername     string `bson:"parentUsername,omitempty" json:"parentUsername,omitempty"`
	ParentPasswordHash string `bson:"parentPasswordHash,omitempty" json:"parentPasswordHash,omitempty"`
}

func (s *Student) IsActive() bool {
	return s.Status == StudentActive
}
