package domain

// EntryType separates money coming in from money going out.
type EntryType string

const (
	EntryIncome  EntryType = "income"
	EntryExpense EntryType = "expense"
)

// FinanceEntry is one line of the academy ledger.
type FinanceEntry struct {
	Meta        `bson:",inline"`
	Type        EntryType `bson:"type" json:"type" validate:"oneof=income expense"`
	Amount      float64   `bson:"amount" json:"amount" validate:"gt=0"`
	Date        string    `bson:"date" json:"date" validate:"required"` // YYYY-MM-DD
	Category    string    `bson:"category,omitempty" json:"category,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
}
