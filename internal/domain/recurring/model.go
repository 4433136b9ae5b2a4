package recurring

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID             string
	UserID         string
	Description    string
	Category       string
	Amount         decimal.Decimal
	NextOccurrence time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Label is what the reminder shows: description when present, else category.
func (t Transaction) Label() string {
	if t.Description != "" {
		return t.Description
	}
	return t.Category
}
