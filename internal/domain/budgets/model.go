package budgets

import (
	"time"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID        int64
	UserID    string
	Category  string
	Amount    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
