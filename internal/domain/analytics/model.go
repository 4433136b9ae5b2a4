package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the externally-maintained per-user aggregate the alert rules
// read. The aggregation pipeline that produces it lives outside this service.
type Snapshot struct {
	UserID        string
	MTDByCategory map[string]decimal.Decimal
	DailyAverage  decimal.Decimal
	UpdatedAt     time.Time
}

// Spent returns the month-to-date spend for a category, zero when absent.
func (s *Snapshot) Spent(category string) decimal.Decimal {
	if s == nil || s.MTDByCategory == nil {
		return decimal.Zero
	}
	return s.MTDByCategory[category]
}
