package users

import "time"

type SubscriptionStatus string

const (
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusUnpaid            SubscriptionStatus = "unpaid"
	StatusCancelAtPeriodEnd SubscriptionStatus = "cancel_at_period_end"
)

// Entitled reports whether a status keeps pro features switched on.
func (s SubscriptionStatus) Entitled() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusCancelAtPeriodEnd:
		return true
	}
	return false
}

// Preferences are the per-user notification toggles. BudgetThreshold is a
// fraction (0.8 = alert at 80% of budget); zero means "use the default".
type Preferences struct {
	BudgetAlerts    bool
	BillReminders   bool
	SpendingAlerts  bool
	BudgetThreshold float64
}

type User struct {
	ID          string
	Email       string
	PushEnabled bool
	PushToken   string
	Prefs       Preferences

	IsPro                bool
	HasPaid              bool
	SubscriptionStatus   SubscriptionStatus
	StripeCustomerID     string
	StripeSubscriptionID string
	SubscriptionStart    *time.Time
	SubscriptionEnd      *time.Time
	TrialStart           *time.Time
	ScanCountThisMonth   int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BillingPatch is an absolute-value update of the billing fields. Nil fields
// are left untouched; ClearSubscription drops the subscription id and period
// end regardless of the pointer fields.
type BillingPatch struct {
	IsPro             *bool
	HasPaid           *bool
	Status            *SubscriptionStatus
	SubscriptionID    *string
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time
	ClearSubscription bool
}

func (p BillingPatch) IsZero() bool {
	return p.IsPro == nil && p.HasPaid == nil && p.Status == nil &&
		p.SubscriptionID == nil && p.SubscriptionStart == nil &&
		p.SubscriptionEnd == nil && !p.ClearSubscription
}
