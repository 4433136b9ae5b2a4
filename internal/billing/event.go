// Package billing maps Stripe lifecycle events onto the user record's
// billing fields and exposes the checkout/portal/cancel API surface.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"

	"github.com/sevafinance/notifier/internal/domain/users"
)

// Kind is the closed set of billing events we reconcile. Anything else is a
// logged no-op.
type Kind string

const (
	KindCheckoutCompleted   Kind = "checkout.session.completed"
	KindInvoicePaid         Kind = "invoice.payment_succeeded"
	KindInvoiceFailed       Kind = "invoice.payment_failed"
	KindSubscriptionUpdated Kind = "customer.subscription.updated"
	KindSubscriptionDeleted Kind = "customer.subscription.deleted"
	KindUnknown             Kind = ""
)

const (
	ModeSubscription = "subscription"
	ModePayment      = "payment"
)

// SubscriptionSnapshot is the slice of provider subscription state the
// reconciler needs: status and period bounds at the time of the event.
type SubscriptionSnapshot struct {
	ID          string
	Status      users.SubscriptionStatus
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// Event is one inbound billing event, already verified and parsed. Only its
// effects are persisted, never the event itself.
type Event struct {
	ID           string
	Kind         Kind
	UserID       string // checkout client reference; empty otherwise
	CustomerID   string
	CheckoutMode string
	AmountTotal  decimal.Decimal
	Currency     string
	Subscription *SubscriptionSnapshot
}

// KindOf maps a provider event type onto the closed set.
func KindOf(t string) Kind {
	switch Kind(t) {
	case KindCheckoutCompleted, KindInvoicePaid, KindInvoiceFailed,
		KindSubscriptionUpdated, KindSubscriptionDeleted:
		return Kind(t)
	}
	return KindUnknown
}

// statusOf folds Stripe's cancel_at_period_end flag into the status mirror:
// an active subscription marked for cancellation stays entitled until the
// period lapses.
func statusOf(st stripe.SubscriptionStatus, cancelAtPeriodEnd bool) users.SubscriptionStatus {
	if cancelAtPeriodEnd && st == stripe.SubscriptionStatusActive {
		return users.StatusCancelAtPeriodEnd
	}
	return users.SubscriptionStatus(st)
}

// SnapshotOf extracts the reconciler's view of a Stripe subscription.
func SnapshotOf(sub *stripe.Subscription) *SubscriptionSnapshot {
	if sub == nil {
		return nil
	}
	snap := &SubscriptionSnapshot{
		ID:     sub.ID,
		Status: statusOf(sub.Status, sub.CancelAtPeriodEnd),
	}
	if sub.CurrentPeriodStart > 0 {
		t := time.Unix(sub.CurrentPeriodStart, 0).UTC()
		snap.PeriodStart = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		snap.PeriodEnd = &t
	}
	return snap
}
