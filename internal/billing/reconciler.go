package billing

import "github.com/sevafinance/notifier/internal/domain/users"

// Outcome is what one event does to the owning user: an absolute-value patch
// plus at most one analytics record. Replaying the same event produces the
// same outcome, so webhook redelivery converges.
type Outcome struct {
	Patch            users.BillingPatch
	AnalyticsKind    string
	AnalyticsPayload map[string]any
}

func boolPtr(b bool) *bool { return &b }

// proFromStatus derives the entitlement bit from a status write. A transition
// into canceled/unpaid/past_due clears it in the same step; trialing leaves it
// to the trial-expiry sweep.
func proFromStatus(st users.SubscriptionStatus) *bool {
	switch st {
	case users.StatusCanceled, users.StatusUnpaid, users.StatusPastDue:
		return boolPtr(false)
	case users.StatusActive, users.StatusCancelAtPeriodEnd:
		return boolPtr(true)
	}
	return nil
}

// Reconcile maps one billing event to its outcome. ok is false when the event
// kind is unknown or the event carries too little to act on; the caller logs
// and acknowledges it.
func Reconcile(ev Event) (Outcome, bool) {
	switch ev.Kind {
	case KindCheckoutCompleted:
		if ev.CheckoutMode == ModePayment {
			return Outcome{
				AnalyticsKind: "one_time_payment",
				AnalyticsPayload: map[string]any{
					"amount":   ev.AmountTotal.String(),
					"currency": ev.Currency,
				},
			}, true
		}
		snap := ev.Subscription
		if snap == nil {
			return Outcome{}, false
		}
		return Outcome{
			Patch: users.BillingPatch{
				IsPro:             boolPtr(true),
				HasPaid:           boolPtr(true),
				Status:            &snap.Status,
				SubscriptionID:    &snap.ID,
				SubscriptionStart: snap.PeriodStart,
				SubscriptionEnd:   snap.PeriodEnd,
			},
			AnalyticsKind: "checkout_completed",
			AnalyticsPayload: map[string]any{
				"amount":       ev.AmountTotal.String(),
				"currency":     ev.Currency,
				"subscription": snap.ID,
			},
		}, true

	case KindInvoicePaid:
		snap := ev.Subscription
		if snap == nil {
			return Outcome{}, false
		}
		return Outcome{
			Patch: users.BillingPatch{
				IsPro:           proFromStatus(snap.Status),
				Status:          &snap.Status,
				SubscriptionEnd: snap.PeriodEnd,
			},
			AnalyticsKind: "invoice_paid",
			AnalyticsPayload: map[string]any{
				"amount":   ev.AmountTotal.String(),
				"currency": ev.Currency,
			},
		}, true

	case KindInvoiceFailed:
		snap := ev.Subscription
		if snap == nil {
			return Outcome{}, false
		}
		// Status refresh only; the period end stays where it was.
		return Outcome{
			Patch: users.BillingPatch{
				IsPro:  proFromStatus(snap.Status),
				Status: &snap.Status,
			},
			AnalyticsKind: "invoice_failed",
			AnalyticsPayload: map[string]any{
				"amount":   ev.AmountTotal.String(),
				"currency": ev.Currency,
			},
		}, true

	case KindSubscriptionUpdated:
		snap := ev.Subscription
		if snap == nil {
			return Outcome{}, false
		}
		return Outcome{
			Patch: users.BillingPatch{
				IsPro:           proFromStatus(snap.Status),
				Status:          &snap.Status,
				SubscriptionEnd: snap.PeriodEnd,
			},
			AnalyticsKind: "subscription_updated",
			AnalyticsPayload: map[string]any{
				"status": string(snap.Status),
			},
		}, true

	case KindSubscriptionDeleted:
		status := users.StatusCanceled
		return Outcome{
			Patch: users.BillingPatch{
				IsPro:             boolPtr(false),
				Status:            &status,
				ClearSubscription: true,
			},
			AnalyticsKind: "subscription_deleted",
		}, true
	}
	return Outcome{}, false
}
