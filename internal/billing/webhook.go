package billing

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/sevafinance/notifier/internal/domain/users"
	"github.com/sevafinance/notifier/internal/infra/metrics"
)

const maxWebhookBody = int64(65536)

// SubscriptionResolver fetches the subscription snapshot for events that only
// carry a subscription id. Satisfied by *Service; stubbed in tests.
type SubscriptionResolver interface {
	ResolveSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error)
}

// UserStore is the slice of users.Repo the webhook writes through. Satisfied
// by *users.Repo; stubbed in tests.
type UserStore interface {
	GetByStripeCustomerID(ctx context.Context, customerID string) (*users.User, error)
	ApplyBillingEvent(ctx context.Context, userID string, p users.BillingPatch, eventKind string, eventPayload map[string]any) error
}

// Webhook verifies, parses and reconciles inbound Stripe events.
type Webhook struct {
	log      *slog.Logger
	secret   string
	users    UserStore
	resolver SubscriptionResolver
}

func NewWebhook(log *slog.Logger, secret string, store UserStore, resolver SubscriptionResolver) *Webhook {
	return &Webhook{log: log, secret: secret, users: store, resolver: resolver}
}

func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		r.Header.Get("Stripe-Signature"),
		h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.log.Error("webhook signature failed", "err", err)
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}
	metrics.WebhookEvents.WithLabelValues(string(event.Type)).Inc()

	ev, err := h.parse(r.Context(), event)
	if err != nil {
		h.log.Error("webhook parse failed", "event_id", event.ID, "type", event.Type, "err", err)
		http.Error(w, "failed to process event", http.StatusInternalServerError)
		return
	}

	if err := h.Process(r.Context(), ev); err != nil {
		h.log.Error("webhook reconcile failed", "event_id", ev.ID, "kind", ev.Kind, "err", err)
		http.Error(w, "failed to process event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"received":true}`))
}

// parse lowers a verified Stripe event into our internal event, resolving the
// subscription snapshot where the payload only carries an id.
func (h *Webhook) parse(ctx context.Context, event stripe.Event) (Event, error) {
	ev := Event{ID: event.ID, Kind: KindOf(string(event.Type))}

	switch ev.Kind {
	case KindCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return ev, err
		}
		ev.UserID = sess.ClientReferenceID
		ev.CheckoutMode = string(sess.Mode)
		ev.AmountTotal = decimal.NewFromInt(sess.AmountTotal).Shift(-2)
		ev.Currency = string(sess.Currency)
		if sess.Customer != nil {
			ev.CustomerID = sess.Customer.ID
		}
		if ev.CheckoutMode == ModeSubscription && sess.Subscription != nil {
			snap, err := h.resolver.ResolveSubscription(ctx, sess.Subscription.ID)
			if err != nil {
				return ev, err
			}
			ev.Subscription = snap
		}

	case KindInvoicePaid, KindInvoiceFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return ev, err
		}
		if inv.Customer != nil {
			ev.CustomerID = inv.Customer.ID
		}
		ev.AmountTotal = decimal.NewFromInt(inv.AmountDue).Shift(-2)
		ev.Currency = string(inv.Currency)
		if inv.Subscription != nil {
			snap, err := h.resolver.ResolveSubscription(ctx, inv.Subscription.ID)
			if err != nil {
				return ev, err
			}
			ev.Subscription = snap
		}

	case KindSubscriptionUpdated, KindSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return ev, err
		}
		if sub.Customer != nil {
			ev.CustomerID = sub.Customer.ID
		}
		ev.Subscription = SnapshotOf(&sub)
	}
	return ev, nil
}

// Process resolves the owning user and applies the reconciled patch together
// with its analytics record in one write. A user we cannot resolve is a
// logged no-op so the provider stops redelivering.
func (h *Webhook) Process(ctx context.Context, ev Event) error {
	out, ok := Reconcile(ev)
	if !ok {
		h.log.Info("webhook event ignored", "event_id", ev.ID, "kind", ev.Kind)
		return nil
	}

	userID := ev.UserID
	if userID == "" {
		if ev.CustomerID == "" {
			h.log.Warn("billing event carries no user reference", "event_id", ev.ID, "kind", ev.Kind)
			return nil
		}
		u, err := h.users.GetByStripeCustomerID(ctx, ev.CustomerID)
		if err != nil {
			return err
		}
		if u == nil {
			h.log.Warn("no user for stripe customer", "event_id", ev.ID, "customer_id", ev.CustomerID)
			return nil
		}
		userID = u.ID
	}

	if err := h.users.ApplyBillingEvent(ctx, userID, out.Patch, out.AnalyticsKind, out.AnalyticsPayload); err != nil {
		return err
	}
	h.log.Info("billing event reconciled", "event_id", ev.ID, "kind", ev.Kind, "user_id", userID)
	return nil
}
