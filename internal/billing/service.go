package billing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"

	"github.com/sevafinance/notifier/internal/domain/users"
)

var ErrNoSubscription = errors.New("billing: no subscription on stripe session")

// Service wraps the Stripe calls the API surface and the webhook need.
type Service struct {
	log   *slog.Logger
	users *users.Repo
}

// NewService sets the global Stripe key, as the SDK expects.
func NewService(log *slog.Logger, usersRepo *users.Repo, secretKey string) *Service {
	stripe.Key = secretKey
	return &Service{log: log, users: usersRepo}
}

// EnsureCustomer returns the user's Stripe customer id, creating the customer
// on first use and storing the id on the user row.
func (s *Service) EnsureCustomer(ctx context.Context, u *users.User, email string) (string, error) {
	if u.StripeCustomerID != "" {
		return u.StripeCustomerID, nil
	}
	if email == "" {
		email = u.Email
	}
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"app_user_id": u.ID,
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}
	if err := s.users.SetStripeCustomerID(ctx, u.ID, cust.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}

type CheckoutRequest struct {
	PriceID       string
	Mode          string // "subscription" | "payment"
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
}

// CreateCheckoutSession opens a checkout session carrying the internal user
// id as the client reference, so the completion webhook resolves the user
// without a secondary lookup.
func (s *Service) CreateCheckoutSession(ctx context.Context, u *users.User, req CheckoutRequest) (id, url string, err error) {
	customerID, err := s.EnsureCustomer(ctx, u, req.CustomerEmail)
	if err != nil {
		return "", "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(req.Mode),
		Customer:          stripe.String(customerID),
		ClientReferenceID: stripe.String(u.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}

	sess, err := session.New(params)
	if err != nil {
		return "", "", err
	}
	return sess.ID, sess.URL, nil
}

// CreatePortalSession returns a billing-portal URL for the customer.
func (s *Service) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// CancelSubscription schedules cancellation at period end and returns the
// updated status.
func (s *Service) CancelSubscription(_ context.Context, subscriptionID string) (users.SubscriptionStatus, error) {
	sub, err := subscription.Update(subscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		return "", err
	}
	return statusOf(sub.Status, sub.CancelAtPeriodEnd), nil
}

// ResolveSubscription fetches the current subscription snapshot from Stripe.
// Checkout and invoice events only carry the subscription id.
func (s *Service) ResolveSubscription(_ context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	if subscriptionID == "" {
		return nil, ErrNoSubscription
	}
	sub, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return nil, err
	}
	return SnapshotOf(sub), nil
}
