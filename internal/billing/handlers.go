package billing

import (
	"encoding/json"
	"log/slog"
	"net/http"

	httpx "github.com/sevafinance/notifier/internal/infra/http"
)

// Handler exposes the callable billing surface. All routes expect an
// authenticated user on the request context.
type Handler struct {
	log             *slog.Logger
	svc             *Service
	portalReturnURL string
}

func NewHandler(log *slog.Logger, svc *Service, portalReturnURL string) *Handler {
	return &Handler{log: log, svc: svc, portalReturnURL: portalReturnURL}
}

type checkoutSessionRequest struct {
	PriceID       string `json:"priceId"`
	Mode          string `json:"mode"`
	SuccessURL    string `json:"successUrl"`
	CancelURL     string `json:"cancelUrl"`
	CustomerEmail string `json:"customerEmail"`
}

func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	u, ok := httpx.UserFrom(r.Context())
	if !ok {
		httpx.Error(w, httpx.CodeUnauthenticated, "missing auth context")
		return
	}

	var req checkoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, httpx.CodeInvalidArgument, "invalid request body")
		return
	}
	if req.PriceID == "" || req.Mode == "" {
		httpx.Error(w, httpx.CodeInvalidArgument, "priceId and mode are required")
		return
	}
	if req.Mode != ModeSubscription && req.Mode != ModePayment {
		httpx.Error(w, httpx.CodeInvalidArgument, "mode must be subscription or payment")
		return
	}

	id, url, err := h.svc.CreateCheckoutSession(r.Context(), u, CheckoutRequest{
		PriceID:       req.PriceID,
		Mode:          req.Mode,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		h.log.Error("checkout session failed", "user_id", u.ID, "err", err)
		httpx.Error(w, httpx.CodeInternal, "failed to create checkout session")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"sessionId": id, "url": url})
}

type portalSessionRequest struct {
	CustomerID string `json:"customerId"`
	ReturnURL  string `json:"returnUrl"`
}

func (h *Handler) CreatePortalSession(w http.ResponseWriter, r *http.Request) {
	u, ok := httpx.UserFrom(r.Context())
	if !ok {
		httpx.Error(w, httpx.CodeUnauthenticated, "missing auth context")
		return
	}

	var req portalSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, httpx.CodeInvalidArgument, "invalid request body")
		return
	}
	if req.CustomerID == "" {
		req.CustomerID = u.StripeCustomerID
	}
	if req.CustomerID == "" {
		httpx.Error(w, httpx.CodeInvalidArgument, "customerId is required")
		return
	}
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = h.portalReturnURL
	}

	url, err := h.svc.CreatePortalSession(r.Context(), req.CustomerID, returnURL)
	if err != nil {
		h.log.Error("portal session failed", "user_id", u.ID, "err", err)
		httpx.Error(w, httpx.CodeInternal, "failed to create portal session")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"url": url})
}

type cancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId"`
}

func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	u, ok := httpx.UserFrom(r.Context())
	if !ok {
		httpx.Error(w, httpx.CodeUnauthenticated, "missing auth context")
		return
	}

	var req cancelSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, httpx.CodeInvalidArgument, "invalid request body")
		return
	}
	if req.SubscriptionID == "" {
		req.SubscriptionID = u.StripeSubscriptionID
	}
	if req.SubscriptionID == "" {
		httpx.Error(w, httpx.CodeInvalidArgument, "subscriptionId is required")
		return
	}

	status, err := h.svc.CancelSubscription(r.Context(), req.SubscriptionID)
	if err != nil {
		h.log.Error("cancel subscription failed", "user_id", u.ID, "err", err)
		httpx.Error(w, httpx.CodeInternal, "failed to cancel subscription")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(status)})
}
