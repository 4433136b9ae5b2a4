package alerts

import (
	"log/slog"
	"net/http"

	httpx "github.com/sevafinance/notifier/internal/infra/http"
	"github.com/sevafinance/notifier/internal/infra/push"
)

// TestHandler sends the fixed test notification to the caller's own token.
type TestHandler struct {
	log    *slog.Logger
	eval   Evaluator
	sender push.Sender
}

func NewTestHandler(log *slog.Logger, eval Evaluator, sender push.Sender) *TestHandler {
	return &TestHandler{log: log, eval: eval, sender: sender}
}

func (h *TestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u, ok := httpx.UserFrom(r.Context())
	if !ok {
		httpx.Error(w, httpx.CodeUnauthenticated, "missing auth context")
		return
	}
	if u.PushToken == "" {
		httpx.Error(w, httpx.CodeFailedPrecondition, "user does not have push notifications enabled")
		return
	}

	in := h.eval.TestIntent(u.PushToken)
	if err := h.sender.Send(r.Context(), push.Message{
		Token: in.Token,
		Title: in.Title,
		Body:  in.Body,
		Data:  in.Data,
	}); err != nil {
		h.log.Error("test notification failed", "user_id", u.ID, "err", err)
		httpx.Error(w, httpx.CodeInternal, "failed to send test notification")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Test notification sent successfully",
	})
}
