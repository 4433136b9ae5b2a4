package alerts

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevafinance/notifier/internal/domain/users"
	httpx "github.com/sevafinance/notifier/internal/infra/http"
)

type fakeLookup struct {
	byToken map[string]*users.User
}

func (f *fakeLookup) GetByAPIToken(_ context.Context, token string) (*users.User, error) {
	return f.byToken[token], nil
}

func testNotificationServer(sender *fakeSender, u *users.User) http.HandlerFunc {
	h := NewTestHandler(slog.Default(), testEval, sender)
	return httpx.RequireAuth(&fakeLookup{byToken: map[string]*users.User{"tok": u}}, h.ServeHTTP)
}

func TestTestNotification(t *testing.T) {
	t.Run("sends the fixed payload to the caller's token", func(t *testing.T) {
		sender := &fakeSender{}
		handler := testNotificationServer(sender, &users.User{ID: "u1", PushToken: "device-1"})

		req := httptest.NewRequest(http.MethodPost, "/api/notifications/test", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":true`)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "device-1", sender.sent[0].Token)
		assert.Equal(t, "This is a test notification from SevaFinance!", sender.sent[0].Body)
	})

	t.Run("no token on file is a failed precondition", func(t *testing.T) {
		handler := testNotificationServer(&fakeSender{}, &users.User{ID: "u1"})

		req := httptest.NewRequest(http.MethodPost, "/api/notifications/test", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler(rec, req)

		assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	})

	t.Run("unauthenticated without a bearer token", func(t *testing.T) {
		handler := testNotificationServer(&fakeSender{}, &users.User{ID: "u1", PushToken: "device-1"})

		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/test", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("send failure maps to internal", func(t *testing.T) {
		sender := &fakeSender{failTokens: map[string]bool{"device-1": true}}
		handler := testNotificationServer(sender, &users.User{ID: "u1", PushToken: "device-1"})

		req := httptest.NewRequest(http.MethodPost, "/api/notifications/test", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
