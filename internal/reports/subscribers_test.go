package reports

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevafinance/notifier/internal/domain/users"
	httpx "github.com/sevafinance/notifier/internal/infra/http"
)

func TestBuildSubscribersWorkbook(t *testing.T) {
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	list := []users.User{
		{
			ID:                   "u1",
			Email:                "a@example.com",
			IsPro:                true,
			HasPaid:              true,
			SubscriptionStatus:   users.StatusActive,
			StripeCustomerID:     "cus_1",
			StripeSubscriptionID: "sub_1",
			SubscriptionEnd:      &end,
			ScanCountThisMonth:   3,
		},
		{ID: "u2", Email: "b@example.com"},
	}

	f, err := BuildSubscribersWorkbook(list)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	got, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "user_id", got)

	got, err = f.GetCellValue(sheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "u1", got)

	got, err = f.GetCellValue(sheet, "E2")
	require.NoError(t, err)
	assert.Equal(t, "active", got)

	got, err = f.GetCellValue(sheet, "H2")
	require.NoError(t, err)
	assert.Equal(t, "2026-04-01", got)

	got, err = f.GetCellValue(sheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "u2", got)
}

type fakeLookup struct{}

func (fakeLookup) GetByAPIToken(context.Context, string) (*users.User, error) {
	return nil, nil
}

// The export lists every user's email and billing state, so it mounts behind
// the same bearer middleware as the API routes.
func TestExportRequiresAuth(t *testing.T) {
	h := httpx.RequireAuth(fakeLookup{}, NewHandler(slog.Default(), nil).ServeHTTP)

	req := httptest.NewRequest(http.MethodGet, "/admin/export/subscribers.xlsx", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/export/subscribers.xlsx", nil)
	req.Header.Set("Authorization", "Bearer unknown")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
