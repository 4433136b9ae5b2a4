// Package reports builds back-office exports of the subscriber base.
package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sevafinance/notifier/internal/domain/users"
)

// BuildSubscribersWorkbook lays out one row per user with the billing state
// the support team asks about.
func BuildSubscribersWorkbook(list []users.User) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"user_id",
		"email",
		"is_pro",
		"has_paid",
		"subscription_status",
		"stripe_customer_id",
		"stripe_subscription_id",
		"subscription_end",
		"trial_start",
		"scan_count_this_month",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	fmtTime := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}

	row := 2
	for _, u := range list {
		excelRow := []interface{}{
			u.ID,
			u.Email,
			u.IsPro,
			u.HasPaid,
			string(u.SubscriptionStatus),
			u.StripeCustomerID,
			u.StripeSubscriptionID,
			fmtTime(u.SubscriptionEnd),
			fmtTime(u.TrialStart),
			u.ScanCountThisMonth,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, err
		}
		row++
	}
	return f, nil
}

// Handler streams the subscribers workbook.
type Handler struct {
	log   *slog.Logger
	users *users.Repo
}

func NewHandler(log *slog.Logger, usersRepo *users.Repo) *Handler {
	return &Handler{log: log, users: usersRepo}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.ListAll(r.Context())
	if err != nil {
		h.log.Error("subscriber export failed", "err", err)
		http.Error(w, "failed to load users", http.StatusInternalServerError)
		return
	}
	f, err := BuildSubscribersWorkbook(list)
	if err != nil {
		h.log.Error("subscriber export failed", "err", err)
		http.Error(w, "failed to build workbook", http.StatusInternalServerError)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="subscribers.xlsx"`)
	if err := f.Write(w); err != nil {
		h.log.Error("subscriber export write failed", "err", err)
	}
}
