package alerts

import (
	"context"
	"log/slog"

	"github.com/sevafinance/notifier/internal/infra/metrics"
	"github.com/sevafinance/notifier/internal/infra/push"
)

// Dispatcher delivers intents one by one. A failed send is logged and counted
// but never aborts the rest of the batch and never fails the run.
type Dispatcher struct {
	sender push.Sender
	log    *slog.Logger
}

func NewDispatcher(sender push.Sender, log *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, log: log}
}

// Dispatch attempts each intent once and returns how many were accepted and
// how many failed.
func (d *Dispatcher) Dispatch(ctx context.Context, intents []Intent) (sent, failed int) {
	for _, in := range intents {
		err := d.sender.Send(ctx, push.Message{
			Token: in.Token,
			Title: in.Title,
			Body:  in.Body,
			Data:  in.Data,
		})
		if err != nil {
			failed++
			metrics.NotificationsFailed.WithLabelValues(in.Kind).Inc()
			d.log.Error("push send failed", "kind", in.Kind, "err", err)
			continue
		}
		sent++
		metrics.NotificationsSent.WithLabelValues(in.Kind).Inc()
	}
	return sent, failed
}
