package alerts

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevafinance/notifier/internal/infra/push"
)

type fakeSender struct {
	failTokens map[string]bool
	sent       []push.Message
}

func (f *fakeSender) Send(_ context.Context, msg push.Message) error {
	if f.failTokens[msg.Token] {
		return errors.New("registration-token-not-registered")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestDispatchIsolatesFailures(t *testing.T) {
	sender := &fakeSender{failTokens: map[string]bool{"expired": true}}
	d := NewDispatcher(sender, slog.Default())

	intents := []Intent{
		{Kind: KindBudgetAlert, Token: "ok-1", Title: "a"},
		{Kind: KindBudgetAlert, Token: "expired", Title: "b"},
		{Kind: KindBillReminder, Token: "ok-2", Title: "c"},
	}

	sent, failed := d.Dispatch(context.Background(), intents)

	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, failed)
	// The failed send must not stop later deliveries.
	assert.Equal(t, "ok-2", sender.sent[1].Token)
}

func TestDispatchEmptyBatch(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, slog.Default())
	sent, failed := d.Dispatch(context.Background(), nil)
	assert.Zero(t, sent)
	assert.Zero(t, failed)
}
