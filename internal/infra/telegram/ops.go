package telegram

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Ops posts short operational summaries to the admin chat. A nil *Ops is a
// no-op, so the channel stays optional.
type Ops struct {
	api    *tgbotapi.BotAPI
	log    *slog.Logger
	chatID int64
}

func New(log *slog.Logger, token string, adminChatID int64) (*Ops, error) {
	if token == "" || adminChatID == 0 {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Ops{api: api, log: log, chatID: adminChatID}, nil
}

func (o *Ops) Notify(text string) {
	if o == nil {
		return
	}
	if _, err := o.api.Send(tgbotapi.NewMessage(o.chatID, text)); err != nil {
		o.log.Error("ops notify failed", "err", err)
	}
}
