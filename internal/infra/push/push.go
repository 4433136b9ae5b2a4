package push

import (
	"context"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Message is one push to one device token.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a single message. Delivery is best-effort: the caller is
// expected to log and move on when Send fails.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// FCM sends through Firebase Cloud Messaging.
type FCM struct {
	client *messaging.Client
}

func NewFCM(ctx context.Context, credentialsFile string) (*FCM, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &FCM{client: client}, nil
}

func (f *FCM) Send(ctx context.Context, msg Message) error {
	_, err := f.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	return err
}

// DryRun logs instead of sending. Used in dev and in tests.
type DryRun struct {
	Log *slog.Logger
}

func (d DryRun) Send(_ context.Context, msg Message) error {
	d.Log.Info("push (dry run)", "token", msg.Token, "title", msg.Title, "body", msg.Body)
	return nil
}
