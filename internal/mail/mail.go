// Package mail delivers customer emails.  Delivery is an external concern;
// the service only depends on the Sender interface.
package mail

import (
	"context"
	"log/slog"
)

// Message is a plain-text email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=Sender
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer is the default Sender.  It writes every message to the log
// instead of talking to an SMTP relay.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	const op = "mail.LogMailer.Send"

	if err := ctx.Err(); err != nil {
		return err
	}
	m.log.Info("email sent",
		slog.String("op", op),
		slog.String("from", msg.From),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("body_len", len(msg.Body)),
	)
	return nil
}
