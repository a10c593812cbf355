// Package email delivers vendor login codes. Delivery is behind a small
// interface so dev and test runs can log instead of hitting SES.
package email

import (
	"context"

	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// LogSender writes the message to the log instead of delivering it.
type LogSender struct {
	Log *zap.SugaredLogger
}

func (s *LogSender) Send(_ context.Context, m Message) error {
	s.Log.Infow("email (log mode)", "to", m.To, "subject", m.Subject, "text", m.Text)
	return nil
}
