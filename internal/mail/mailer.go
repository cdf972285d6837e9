// Package mail defines the outbound mail boundary. Delivery itself is an
// external collaborator; the only implementation in this repository logs the
// message, which is enough for development and tests.
package mail

import (
	"context"

	"go.uber.org/zap"
)

// Mailer sends transactional mail.
type Mailer interface {
	SendActivationMail(ctx context.Context, to, activationURL string) error
}

// LogMailer writes activation mails to the log instead of delivering them.
type LogMailer struct {
	Log *zap.SugaredLogger
}

func (m LogMailer) SendActivationMail(_ context.Context, to, activationURL string) error {
	if m.Log != nil {
		m.Log.Infow("activation mail", "to", to, "url", activationURL)
	}
	return nil
}
