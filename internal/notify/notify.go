// Package notify renders transactional mail and hands it to a mail queue.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Message is a rendered mail ready for delivery.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// Publisher delivers a rendered message.
//
//go:generate mockgen -destination=mock_notify/mock_notify.go github.com/savedfeast/api/internal/notify Publisher
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Mailer sends platform notifications to the admin mailbox.
type Mailer struct {
	pub        Publisher
	adminEmail string
}

func NewMailer(pub Publisher, adminEmail string) *Mailer {
	return &Mailer{pub: pub, adminEmail: adminEmail}
}

// ApplicationReceived notifies the admins about a new restaurant application.
func (m *Mailer) ApplicationReceived(ctx context.Context, app RestaurantApplicationReceived) error {
	msg, err := app.Render(m.adminEmail)
	if err != nil {
		return err
	}
	if err := m.pub.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish application mail: %w", err)
	}
	return nil
}

// LogPublisher writes messages to the log instead of a broker. Used when no
// broker URL is configured.
type LogPublisher struct {
	log *zap.SugaredLogger
}

func NewLogPublisher(log *zap.SugaredLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, msg Message) error {
	p.log.Infow("mail not sent, no broker configured",
		"to", msg.To,
		"subject", msg.Subject,
		"at", time.Now().UTC().Format(time.RFC3339))
	return nil
}
