package cfddns

import (
	"context"
	"fmt"
	"os"

	"github.com/wneessen/go-mail"
)

// Notifier delivers a finished run report to the operator.
type Notifier interface {
	Notify(ctx context.Context, report *Report) error
}

// Mailer sends plain-text reports through a local SMTP transport.
// The zero value is not usable; construct it with NewMailer.
type Mailer struct {
	host string
	port int
	from string
	to   string
}

// NewMailer returns a Mailer delivering to recipient via the SMTP server on
// localhost. An empty from address defaults to root@<hostname>.
func NewMailer(recipient, from string) (*Mailer, error) {
	if recipient == "" {
		return nil, fmt.Errorf("mail recipient cannot be empty")
	}
	if from == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "localhost"
		}
		from = "root@" + hostname
	}
	return &Mailer{
		host: "localhost",
		port: 25,
		from: from,
		to:   recipient,
	}, nil
}

// Notify implements Notifier.
func (m *Mailer) Notify(ctx context.Context, report *Report) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat("Cloudflare DNS Updater", m.from); err != nil {
		return fmt.Errorf("invalid from address %q: %w", m.from, err)
	}
	if err := msg.To(m.to); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", m.to, err)
	}
	msg.Subject(report.Subject())
	msg.SetBodyString(mail.TypeTextPlain, report.Body())

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.NoTLS),
	)
	if err != nil {
		return fmt.Errorf("error creating smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("error sending report to %s: %w", m.to, err)
	}
	return nil
}
