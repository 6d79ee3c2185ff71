package notify

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"
)

// SMTPMailer sends through a plain SMTP relay (Brevo also offers one).
type SMTPMailer struct {
	from   Recipient
	dialer *gomail.Dialer
}

func NewSMTPMailer(host string, port int, username, password string, from Recipient) *SMTPMailer {
	return &SMTPMailer{from: from, dialer: gomail.NewDialer(host, port, username, password)}
}

var _ Mailer = (*SMTPMailer)(nil)

// Send ignores ctx: gomail has no cancellation support.
func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("smtp: message has no recipient")
	}
	return m.dialer.DialAndSend(m.build(msg))
}

func (m *SMTPMailer) build(msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.from.Email, m.from.Name)
	to := make([]string, 0, len(msg.To))
	for _, r := range msg.To {
		to = append(to, gm.FormatAddress(r.Email, r.Name))
	}
	gm.SetHeader("To", to...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)
	return gm
}
