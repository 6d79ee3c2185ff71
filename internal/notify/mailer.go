// Package notify sends transactional email and keeps the CRM contact list.
package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Recipient is an email address with an optional display name.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is a rendered HTML email.
type Message struct {
	To      []Recipient
	Subject string
	HTML    string
}

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Contact is a CRM entry.
type Contact struct {
	Email     string
	FirstName string
	Phone     string
}

// ContactSaver adds or updates a CRM contact.
type ContactSaver interface {
	SaveContact(ctx context.Context, c Contact) error
}

// LogMailer only logs. It stands in when no email provider is configured.
type LogMailer struct {
	Log logrus.FieldLogger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	to := make([]string, 0, len(msg.To))
	for _, r := range msg.To {
		to = append(to, r.Email)
	}
	m.Log.WithFields(logrus.Fields{
		"to":      strings.Join(to, ","),
		"subject": msg.Subject,
	}).Info("Email not sent: no provider configured")
	return nil
}

func (m LogMailer) SaveContact(_ context.Context, c Contact) error {
	m.Log.WithField("email", c.Email).Info("Contact not saved: no CRM configured")
	return nil
}

// defaultHTTPClient bounds provider calls; the dispatcher adds its own deadline.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}
