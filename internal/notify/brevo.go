package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// DefaultBrevoURL is the Brevo (ex Sendinblue) REST API root.
const DefaultBrevoURL = "https://api.brevo.com/v3"

// BrevoClient sends transactional email and manages contacts.
type BrevoClient struct {
	api     *brevo.APIClient
	sender  Recipient
	listIDs []int64
}

// NewBrevoClient talks to baseURL, or DefaultBrevoURL when empty.
func NewBrevoClient(apiKey, baseURL string, sender Recipient, listID int64) *BrevoClient {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	cfg.HTTPClient = defaultHTTPClient()
	cfg.BasePath = DefaultBrevoURL
	if baseURL != "" {
		cfg.BasePath = strings.TrimRight(baseURL, "/")
	}
	c := &BrevoClient{api: brevo.NewAPIClient(cfg), sender: sender}
	if listID > 0 {
		c.listIDs = []int64{listID}
	}
	return c
}

var (
	_ Mailer       = (*BrevoClient)(nil)
	_ ContactSaver = (*BrevoClient)(nil)
)

func (c *BrevoClient) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("brevo: message has no recipient")
	}
	to := make([]brevo.SendSmtpEmailTo, 0, len(msg.To))
	for _, r := range msg.To {
		to = append(to, brevo.SendSmtpEmailTo{Email: r.Email, Name: r.Name})
	}
	_, _, err := c.api.TransactionalEmailsApi.SendTransacEmail(ctx, brevo.SendSmtpEmail{
		Sender:      &brevo.SendSmtpEmailSender{Email: c.sender.Email, Name: c.sender.Name},
		To:          to,
		Subject:     msg.Subject,
		HtmlContent: msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("brevo: send email: %w", err)
	}
	return nil
}

// SaveContact creates the contact or updates it when it already exists.
func (c *BrevoClient) SaveContact(ctx context.Context, contact Contact) error {
	if contact.Email == "" {
		return errors.New("brevo: contact email is required")
	}
	attrs := map[string]interface{}{}
	if contact.FirstName != "" {
		attrs["FIRSTNAME"] = contact.FirstName
	}
	if contact.Phone != "" {
		attrs["SMS"] = contact.Phone
	}
	_, _, err := c.api.ContactsApi.CreateContact(ctx, brevo.CreateContact{
		Email:         contact.Email,
		Attributes:    attrs,
		ListIds:       c.listIDs,
		UpdateEnabled: true,
	})
	if err != nil {
		return fmt.Errorf("brevo: save contact: %w", err)
	}
	return nil
}
