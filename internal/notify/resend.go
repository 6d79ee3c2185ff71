package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"
)

// ResendClient sends the shop's internal notifications.
type ResendClient struct {
	client *resend.Client
	from   string
}

// NewResendClient talks to baseURL, or the SDK's default endpoint when empty.
func NewResendClient(apiKey, baseURL, from string) (*ResendClient, error) {
	client := resend.NewCustomClient(defaultHTTPClient(), apiKey)
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("resend: invalid base url: %w", err)
		}
		client.BaseURL = u
	}
	return &ResendClient{client: client, from: from}, nil
}

var _ Mailer = (*ResendClient)(nil)

func (c *ResendClient) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("resend: message has no recipient")
	}
	to := make([]string, 0, len(msg.To))
	for _, r := range msg.To {
		to = append(to, r.Email)
	}
	_, err := c.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.from,
		To:      to,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: send email: %w", err)
	}
	return nil
}
