package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"qgsape/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"fcfa": FormatFCFA,
	"date": func(t time.Time) string { return t.Format("02/01/2006") },
}).ParseFS(templateFS, "templates/*.html"))

// FormatFCFA renders 12500 as "12 500 FCFA".
func FormatFCFA(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String() + " FCFA"
	}
	return b.String() + " FCFA"
}

type orderEmailData struct {
	Order    domain.Order
	SiteName string
	AdminURL string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// OrderConfirmation is the customer's receipt.
func OrderConfirmation(o domain.Order, siteName string) (Message, error) {
	html, err := render("order_confirmation.html", orderEmailData{Order: o, SiteName: siteName})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []Recipient{{Email: o.CustomerEmail, Name: o.CustomerName}},
		Subject: fmt.Sprintf("Confirmation de votre commande %s", o.DisplayID),
		HTML:    html,
	}, nil
}

// AdminOrderNotification tells the shop a new order arrived.
func AdminOrderNotification(o domain.Order, adminEmail, baseURL string) (Message, error) {
	adminURL := ""
	if baseURL != "" {
		adminURL = strings.TrimRight(baseURL, "/") + "/admin/orders/" + o.ID
	}
	html, err := render("admin_order.html", orderEmailData{Order: o, AdminURL: adminURL})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []Recipient{{Email: adminEmail}},
		Subject: fmt.Sprintf("Nouvelle commande %s – %s", o.DisplayID, FormatFCFA(o.Total)),
		HTML:    html,
	}, nil
}
