// Package mail sends quotes to clients and account notices to the administrator.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v5"

	"quotedesk/internal/domain"
)

var ErrDisabled = errors.New("email is not configured")

// Attachment is a file sent with a message.
type Attachment struct {
	Name string
	Data []byte
}

// Message is one outgoing email.
type Message struct {
	To          string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Sender delivers messages. Mailgun is the production implementation.
type Sender interface {
	Send(ctx context.Context, m Message) error
	Enabled() bool
}

type Mailgun struct {
	client mailgun.Mailgun
	domain string
	from   string
}

// NewMailgun returns a sender; with no domain or key it reports Enabled() == false.
func NewMailgun(domain, apiKey, from string) *Mailgun {
	m := &Mailgun{domain: domain, from: from}
	if domain != "" && apiKey != "" {
		m.client = mailgun.NewMailgun(apiKey)
	}
	return m
}

func (m *Mailgun) Enabled() bool { return m.client != nil }

func (m *Mailgun) Send(ctx context.Context, msg Message) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	message := mailgun.NewMessage(m.domain, m.from, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		message.SetHTML(msg.HTML)
	}
	for _, a := range msg.Attachments {
		message.AddBufferAttachment(a.Name, a.Data)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if _, err := m.client.Send(ctx, message); err != nil {
		return fmt.Errorf("send to %s: %w", msg.To, err)
	}
	return nil
}

// QuoteMessage is the client email carrying a quote PDF.
func QuoteMessage(q domain.Quote, pdf []byte) Message {
	name := q.ClientName
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf(`Hi %s,

Please find attached quote %s for $%.2f (incl. GST), valid until %s.

%s
`, name, q.ID, q.TotalAmount, q.ExpirationDate, q.SellerInfo)
	return Message{
		To:          q.ClientEmail,
		Subject:     fmt.Sprintf("Quote %s", q.ID),
		Text:        text,
		Attachments: []Attachment{{Name: q.ID + ".pdf", Data: pdf}},
	}
}

// SignupMessage tells the administrator an account is waiting for approval.
func SignupMessage(adminEmail, username, email string) Message {
	return Message{
		To:      adminEmail,
		Subject: fmt.Sprintf("New account pending approval: %s", username),
		Text: fmt.Sprintf("User %s (%s) registered and is waiting for approval.\n"+
			"Approve it from the admin page or with: catalogctl approve-user -username %s\n", username, email, username),
	}
}
