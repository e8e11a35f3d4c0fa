package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quotedesk/internal/domain"
)

func TestMailgun_DisabledWithoutCredentials(t *testing.T) {
	m := NewMailgun("", "", "a@b.test")
	if m.Enabled() {
		t.Fatal("sender enabled without credentials")
	}
	if err := m.Send(context.Background(), Message{To: "x@y.test"}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("want ErrDisabled, got %v", err)
	}
}

func TestQuoteMessage(t *testing.T) {
	q := domain.Quote{ID: "Q-1", ClientName: "Acme", ClientEmail: "buyer@acme.test", TotalAmount: 19.8, ExpirationDate: "2026-03-31"}
	m := QuoteMessage(q, []byte("%PDF-"))
	if m.To != "buyer@acme.test" || !strings.Contains(m.Text, "$19.80") {
		t.Fatalf("message = %+v", m)
	}
	if len(m.Attachments) != 1 || m.Attachments[0].Name != "Q-1.pdf" {
		t.Fatalf("attachments = %+v", m.Attachments)
	}
}
