package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quotedesk/internal/catalog"
	"quotedesk/internal/domain"
	"quotedesk/internal/mail"
	"quotedesk/internal/quote"
	"quotedesk/internal/repos"
	"quotedesk/internal/session"
	"quotedesk/internal/validate"
)

var (
	ErrEmptyQuote   = errors.New("quote has no items")
	ErrNoClient     = errors.New("client name is required")
	ErrNoClientMail = errors.New("quote has no client email")
	ErrForbidden    = errors.New("not allowed")
	ErrBadStatus    = errors.New("unknown quote status")
)

type QuoteService struct {
	Quotes    *repos.QuoteRepo
	Catalog   *CatalogService
	Activity  *Activity
	Mail      mail.Sender
	TaxRate   float64
	ValidDays int
	Seller    string
	Now       func() time.Time
}

type ItemInput struct {
	Name         string  `validate:"required,max=120"`
	Desc         string  `validate:"max=250"`
	Qty          int     `validate:"gte=1,lte=9999"`
	Price        float64 `validate:"gte=0"`
	DiscountVal  float64 `validate:"gte=0"`
	DiscountType string  `validate:"oneof=% $"`
}

type ClientInput struct {
	Name  string `validate:"required,max=120"`
	Email string `validate:"omitempty,email,max=254"`
	Phone string `validate:"max=32"`
}

// AddCatalogItem puts a catalog product into the draft at its listed price.
func (s *QuoteService) AddCatalogItem(ctx context.Context, sess *session.Session, category, sku string, qty int, discount float64, discountType string) error {
	row, err := s.Catalog.Product(ctx, category, sku)
	if err != nil {
		return err
	}
	price, err := catalog.ParseMoney(row.Get(catalog.PriceColumns...))
	if err != nil {
		return fmt.Errorf("%s: %w", sku, err)
	}
	name := row.Get(catalog.NameColumns...)
	if name == "" {
		name = sku
	}
	return s.AddItem(sess, ItemInput{
		Name:         name,
		Desc:         strings.TrimSpace(sku + " " + row.Get(catalog.DescColumns...)),
		Qty:          qty,
		Price:        price,
		DiscountVal:  discount,
		DiscountType: discountType,
	})
}

// AddItem appends a manual line to the draft.
func (s *QuoteService) AddItem(sess *session.Session, in ItemInput) error {
	if in.DiscountType == "" {
		in.DiscountType = domain.DiscountPercent
	}
	if errs := validate.Struct(in); errs != nil {
		return fmt.Errorf("%w: %v", quote.ErrInvalidItem, errs)
	}
	it := domain.LineItem{
		Name:         strings.TrimSpace(in.Name),
		Desc:         strings.TrimSpace(in.Desc),
		Qty:          in.Qty,
		Price:        in.Price,
		DiscountVal:  in.DiscountVal,
		DiscountType: in.DiscountType,
	}
	if err := quote.Validate(it); err != nil {
		return err
	}
	it.Total = quote.LineTotal(it).Round(2).InexactFloat64()
	sess.Draft.Items = append(sess.Draft.Items, it)
	return nil
}

func (s *QuoteService) RemoveItem(sess *session.Session, idx int) error {
	if idx < 0 || idx >= len(sess.Draft.Items) {
		return fmt.Errorf("%w: no line %d", ErrInvalidInput, idx+1)
	}
	sess.Draft.Items = append(sess.Draft.Items[:idx], sess.Draft.Items[idx+1:]...)
	return nil
}

func (s *QuoteService) Clear(sess *session.Session) { sess.Draft = session.Draft{} }

// SetClient validates and stores the client block; phones are normalised to E.164.
func (s *QuoteService) SetClient(sess *session.Session, in ClientInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if errs := validate.Struct(in); errs != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, errs)
	}
	phone, err := validate.Phone(in.Phone)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	sess.Draft.Client = domain.Client{Name: in.Name, Email: in.Email, Phone: phone}
	return nil
}

func (s *QuoteService) Totals(sess *session.Session) quote.Totals {
	return quote.Compute(sess.Draft.Items, s.TaxRate)
}

// Save stores the draft as a new quote and clears it.
func (s *QuoteService) Save(ctx context.Context, sess *session.Session) (domain.Quote, error) {
	if len(sess.Draft.Items) == 0 {
		return domain.Quote{}, ErrEmptyQuote
	}
	if strings.TrimSpace(sess.Draft.Client.Name) == "" {
		return domain.Quote{}, ErrNoClient
	}
	now := s.now()
	q := quote.Build(quote.NewID(now, uuid.NewString()), sess.Username, sess.Draft.Client,
		sess.Draft.Items, s.TaxRate, s.ValidDays, s.Seller, now)
	if err := s.Quotes.Save(ctx, q); err != nil {
		return domain.Quote{}, err
	}
	s.Activity.Record(ctx, sess.Username, "Save Quote", fmt.Sprintf("%s %s $%.2f", q.ID, q.ClientName, q.TotalAmount))
	sess.Draft = session.Draft{}
	return q, nil
}

// List returns the viewer's quotes, or everyone's for an admin.
func (s *QuoteService) List(ctx context.Context, sess *session.Session) ([]domain.Quote, error) {
	by := sess.Username
	if sess.IsAdmin() {
		by = ""
	}
	return s.Quotes.List(ctx, by)
}

// Get returns a quote the viewer may see.
func (s *QuoteService) Get(ctx context.Context, sess *session.Session, id string) (*domain.Quote, error) {
	q, err := s.Quotes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.CreatedBy != sess.Username && !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	return q, nil
}

// Load copies a saved quote into the draft for editing; saving it makes a new quote.
func (s *QuoteService) Load(ctx context.Context, sess *session.Session, id string) error {
	q, err := s.Get(ctx, sess, id)
	if err != nil {
		return err
	}
	sess.Draft = session.Draft{
		Items:    append([]domain.LineItem(nil), q.Items...),
		Client:   domain.Client{Name: q.ClientName, Email: q.ClientEmail, Phone: q.ClientPhone},
		SourceID: q.ID,
	}
	return nil
}

func (s *QuoteService) PDF(ctx context.Context, sess *session.Session, id string) ([]byte, *domain.Quote, error) {
	q, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, nil, err
	}
	b, err := quote.RenderPDF(*q, s.TaxRate)
	return b, q, err
}

// Email sends the quote PDF to the client and marks the quote Sent.
func (s *QuoteService) Email(ctx context.Context, sess *session.Session, id string) error {
	b, q, err := s.PDF(ctx, sess, id)
	if err != nil {
		return err
	}
	if q.ClientEmail == "" {
		return ErrNoClientMail
	}
	if s.Mail == nil {
		return mail.ErrDisabled
	}
	if err := s.Mail.Send(ctx, mail.QuoteMessage(*q, b)); err != nil {
		return err
	}
	if q.Status == domain.QuoteDraft {
		if err := s.Quotes.UpdateStatus(ctx, q.ID, domain.QuoteSent); err != nil {
			return err
		}
	}
	s.Activity.Record(ctx, sess.Username, "Email Quote", q.ID+" to "+q.ClientEmail)
	return nil
}

// SetStatus moves a quote through Draft / Sent / Accepted / Declined.
func (s *QuoteService) SetStatus(ctx context.Context, sess *session.Session, id, status string) error {
	switch status {
	case domain.QuoteDraft, domain.QuoteSent, domain.QuoteAccepted, domain.QuoteDeclined:
	default:
		return ErrBadStatus
	}
	if _, err := s.Get(ctx, sess, id); err != nil {
		return err
	}
	if err := s.Quotes.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.Activity.Record(ctx, sess.Username, "Quote Status", id+" -> "+status)
	return nil
}

func (s *QuoteService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
