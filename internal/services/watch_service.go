package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"quotedesk/internal/domain"
	"quotedesk/internal/pricewatch"
	"quotedesk/internal/session"
)

var ErrWatcherOff = errors.New("price watcher is not configured")

// WatchService keeps each user's watchlist in their session.
type WatchService struct {
	Watcher  *pricewatch.Watcher
	Activity *Activity
}

func (s *WatchService) ready() error {
	if s.Watcher == nil {
		return ErrWatcherOff
	}
	return nil
}

// Add searches for sku (or takes manualURL) and appends the candidate stores.
func (s *WatchService) Add(ctx context.Context, sess *session.Session, sku, manualURL string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	before := len(sess.Watchlist)
	list, err := s.Watcher.Add(ctx, sess.Watchlist, sku, manualURL)
	if err != nil {
		return 0, err
	}
	sess.Watchlist = list
	if strings.TrimSpace(manualURL) == "" {
		sess.WatchSKU = strings.TrimSpace(sku)
		sess.WatchOffset = 0
	}
	return len(list) - before, nil
}

// LoadMore pulls the next page of results for the last searched SKU.
func (s *WatchService) LoadMore(ctx context.Context, sess *session.Session) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if sess.WatchSKU == "" {
		return 0, fmt.Errorf("%w: search for a SKU first", ErrInvalidInput)
	}
	before := len(sess.Watchlist)
	list, next, err := s.Watcher.LoadMore(ctx, sess.Watchlist, sess.WatchSKU, sess.WatchOffset)
	if err != nil {
		return 0, err
	}
	sess.Watchlist, sess.WatchOffset = list, next
	return len(list) - before, nil
}

func (s *WatchService) Remove(sess *session.Session, idx []int) {
	sess.Watchlist = pricewatch.Remove(sess.Watchlist, idx)
}

func (s *WatchService) Clear(sess *session.Session) {
	sess.Watchlist, sess.WatchSKU, sess.WatchOffset = nil, "", 0
}

// Scan prices the selected rows, one after another.
func (s *WatchService) Scan(ctx context.Context, sess *session.Session, selected []int) error {
	if err := s.ready(); err != nil {
		return err
	}
	sess.Watchlist = s.Watcher.Scan(ctx, sess.Watchlist, selected)
	priced := 0
	for _, e := range sess.Watchlist {
		if e.Status == domain.WatchPriced {
			priced++
		}
	}
	s.Activity.Record(ctx, sess.Username, "Price Scan", fmt.Sprintf("rows: %d, priced: %d", len(selected), priced))
	return nil
}

func (s *WatchService) CSV(w io.Writer, sess *session.Session) error {
	return pricewatch.WriteCSV(w, sess.Watchlist)
}
