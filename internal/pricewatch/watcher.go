package pricewatch

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"quotedesk/internal/domain"
)

// PageSize is how many search results one "load more" adds.
const PageSize = 20

// Watcher runs the search -> screenshot -> vision pipeline over a watchlist.
// Scans are sequential: one attempt per entry, spaced by the limiter.
type Watcher struct {
	Search  Searcher
	Render  Renderer
	Vision  Vision
	Store   ImageStore
	Timeout time.Duration
	Limiter *rate.Limiter
	Log     *logrus.Logger
	Now     func() time.Time
}

// New builds a Watcher that waits at least interval between two page loads.
func New(s Searcher, r Renderer, v Vision, st ImageStore, timeout, interval time.Duration, log *logrus.Logger) *Watcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Watcher{
		Search:  s,
		Render:  r,
		Vision:  v,
		Store:   st,
		Timeout: timeout,
		Limiter: rate.NewLimiter(rate.Every(interval), 1),
		Log:     log,
		Now:     time.Now,
	}
}

// Add appends entries for sku: one for manualURL, or the first page of search results.
func (w *Watcher) Add(ctx context.Context, list []domain.WatchEntry, sku, manualURL string) ([]domain.WatchEntry, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return list, errors.New("sku is required")
	}
	if manualURL = strings.TrimSpace(manualURL); manualURL != "" {
		return appendNew(list, sku, []string{manualURL}), nil
	}
	if w.Search == nil {
		return list, errors.New("search is not configured")
	}
	links, err := w.Search.Links(ctx, sku, 0, PageSize)
	if err != nil {
		return list, err
	}
	return appendNew(list, sku, links), nil
}

// LoadMore fetches the next page of results after offset and returns the new offset.
func (w *Watcher) LoadMore(ctx context.Context, list []domain.WatchEntry, sku string, offset int) ([]domain.WatchEntry, int, error) {
	if w.Search == nil {
		return list, offset, errors.New("search is not configured")
	}
	next := offset + PageSize
	links, err := w.Search.Links(ctx, sku, next, PageSize)
	if err != nil {
		return list, offset, err
	}
	return appendNew(list, sku, links), next, nil
}

// Remove drops the entries at the given indexes.
func Remove(list []domain.WatchEntry, idx []int) []domain.WatchEntry {
	drop := map[int]bool{}
	for _, i := range idx {
		drop[i] = true
	}
	out := make([]domain.WatchEntry, 0, len(list))
	for i, e := range list {
		if !drop[i] {
			out = append(out, e)
		}
	}
	return out
}

// Scan prices the selected entries (all of them when selected is empty) and returns
// the updated list. A cancelled ctx leaves the remaining entries untouched.
func (w *Watcher) Scan(ctx context.Context, list []domain.WatchEntry, selected []int) []domain.WatchEntry {
	out := append([]domain.WatchEntry(nil), list...)
	if len(selected) == 0 {
		selected = make([]int, len(out))
		for i := range out {
			selected[i] = i
		}
	}
	for _, i := range selected {
		if i < 0 || i >= len(out) {
			continue
		}
		if w.Limiter != nil {
			if err := w.Limiter.Wait(ctx); err != nil {
				break
			}
		}
		out[i] = w.scanOne(ctx, out[i])
	}
	return out
}

func (w *Watcher) scanOne(ctx context.Context, e domain.WatchEntry) domain.WatchEntry {
	start := w.Now()
	e.LastUpdated = start.UTC().Format(time.RFC3339)
	e.Price, e.Err, e.ImgURL = "", "", ""

	price, img, err := w.price(ctx, e)
	e.ImgURL = img
	e.Status = Classify(err)
	if err != nil {
		e.Err = err.Error()
	} else {
		e.Price = price
	}
	w.Log.WithFields(logrus.Fields{
		"level":  "info",
		"fields": map[string]any{"sku": e.SKU, "url": e.URL, "status": e.Status, "price": e.Price, "took_ms": w.Now().Sub(start).Milliseconds()},
	}).Info("pricewatch.scan")
	return e
}

func (w *Watcher) price(ctx context.Context, e domain.WatchEntry) (price, imgURL string, err error) {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	shot, err := w.Render.Screenshot(ctx, e.URL, e.SKU)
	if err != nil {
		return "", "", err
	}
	if small, serr := Shrink(shot); serr == nil {
		shot = small
	}
	if w.Store != nil {
		name := fmt.Sprintf("%s_%s.jpg", slug(e.SKU), uuid.NewString()[:8])
		if u, perr := w.Store.Put(ctx, name, shot); perr == nil {
			imgURL = u
		} else {
			w.Log.WithError(perr).Warn("pricewatch.store")
		}
	}
	answer, err := w.Vision.ExtractPrice(ctx, shot, e.SKU)
	if err != nil {
		return "", imgURL, err
	}
	price, err = ParsePrice(answer)
	return price, imgURL, err
}

// Classify maps a scan error onto an entry status.
func Classify(err error) domain.WatchStatus {
	switch {
	case err == nil:
		return domain.WatchPriced
	case errors.Is(err, context.DeadlineExceeded):
		return domain.WatchTimedOut
	case errors.Is(err, ErrBlocked):
		return domain.WatchBlocked
	default:
		return domain.WatchAIError
	}
}

func appendNew(list []domain.WatchEntry, sku string, links []string) []domain.WatchEntry {
	seen := map[string]bool{}
	for _, e := range list {
		if e.SKU == sku {
			seen[e.URL] = true
		}
	}
	for _, l := range links {
		if seen[l] {
			continue
		}
		seen[l] = true
		list = append(list, domain.WatchEntry{SKU: sku, URL: l, Status: domain.WatchPending})
	}
	return list
}

var nonSlug = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func slug(s string) string {
	s = strings.Trim(nonSlug.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "item"
	}
	return strings.ToLower(s)
}
