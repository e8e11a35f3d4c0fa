package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"quotedesk/internal/cache"
	"quotedesk/internal/catalog"
	"quotedesk/internal/domain"
	"quotedesk/internal/repos"
	"quotedesk/internal/session"
	"quotedesk/internal/validate"
)

var (
	ErrNothingMapped = errors.New("map at least one column")
	ErrSyncBusy      = errors.New("another sync of this category is running")
)

// Upload modes.
const (
	ModeAppend = "append"
	ModeSync   = "sync"
)

type UploadService struct {
	Cats     *repos.CategoryRepo
	Prods    *repos.ProductRepo
	EOL      *repos.EOLRepo
	Activity *Activity
	Locker   cache.Locker
	Targets  []string
	Now      func() time.Time
}

// SyncResult summarises a sync.
type SyncResult struct {
	catalog.Diff
	Category string
	Rows     int
}

// Preview parses an uploaded file and proposes a column mapping.
func (s *UploadService) Preview(name string, r io.Reader, hasHeader bool, category string) (session.Upload, error) {
	t, err := catalog.ParseUpload(name, r, hasHeader)
	if err != nil {
		return session.Upload{}, err
	}
	return session.Upload{
		ID:        uuid.NewString(),
		FileName:  name,
		Category:  category,
		HasHeader: hasHeader,
		Headers:   t.Headers,
		Rows:      t.Rows,
		Mapping:   catalog.SuggestMapping(s.Targets, t.Headers),
	}, nil
}

// Formatted applies mapping to a staged upload.
func (s *UploadService) Formatted(up session.Upload, mapping map[string]string) (domain.Table, error) {
	t := catalog.ApplyMapping(domain.Table{Headers: up.Headers, Rows: up.Rows}, s.Targets, mapping)
	if len(t.Headers) == 0 {
		return t, ErrNothingMapped
	}
	return t, nil
}

// Append adds the mapped rows to a category, registering the category when new.
func (s *UploadService) Append(ctx context.Context, user, category string, up session.Upload, mapping map[string]string) (int, error) {
	t, err := s.Formatted(up, mapping)
	if err != nil {
		return 0, err
	}
	category, err = s.ensureCategory(ctx, user, category)
	if err != nil {
		return 0, err
	}
	if err := s.Prods.Append(ctx, category, t); err != nil {
		return 0, err
	}
	s.Activity.Record(ctx, user, "Upload Direct", fmt.Sprintf("Category: %s, Rows: %d", category, t.Len()))
	return t.Len(), nil
}

// Sync replaces a category with the mapped rows. Rows whose key disappeared are
// archived first; when archiving fails the category is left as it was.
func (s *UploadService) Sync(ctx context.Context, user, category, key string, up session.Upload, mapping map[string]string) (SyncResult, error) {
	t, err := s.Formatted(up, mapping)
	if err != nil {
		return SyncResult{}, err
	}
	category, err = s.ensureCategory(ctx, user, category)
	if err != nil {
		return SyncResult{}, err
	}

	if s.Locker != nil {
		unlock, err := s.Locker.Lock(ctx, "sync:"+category, 2*time.Minute)
		if errors.Is(err, cache.ErrLocked) {
			return SyncResult{}, ErrSyncBusy
		}
		if err != nil {
			return SyncResult{}, err
		}
		defer unlock()
	}

	existing, err := s.Prods.Category(ctx, category)
	if err != nil {
		return SyncResult{}, err
	}
	d, err := catalog.Compare(existing, t, key)
	if err != nil {
		return SyncResult{}, err
	}
	if len(d.EOLRows) > 0 {
		if err := s.EOL.Archive(ctx, category, existing.Headers, d.EOLRows, s.now()); err != nil {
			return SyncResult{}, fmt.Errorf("archive eol rows: %w", err)
		}
	}
	if err := s.Prods.Replace(ctx, category, t); err != nil {
		return SyncResult{}, err
	}
	s.Activity.Record(ctx, user, "Sync", fmt.Sprintf("Category: %s, New: %d, EOL: %d", category, len(d.NewKeys), len(d.EOLKeys)))
	return SyncResult{Diff: d, Category: category, Rows: t.Len()}, nil
}

// Export renders the mapped rows as a formatted workbook.
func (s *UploadService) Export(up session.Upload, mapping map[string]string) ([]byte, error) {
	t, err := s.Formatted(up, mapping)
	if err != nil {
		return nil, err
	}
	return catalog.ExportXLSX(t, up.Category)
}

// ensureCategory registers category when new and returns its registered spelling.
func (s *UploadService) ensureCategory(ctx context.Context, user, category string) (string, error) {
	category, valid := validate.Category(category)
	if !valid {
		return "", fmt.Errorf("%w: bad category name", ErrInvalidInput)
	}
	canon, ok, err := s.Cats.Resolve(ctx, category)
	if err != nil {
		return "", err
	}
	if ok {
		return canon, nil
	}
	if err := s.Cats.Add(ctx, category, user); err != nil && !errors.Is(err, repos.ErrDuplicate) {
		return "", err
	}
	canon, ok, err = s.Cats.Resolve(ctx, category)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("category %q: %w", category, repos.ErrNotFound)
	}
	return canon, nil
}

func (s *UploadService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
