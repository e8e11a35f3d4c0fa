// Package session keeps per-user UI state between requests: the quote draft, staged
// uploads, the watchlist and search position.
package session

import (
	"context"
	"errors"
	"time"

	"quotedesk/internal/cache"
	"quotedesk/internal/domain"
)

// Draft is the quote being built.
type Draft struct {
	Items  []domain.LineItem `json:"items"`
	Client domain.Client     `json:"client"`
	// SourceID is set when the draft was loaded from a saved quote.
	SourceID string `json:"source_id,omitempty"`
}

// Upload is a parsed file waiting for its column mapping to be confirmed.
type Upload struct {
	ID        string            `json:"id"`
	FileName  string            `json:"file_name"`
	Category  string            `json:"category"`
	HasHeader bool              `json:"has_header"`
	Headers   []string          `json:"headers"`
	Rows      [][]string        `json:"rows"`
	Mapping   map[string]string `json:"mapping"`
}

type Session struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`

	Draft   Draft    `json:"draft"`
	Uploads []Upload `json:"uploads,omitempty"`

	Watchlist   []domain.WatchEntry `json:"watchlist,omitempty"`
	WatchSKU    string              `json:"watch_sku,omitempty"`
	WatchOffset int                 `json:"watch_offset"`

	SearchQuery string `json:"search_query,omitempty"`
}

func (s *Session) LoggedIn() bool { return s != nil && s.Username != "" }

func (s *Session) IsAdmin() bool { return s.LoggedIn() && s.Role == domain.RoleAdmin }

// Upload returns the staged upload with id, or nil.
func (s *Session) Upload(id string) *Upload {
	for i := range s.Uploads {
		if s.Uploads[i].ID == id {
			return &s.Uploads[i]
		}
	}
	return nil
}

func (s *Session) DropUpload(id string) {
	out := s.Uploads[:0]
	for _, u := range s.Uploads {
		if u.ID != id {
			out = append(out, u)
		}
	}
	s.Uploads = out
}

// MaxStagedUploads bounds how many parsed files a session keeps.
const MaxStagedUploads = 5

func (s *Session) Stage(u Upload) {
	s.DropUpload(u.ID)
	s.Uploads = append(s.Uploads, u)
	if n := len(s.Uploads); n > MaxStagedUploads {
		s.Uploads = s.Uploads[n-MaxStagedUploads:]
	}
}

var ErrNoID = errors.New("session id is empty")

// Store persists sessions in a cache.Store, refreshing the TTL on every save.
type Store struct {
	c   cache.Store
	ttl time.Duration
}

func NewStore(c cache.Store, ttl time.Duration) *Store { return &Store{c: c, ttl: ttl} }

func key(id string) string { return "session:" + id }

// Load returns the session for id, or a fresh one when none is stored.
func (st *Store) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoID
	}
	s := &Session{ID: id}
	if _, err := cache.GetObject(ctx, st.c, key(id), s); err != nil {
		return nil, err
	}
	s.ID = id
	return s, nil
}

func (st *Store) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return ErrNoID
	}
	return cache.SetObject(ctx, st.c, key(s.ID), s, st.ttl)
}

func (st *Store) Destroy(ctx context.Context, id string) error {
	return st.c.Delete(ctx, key(id))
}
