package session

import (
	"context"
	"testing"
	"time"

	"quotedesk/internal/cache"
	"quotedesk/internal/domain"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewStore(cache.NewMemory(), time.Minute)

	s, err := st.Load(ctx, "sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if s.LoggedIn() {
		t.Fatal("fresh session should be anonymous")
	}

	s.Username, s.Role = "alice", domain.RoleUser
	s.Draft.Items = append(s.Draft.Items, domain.LineItem{Name: "Widget", Qty: 2, Price: 10, DiscountType: "%"})
	s.Watchlist = []domain.WatchEntry{{SKU: "A", URL: "https://x.test", Status: domain.WatchPending}}
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, _ := st.Load(ctx, "sid-1")
	if got.Username != "alice" || len(got.Draft.Items) != 1 || got.Watchlist[0].Status != domain.WatchPending {
		t.Fatalf("loaded = %+v", got)
	}
	if got.IsAdmin() {
		t.Fatal("user role reported as admin")
	}

	_ = st.Destroy(ctx, "sid-1")
	got, _ = st.Load(ctx, "sid-1")
	if got.LoggedIn() {
		t.Fatal("destroyed session still logged in")
	}

	if _, err := st.Load(ctx, ""); err != ErrNoID {
		t.Fatalf("want ErrNoID, got %v", err)
	}
}

func TestSession_StageKeepsNewest(t *testing.T) {
	s := &Session{}
	for i := 0; i < MaxStagedUploads+2; i++ {
		s.Stage(Upload{ID: string(rune('a' + i))})
	}
	if len(s.Uploads) != MaxStagedUploads || s.Uploads[0].ID != "c" {
		t.Fatalf("uploads = %+v", s.Uploads)
	}
	if s.Upload("g") == nil || s.Upload("a") != nil {
		t.Fatal("lookup by id failed")
	}
	s.DropUpload("g")
	if s.Upload("g") != nil {
		t.Fatal("DropUpload kept the upload")
	}
}
