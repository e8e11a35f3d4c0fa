package domain

// WatchStatus is the outcome of the last scan of a watchlist entry.
type WatchStatus string

const (
	WatchPending  WatchStatus = "Pending"
	WatchPriced   WatchStatus = "Priced"
	WatchTimedOut WatchStatus = "TimedOut"
	WatchAIError  WatchStatus = "AIError"
	WatchBlocked  WatchStatus = "Blocked"
)

type WatchEntry struct {
	SKU         string      `json:"sku"`
	URL         string      `json:"url"`
	Price       string      `json:"price"`
	Status      WatchStatus `json:"status"`
	LastUpdated string      `json:"last_updated"`
	ImgURL      string      `json:"img_url"`
	Err         string      `json:"err,omitempty"`
}
