package domain

const (
	StatusPending = "pending"
	StatusActive  = "active"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	Username string `json:"username"`
	Hash     string `json:"-"`
	Email    string `json:"email"`
	Status   string `json:"status"` // pending | active
	Role     string `json:"role"`   // user | admin
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

type Category struct {
	Name      string `json:"category_name"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

// ProductRow is one catalog row keyed by column name. The "category" key is injected
// on read and names the tab the row came from.
type ProductRow map[string]string

const CategoryColumn = "category"

func (r ProductRow) Category() string { return r[CategoryColumn] }

// Get returns the first non-empty value among the given column names.
func (r ProductRow) Get(cols ...string) string {
	for _, c := range cols {
		if v, ok := r[c]; ok && v != "" {
			return v
		}
	}
	return ""
}

const (
	DiscountPercent = "%"
	DiscountFlat    = "$"
)

type LineItem struct {
	Name         string  `json:"name"`
	Desc         string  `json:"desc"`
	Qty          int     `json:"qty"`
	Price        float64 `json:"price"`
	DiscountVal  float64 `json:"discount_val"`
	DiscountType string  `json:"discount_type"` // % | $
	Total        float64 `json:"total"`
}

const (
	QuoteDraft    = "Draft"
	QuoteSent     = "Sent"
	QuoteAccepted = "Accepted"
	QuoteDeclined = "Declined"
)

type Quote struct {
	ID             string     `json:"quote_id"`
	CreatedAt      string     `json:"created_at"`
	CreatedBy      string     `json:"created_by"`
	ClientName     string     `json:"client_name"`
	ClientEmail    string     `json:"client_email"`
	ClientPhone    string     `json:"client_phone"`
	Status         string     `json:"status"`
	TotalAmount    float64    `json:"total_amount"`
	Items          []LineItem `json:"items"`
	ExpirationDate string     `json:"expiration_date"`
	SellerInfo     string     `json:"seller_info"`
}

type Client struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// Availability is the stock level shown next to a catalog row.
type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK | UNKNOWN
	Qty    int    `json:"qty"`
}
