package sheets

// Header rows of the system tabs, in column order.
var (
	UsersHeader      = []string{"username", "password", "email", "status", "role"}
	CategoriesHeader = []string{"category_name", "created_by", "created_at"}
	QuotesHeader     = []string{
		"quote_id", "created_at", "created_by", "client_name", "client_email", "client_phone",
		"status", "total_amount", "items_json", "expiration_date", "seller_info",
	}
	LogsHeader = []string{"timestamp", "user", "action", "details"}
)

// EOL archive rows carry the archived row's own columns plus these two.
const (
	EOLDateColumn     = "eol_date"
	EOLCategoryColumn = "original_category"
)
