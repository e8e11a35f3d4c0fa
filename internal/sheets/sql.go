package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// SQLBook keeps worksheets in two tables. It backs local development, the tests and
// deployments that prefer postgres over a hosted spreadsheet.
type SQLBook struct {
	db *sqlx.DB
}

// OpenSQL opens driver ("sqlite" or "pgx"/"postgres"), creates the schema and seeds
// the demo users and catalog when the workbook is empty.
func OpenSQL(driver, dsn string) (*SQLBook, error) {
	if driver == "postgres" {
		driver = "pgx"
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") {
		// every new connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	b := &SQLBook{db: db}
	if err := b.ensureSchema(); err != nil {
		return nil, err
	}
	ctx := context.Background()
	if err := b.seedUsers(ctx); err != nil {
		return nil, err
	}
	if err := b.seedCatalog(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *SQLBook) DB() *sqlx.DB { return b.db }

func (b *SQLBook) Close() error { return b.db.Close() }

func (b *SQLBook) ensureSchema() error {
	if b.db.DriverName() == "sqlite" {
		if _, err := b.db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			return err
		}
	}
	schema := `
CREATE TABLE IF NOT EXISTS worksheets(
  title TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sheet_rows(
  sheet TEXT NOT NULL REFERENCES worksheets(title) ON DELETE CASCADE,
  row_idx INTEGER NOT NULL,
  cells TEXT NOT NULL,
  PRIMARY KEY(sheet, row_idx)
);
`
	_, err := b.db.Exec(schema)
	return err
}

func (b *SQLBook) Worksheets(ctx context.Context) ([]string, error) {
	var out []string
	err := b.db.SelectContext(ctx, &out, `SELECT title FROM worksheets ORDER BY position`)
	return out, err
}

func (b *SQLBook) AddWorksheet(ctx context.Context, title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("empty worksheet title")
	}
	res, err := b.db.ExecContext(ctx, b.db.Rebind(`
		INSERT INTO worksheets(title, position, created_at)
		SELECT ?, COALESCE(MAX(position), 0) + 1, ? FROM worksheets WHERE 1 = 1
		ON CONFLICT(title) DO NOTHING
	`), title, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWorksheetExists
	}
	return nil
}

func (b *SQLBook) exists(ctx context.Context, q sqlx.QueryerContext, title string) error {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, b.db.Rebind(`SELECT COUNT(*) FROM worksheets WHERE title = ?`), title); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrWorksheetNotFound, title)
	}
	return nil
}

func (b *SQLBook) Values(ctx context.Context, title string) ([][]string, error) {
	if err := b.exists(ctx, b.db, title); err != nil {
		return nil, err
	}
	var raw []string
	if err := b.db.SelectContext(ctx, &raw, b.db.Rebind(`
		SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY row_idx
	`), title); err != nil {
		return nil, err
	}
	grid := make([][]string, 0, len(raw))
	for _, s := range raw {
		var row []string
		if err := json.Unmarshal([]byte(s), &row); err != nil {
			return nil, fmt.Errorf("decode row of %s: %w", title, err)
		}
		grid = append(grid, row)
	}
	return grid, nil
}

func (b *SQLBook) AppendRows(ctx context.Context, title string, rows [][]string) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := b.exists(ctx, tx, title); err != nil {
		return err
	}
	var next int
	if err := tx.GetContext(ctx, &next, tx.Rebind(`
		SELECT COALESCE(MAX(row_idx), -1) + 1 FROM sheet_rows WHERE sheet = ?
	`), title); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, title, next, rows); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *SQLBook) Replace(ctx context.Context, title string, rows [][]string) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := b.exists(ctx, tx, title); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sheet_rows WHERE sheet = ?`), title); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, title, 0, rows); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *SQLBook) UpdateRow(ctx context.Context, title string, index int, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx, b.db.Rebind(`
		UPDATE sheet_rows SET cells = ? WHERE sheet = ? AND row_idx = ?
	`), string(cells), title, index)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if err := b.exists(ctx, b.db, title); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s row %d", ErrRowOutOfRange, title, index)
	}
	return nil
}

func insertRows(ctx context.Context, tx *sqlx.Tx, title string, start int, rows [][]string) error {
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO sheet_rows(sheet, row_idx, cells) VALUES(?,?,?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range rows {
		if r == nil {
			r = []string{}
		}
		cells, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, title, start+i, string(cells)); err != nil {
			return err
		}
	}
	return nil
}

// seedUsers creates the users tab with one admin and one regular account (idempotent).
func (b *SQLBook) seedUsers(ctx context.Context) error {
	err := b.AddWorksheet(ctx, TabUsers)
	if errors.Is(err, ErrWorksheetExists) {
		return nil
	}
	if err != nil {
		return err
	}
	mk := func(name, email, role string) []string {
		h, _ := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
		return []string{name, string(h), email, "active", role}
	}
	log.Println("[seed] creating users tab")
	return b.AppendRows(ctx, TabUsers, [][]string{
		UsersHeader,
		mk("admin", "admin@quotedesk.test", "admin"),
		mk("alice", "alice@quotedesk.test", "user"),
	})
}

// seedCatalog inserts a demo category when there are no categories yet.
func (b *SQLBook) seedCatalog(ctx context.Context) error {
	err := b.AddWorksheet(ctx, TabCategories)
	if errors.Is(err, ErrWorksheetExists) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Println("[seed] inserting demo category")
	now := time.Now().UTC().Format(time.RFC3339)
	if err := b.AppendRows(ctx, TabCategories, [][]string{
		CategoriesHeader,
		{"Retro Consoles", "admin", now},
	}); err != nil {
		return err
	}
	if err := b.AddWorksheet(ctx, "Retro Consoles"); err != nil {
		return err
	}
	return b.AppendRows(ctx, "Retro Consoles", [][]string{
		{"Product Name", "SKU", "Price", "Stock"},
		{"Game Boy Color", "GBC-001", "129.99", "8"},
		{"NES Console", "NES-001", "199.00", "0"},
		{"Super Nintendo", "SNES-001", "249.50", "3"},
	})
}

var _ Workbook = (*SQLBook)(nil)
