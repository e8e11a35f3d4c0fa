package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// GoogleBook is a Workbook over one Google spreadsheet.
type GoogleBook struct {
	svc *gsheets.Service
	id  string
}

// OpenGoogle connects to spreadsheet id with the given client options
// (typically option.WithCredentialsFile or option.WithCredentialsJSON).
func OpenGoogle(ctx context.Context, id string, opts ...option.ClientOption) (*GoogleBook, error) {
	if id == "" {
		return nil, errors.New("google sheets: spreadsheet id is required")
	}
	opts = append(opts, option.WithScopes(gsheets.SpreadsheetsScope))
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google sheets: %w", err)
	}
	return &GoogleBook{svc: svc, id: id}, nil
}

func (g *GoogleBook) Worksheets(ctx context.Context) ([]string, error) {
	ss, err := g.svc.Spreadsheets.Get(g.id).
		Fields(googleapi.Field("sheets.properties.title")).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			out = append(out, s.Properties.Title)
		}
	}
	return out, nil
}

func (g *GoogleBook) AddWorksheet(ctx context.Context, title string) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: title,
					GridProperties: &gsheets.GridProperties{
						RowCount:    1000,
						ColumnCount: 26,
					},
				},
			},
		}},
	}
	_, err := g.svc.Spreadsheets.BatchUpdate(g.id, req).Context(ctx).Do()
	return g.mapErr(err, title)
}

func (g *GoogleBook) Values(ctx context.Context, title string) ([][]string, error) {
	vr, err := g.svc.Spreadsheets.Values.Get(g.id, a1(title)).Context(ctx).Do()
	if err != nil {
		return nil, g.mapErr(err, title)
	}
	grid := make([][]string, 0, len(vr.Values))
	for _, row := range vr.Values {
		out := make([]string, len(row))
		for i, v := range row {
			out[i] = fmt.Sprint(v)
		}
		grid = append(grid, out)
	}
	return grid, nil
}

func (g *GoogleBook) AppendRows(ctx context.Context, title string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := g.svc.Spreadsheets.Values.Append(g.id, a1(title), valueRange(rows)).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return g.mapErr(err, title)
}

func (g *GoogleBook) Replace(ctx context.Context, title string, rows [][]string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(g.id, a1(title), &gsheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return g.mapErr(err, title)
	}
	if len(rows) == 0 {
		return nil
	}
	_, err = g.svc.Spreadsheets.Values.Update(g.id, a1(title)+"!A1", valueRange(rows)).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return g.mapErr(err, title)
}

func (g *GoogleBook) UpdateRow(ctx context.Context, title string, index int, row []string) error {
	if index < 0 {
		return fmt.Errorf("%w: %s row %d", ErrRowOutOfRange, title, index)
	}
	rng := fmt.Sprintf("%s!A%d", a1(title), index+1)
	_, err := g.svc.Spreadsheets.Values.Update(g.id, rng, valueRange([][]string{row})).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return g.mapErr(err, title)
}

// mapErr turns the API's 400 responses into the package's sentinel errors.
func (g *GoogleBook) mapErr(err error, title string) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
		msg := strings.ToLower(gerr.Message)
		switch {
		case strings.Contains(msg, "unable to parse range"):
			return fmt.Errorf("%w: %s", ErrWorksheetNotFound, title)
		case strings.Contains(msg, "already exists"):
			return fmt.Errorf("%w: %s", ErrWorksheetExists, title)
		}
	}
	return err
}

// a1 quotes a sheet title for use in A1 notation.
func a1(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func valueRange(rows [][]string) *gsheets.ValueRange {
	vals := make([][]interface{}, len(rows))
	for i, r := range rows {
		vals[i] = make([]interface{}, len(r))
		for j, v := range r {
			vals[i][j] = v
		}
	}
	return &gsheets.ValueRange{Values: vals}
}

var _ Workbook = (*GoogleBook)(nil)
