package pricewatch

import (
	"encoding/csv"
	"io"

	"quotedesk/internal/domain"
)

var reportHeader = []string{"SKU", "URL", "Price", "Status", "Last Updated", "Screenshot", "Error"}

// WriteCSV writes the results table.
func WriteCSV(w io.Writer, list []domain.WatchEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, e := range list {
		if err := cw.Write([]string{e.SKU, e.URL, e.Price, string(e.Status), e.LastUpdated, e.ImgURL, e.Err}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
