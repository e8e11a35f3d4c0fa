package handlers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

const supplierCSV = "Product,sku,Unit Price,Qty\n" +
	"Game Boy Color,GBC-001,119.99,4\n" +
	"Nintendo 64,N64-001,299.00,2\n"

// upload posts a supplier file for "Retro Consoles" and returns the mapping page location.
func (ta *testApp) upload(t *testing.T, sid, name, content string) string {
	t.Helper()
	return ta.uploadTo(t, sid, "Retro Consoles", name, content)
}

func (ta *testApp) uploadTo(t *testing.T, sid, category, name, content string) string {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("csrf", ta.csrf)
	_ = w.WriteField("category", category)
	_ = w.WriteField("has_header", "1")
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(content))
	_ = w.Close()

	resp := ta.postRaw(t, "/upload", sid, w.FormDataContentType(), &buf)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("upload: %d %s", resp.StatusCode, body(t, resp))
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/upload/") {
		t.Fatalf("unexpected redirect %q", loc)
	}
	return loc
}

func mappingForm(extra url.Values) url.Values {
	form := url.Values{
		"map_0": {"Product"},
		"map_1": {"sku"},
		"map_2": {"Unit Price"},
		"map_3": {"Qty"},
	}
	for k, v := range extra {
		form[k] = v
	}
	return form
}

func TestUploadSuggestsMappingAndSyncsCategory(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)
	loc := ta.upload(t, sid, "supplier.csv", supplierCSV)

	page := ta.get(t, loc, sid)
	if page.StatusCode != http.StatusOK {
		t.Fatalf("mapping page: %d", page.StatusCode)
	}
	html := body(t, page)
	for _, want := range []string{"N64-001", `value="sku" selected`} {
		if !strings.Contains(html, want) {
			t.Fatalf("mapping page missing %q", want)
		}
	}

	done := ta.post(t, loc, sid, mappingForm(url.Values{"mode": {"sync"}, "key": {"SKU"}}))
	if done.StatusCode != http.StatusOK {
		t.Fatalf("sync: %d %s", done.StatusCode, body(t, done))
	}
	result := body(t, done)
	for _, want := range []string{"New: 1", "<code>N64-001</code>", "End of life: 2", "Unchanged: 1"} {
		if !strings.Contains(result, want) {
			t.Fatalf("sync result missing %q", want)
		}
	}

	grid, err := ta.wb.Values(context.Background(), "Retro Consoles")
	if err != nil {
		t.Fatal(err)
	}
	if len(grid) != 3 || grid[1][1] != "GBC-001" || grid[1][2] != "119.99" || grid[2][1] != "N64-001" {
		t.Fatalf("category not replaced: %v", grid)
	}

	eol := body(t, ta.get(t, "/admin/eol", ta.admin(t)))
	for _, want := range []string{"NES-001", "SNES-001", "Retro Consoles"} {
		if !strings.Contains(eol, want) {
			t.Fatalf("eol archive missing %q", want)
		}
	}

	// the staged upload is consumed by a save
	if resp := ta.get(t, loc, sid); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("staged upload still present: %d", resp.StatusCode)
	}
}

func TestUploadAppendAndDownload(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)
	loc := ta.upload(t, sid, "supplier.csv", supplierCSV)

	dl := ta.post(t, loc, sid, mappingForm(url.Values{"action": {"download"}}))
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("download: %d", dl.StatusCode)
	}
	if ct := dl.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(body(t, dl), "PK") {
		t.Fatal("download is not an xlsx archive")
	}

	done := ta.post(t, loc, sid, mappingForm(url.Values{"mode": {"append"}}))
	if done.StatusCode != http.StatusOK {
		t.Fatalf("append: %d %s", done.StatusCode, body(t, done))
	}
	grid, err := ta.wb.Values(context.Background(), "Retro Consoles")
	if err != nil {
		t.Fatal(err)
	}
	if len(grid) != 6 || grid[5][1] != "N64-001" {
		t.Fatalf("rows not appended: %v", grid)
	}
}

func TestUploadRejections(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("csrf", ta.csrf)
	_ = w.WriteField("category", "Retro Consoles")
	fw, _ := w.CreateFormFile("file", "notes.txt")
	_, _ = fw.Write([]byte("hello"))
	_ = w.Close()
	if resp := ta.postRaw(t, "/upload", sid, w.FormDataContentType(), &buf); resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("txt upload expected 415, got %d", resp.StatusCode)
	}

	loc := ta.upload(t, sid, "supplier.csv", supplierCSV)
	bad := mappingForm(url.Values{"mode": {"sync"}})
	bad.Set("map_1", "Not A Column")
	if resp := ta.post(t, loc, sid, bad); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown source column expected 400, got %d", resp.StatusCode)
	}

	noKey := mappingForm(url.Values{"mode": {"sync"}, "key": {"SKU"}})
	noKey.Set("map_1", "")
	resp := ta.post(t, loc, sid, noKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("sync without key column expected 400, got %d", resp.StatusCode)
	}
	grid, _ := ta.wb.Values(context.Background(), "Retro Consoles")
	if len(grid) != 4 {
		t.Fatalf("failed sync changed the category: %v", grid)
	}

	if resp := ta.get(t, "/upload/does-not-exist", sid); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown upload expected 404, got %d", resp.StatusCode)
	}
}

func TestUploadSyncMatchesCategoryIgnoringCase(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)
	loc := ta.uploadTo(t, sid, "retro consoles", "supplier.csv", supplierCSV)

	done := ta.post(t, loc, sid, mappingForm(url.Values{"mode": {"sync"}, "key": {"SKU"}}))
	if done.StatusCode != http.StatusOK {
		t.Fatalf("sync: %d %s", done.StatusCode, body(t, done))
	}
	result := body(t, done)
	if !strings.Contains(result, "End of life: 2") || !strings.Contains(result, "Retro Consoles: 2 row(s)") {
		t.Fatalf("sync did not run against the registered category: %s", result)
	}

	tabs, err := ta.wb.Worksheets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, tab := range tabs {
		if tab == "retro consoles" {
			t.Fatalf("stray tab created: %v", tabs)
		}
	}
	if !strings.Contains(body(t, ta.get(t, "/search?q=N64-001", sid)), "Nintendo 64") {
		t.Fatal("synced rows missing from the catalog")
	}
}

func TestUploadResultShowsSavedUploadCategory(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)
	first := ta.upload(t, sid, "supplier.csv", supplierCSV)
	ta.uploadTo(t, sid, "Handhelds", "handhelds.csv", supplierCSV)

	done := ta.post(t, first, sid, mappingForm(url.Values{"mode": {"append"}}))
	if done.StatusCode != http.StatusOK {
		t.Fatalf("append: %d %s", done.StatusCode, body(t, done))
	}
	page := body(t, done)
	if !strings.Contains(page, "Retro Consoles: 2 row(s)") || strings.Contains(page, "Handhelds") {
		t.Fatalf("result page shows the wrong upload: %s", page)
	}
}
