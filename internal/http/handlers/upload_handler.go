package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"quotedesk/internal/catalog"
	"quotedesk/internal/log"
	"quotedesk/internal/services"
	"quotedesk/internal/session"
	"quotedesk/internal/validate"
)

type UploadHandler struct {
	Upload  *services.UploadService
	Catalog *services.CatalogService
}

// previewRows is how many parsed rows the mapping page shows.
const previewRows = 10

type mappingField struct {
	Index    int
	Target   string
	Selected string
}

func (h *UploadHandler) Form(c *fiber.Ctx) error {
	cats, err := h.Catalog.CategoryNames(c.UserContext())
	if err != nil {
		log.Error(c, "catalog.categories", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load categories")
	}
	return render(c, "upload", fiber.Map{"Categories": cats, "Staged": current(c).Uploads})
}

// Preview parses the uploaded file and stages it in the session for mapping.
func (h *UploadHandler) Preview(c *fiber.Ctx) error {
	category := strings.TrimSpace(c.FormValue("new_category"))
	if category == "" {
		category = strings.TrimSpace(c.FormValue("category"))
	}
	if _, ok := validate.Category(category); !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "category", "value": category})
		return h.formErr(c, fiber.StatusBadRequest, "Pick a category or enter a valid new category name")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return h.formErr(c, fiber.StatusBadRequest, "Choose a CSV or XLSX file")
	}
	f, err := fh.Open()
	if err != nil {
		log.Error(c, "upload.open", err, nil)
		return h.formErr(c, fiber.StatusBadRequest, "Could not read the file")
	}
	defer f.Close()

	name := filepath.Base(fh.Filename)
	up, err := h.Upload.Preview(name, f, c.FormValue("has_header") != "", category)
	if err != nil {
		if errors.Is(err, catalog.ErrUnsupportedFile) {
			log.Security(c, "upload.reject", map[string]any{"file": name})
			return h.formErr(c, fiber.StatusUnsupportedMediaType, "Only .csv and .xlsx files are accepted")
		}
		log.Info(c, "upload.parse.fail", map[string]any{"file": name, "err": err.Error()})
		return h.formErr(c, fiber.StatusBadRequest, "Could not parse the file: "+err.Error())
	}
	current(c).Stage(up)
	log.Audit(c, "upload.preview", map[string]any{"file": name, "category": category, "rows": len(up.Rows)})
	return c.Redirect("/upload/" + up.ID)
}

func (h *UploadHandler) Mapping(c *fiber.Ctx) error {
	up, err := h.staged(c)
	if err != nil {
		return notFound(c, fiber.StatusNotFound, "That upload has expired. Please upload the file again.")
	}
	return h.renderMapping(c, fiber.StatusOK, up, up.Mapping, nil)
}

// Save applies the submitted mapping: download the formatted workbook, append the rows,
// or sync the category against them.
func (h *UploadHandler) Save(c *fiber.Ctx) error {
	up, err := h.staged(c)
	if err != nil {
		return notFound(c, fiber.StatusNotFound, "That upload has expired. Please upload the file again.")
	}
	mapping, ok := h.mapping(c, up)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "mapping"})
		return h.renderMapping(c, fiber.StatusBadRequest, up, up.Mapping, fiber.Map{"Err": "Unknown source column"})
	}
	up.Mapping = mapping
	ctx := c.UserContext()
	s := current(c)

	switch c.FormValue("action") {
	case "download":
		b, err := h.Upload.Export(*up, mapping)
		if err != nil {
			return h.renderMapping(c, fiber.StatusBadRequest, up, mapping, fiber.Map{"Err": err.Error()})
		}
		log.Info(c, "upload.export", map[string]any{"category": up.Category})
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s_formatted.xlsx"`, safeName(up.Category)))
		return c.Send(b)
	}

	// DropUpload compacts the staged list, so keep a copy for the result page.
	staged := *up
	mode := c.FormValue("mode", services.ModeSync)
	switch mode {
	case services.ModeAppend:
		n, err := h.Upload.Append(ctx, s.Username, staged.Category, staged, mapping)
		if err != nil {
			return h.saveErr(c, up, mapping, err)
		}
		log.Audit(c, "upload.append", map[string]any{"category": staged.Category, "rows": n})
		s.DropUpload(staged.ID)
		return render(c, "upload_done", fiber.Map{"Mode": mode, "Category": staged.Category, "Rows": n})
	case services.ModeSync:
		key := c.FormValue("key", "SKU")
		res, err := h.Upload.Sync(ctx, s.Username, staged.Category, key, staged, mapping)
		if err != nil {
			return h.saveErr(c, up, mapping, err)
		}
		log.Audit(c, "upload.sync", map[string]any{
			"category": res.Category, "new": len(res.NewKeys), "eol": len(res.EOLKeys), "unchanged": len(res.Unchanged),
		})
		s.DropUpload(staged.ID)
		return render(c, "upload_done", fiber.Map{"Mode": mode, "Category": res.Category, "Rows": res.Rows, "Result": res})
	default:
		log.Security(c, "validation.fail", map[string]any{"field": "mode", "value": mode})
		return h.renderMapping(c, fiber.StatusBadRequest, up, mapping, fiber.Map{"Err": "Unknown upload mode"})
	}
}

func (h *UploadHandler) Discard(c *fiber.Ctx) error {
	current(c).DropUpload(c.Params("id"))
	return c.Redirect("/upload")
}

func (h *UploadHandler) staged(c *fiber.Ctx) (*session.Upload, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "upload"})
		return nil, errors.New("bad upload id")
	}
	up := current(c).Upload(id)
	if up == nil {
		return nil, errors.New("upload not staged")
	}
	return up, nil
}

// mapping reads map_<i> for every target column; values must name a source column.
func (h *UploadHandler) mapping(c *fiber.Ctx, up *session.Upload) (map[string]string, bool) {
	known := map[string]bool{catalog.Skip: true}
	for _, hd := range up.Headers {
		known[hd] = true
	}
	out := make(map[string]string, len(h.Upload.Targets))
	for i, t := range h.Upload.Targets {
		v := c.FormValue(fmt.Sprintf("map_%d", i))
		if !known[v] {
			return nil, false
		}
		out[t] = v
	}
	return out, true
}

func (h *UploadHandler) renderMapping(c *fiber.Ctx, status int, up *session.Upload, mapping map[string]string, extra fiber.Map) error {
	fields := make([]mappingField, len(h.Upload.Targets))
	for i, t := range h.Upload.Targets {
		fields[i] = mappingField{Index: i, Target: t, Selected: mapping[t]}
	}
	sample := up.Rows
	if len(sample) > previewRows {
		sample = sample[:previewRows]
	}
	data := fiber.Map{
		"Upload":  up,
		"Fields":  fields,
		"Sample":  sample,
		"Targets": h.Upload.Targets,
		"Total":   len(up.Rows),
	}
	for k, v := range extra {
		data[k] = v
	}
	return renderStatus(c, status, "upload_preview", data)
}

func (h *UploadHandler) formErr(c *fiber.Ctx, status int, msg string) error {
	cats, _ := h.Catalog.CategoryNames(c.UserContext())
	return renderStatus(c, status, "upload", fiber.Map{"Categories": cats, "Staged": current(c).Uploads, "Err": msg})
}

func (h *UploadHandler) saveErr(c *fiber.Ctx, up *session.Upload, mapping map[string]string, err error) error {
	status := fiber.StatusBadRequest
	switch {
	case errors.Is(err, catalog.ErrKeyColumnMissing),
		errors.Is(err, services.ErrNothingMapped),
		errors.Is(err, services.ErrInvalidInput):
	case errors.Is(err, services.ErrSyncBusy):
		status = fiber.StatusConflict
	default:
		log.Error(c, "upload.save", err, map[string]any{"category": up.Category})
		return h.renderMapping(c, fiber.StatusInternalServerError, up, mapping, fiber.Map{"Err": "Could not save the catalog. Nothing was changed."})
	}
	log.Info(c, "upload.save.reject", map[string]any{"category": up.Category, "err": err.Error()})
	return h.renderMapping(c, status, up, mapping, fiber.Map{"Err": err.Error()})
}

// safeName keeps letters, digits, dash and underscore for download file names.
func safeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "catalog"
	}
	return b.String()
}
