package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"fitdiary/internal/aggregate"
	"fitdiary/internal/export"
	mw "fitdiary/internal/middleware"
	"fitdiary/internal/models"
	"fitdiary/internal/store"
)

type ExportHandler struct {
	records store.RecordStore
	sink    export.Sink
	logger  *zap.Logger
	now     func() time.Time
}

func NewExportHandler(records store.RecordStore, sink export.Sink, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{records: records, sink: sink, logger: logger, now: time.Now}
}

type document struct {
	name        string
	contentType string
	data        []byte
}

func render(format string, records []models.HealthRecord) (document, error) {
	var buf bytes.Buffer
	switch format {
	case "csv":
		if err := aggregate.WriteCSV(&buf, records); err != nil {
			return document{}, err
		}
		return document{export.CSVName, export.CSVContentType + "; charset=utf-8", buf.Bytes()}, nil
	case "pdf":
		if err := export.RenderPDF(&buf, aggregate.ToTable(records)); err != nil {
			return document{}, err
		}
		return document{export.PDFName, export.PDFContentType, buf.Bytes()}, nil
	}
	return document{}, fmt.Errorf("unknown format %q", format)
}

func (h *ExportHandler) CSV(w http.ResponseWriter, r *http.Request) { h.download(w, r, "csv") }

func (h *ExportHandler) PDF(w http.ResponseWriter, r *http.Request) { h.download(w, r, "pdf") }

// download renders the whole document before writing, so a failure never
// sends a truncated file.
func (h *ExportHandler) download(w http.ResponseWriter, r *http.Request, format string) {
	userID, _ := mw.UserIDFrom(r.Context())

	records, ok := h.query(w, r, userID)
	if !ok {
		return
	}
	doc, err := render(format, records)
	if err != nil {
		h.logger.Error("render export failed", zap.Int("user_id", userID), zap.String("format", format), zap.Error(err))
		http.Error(w, "could not render export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", doc.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.data)
}

// Save renders the export and hands it to the configured sink.
// Accepts query params: format=csv|pdf, start_date, end_date.
func (h *ExportHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, _ := mw.UserIDFrom(r.Context())

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		http.Error(w, "invalid format; expected csv or pdf", http.StatusBadRequest)
		return
	}

	records, ok := h.query(w, r, userID)
	if !ok {
		return
	}
	doc, err := render(format, records)
	if err != nil {
		h.logger.Error("render export failed", zap.Int("user_id", userID), zap.String("format", format), zap.Error(err))
		http.Error(w, "could not render export", http.StatusInternalServerError)
		return
	}

	name := fmt.Sprintf("%d_%s", userID, doc.name)
	location, err := h.sink.Put(r.Context(), name, doc.contentType, doc.data)
	if err != nil {
		h.logger.Error("store export failed", zap.Int("user_id", userID), zap.String("name", name), zap.Error(err))
		http.Error(w, "could not save export", http.StatusBadGateway)
		return
	}
	h.logger.Info("export saved", zap.Int("user_id", userID), zap.String("location", location), zap.Int("records", len(records)))

	writeJSON(w, http.StatusCreated, map[string]any{
		"location": location,
		"format":   format,
		"records":  len(records),
	})
}

func (h *ExportHandler) query(w http.ResponseWriter, r *http.Request, userID int) ([]models.HealthRecord, bool) {
	start, end, err := dateRange(r, h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	records, err := h.records.Query(r.Context(), userID, start, end)
	if err != nil {
		h.logger.Error("query entries failed", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "could not fetch", http.StatusInternalServerError)
		return nil, false
	}
	return records, true
}
