package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	mw "fitdiary/internal/middleware"
	"fitdiary/internal/models"
	"fitdiary/internal/store"
)

type EntriesHandler struct {
	records store.RecordStore
	policy  models.ValidationPolicy
	logger  *zap.Logger
	now     func() time.Time
}

// NewEntriesHandler saves and lists health records. policy applies when a
// request does not pick one with ?mode=.
func NewEntriesHandler(records store.RecordStore, policy models.ValidationPolicy, logger *zap.Logger) *EntriesHandler {
	return &EntriesHandler{records: records, policy: policy, logger: logger, now: time.Now}
}

type entryRequest struct {
	models.EntryInput
	LocalDate string `json:"local_date"` // YYYY-MM-DD, defaults to today
}

// Upsert stores the entry for its date, replacing any earlier entry for the
// same day.
func (h *EntriesHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, _ := mw.UserIDFrom(r.Context())

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	date := dateOnly(h.now())
	if req.LocalDate != "" {
		d, err := time.Parse(models.DateLayout, req.LocalDate)
		if err != nil {
			http.Error(w, "invalid local_date format; expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = d
	}

	policy := h.policy
	if mode := r.URL.Query().Get("mode"); mode != "" {
		p, ok := models.ParsePolicy(mode)
		if !ok {
			http.Error(w, "invalid mode; expected strict or permissive", http.StatusBadRequest)
			return
		}
		policy = p
	}

	rec, err := req.Parse(policy, date.Format(models.DateLayout))
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, verr)
		return
	}
	if err != nil {
		http.Error(w, "invalid entry", http.StatusBadRequest)
		return
	}

	if err := h.records.Save(r.Context(), userID, rec); err != nil {
		h.logger.Error("save entry failed", zap.Int("user_id", userID), zap.String("local_date", rec.Date), zap.Error(err))
		http.Error(w, "could not save", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Entry saved successfully",
		"local_date": rec.Date,
		"record":     rec,
	})
}

// List returns the user's records between start_date and end_date,
// ascending by date.
func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := mw.UserIDFrom(r.Context())

	start, end, err := dateRange(r, h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := h.records.Query(r.Context(), userID, start, end)
	if err != nil {
		h.logger.Error("query entries failed", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "could not fetch", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.HealthRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
