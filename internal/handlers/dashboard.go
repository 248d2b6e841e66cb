package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fitdiary/internal/aggregate"
	mw "fitdiary/internal/middleware"
	"fitdiary/internal/models"
	"fitdiary/internal/settings"
	"fitdiary/internal/store"
)

// SettingsReader is the part of the settings service the dashboard needs.
type SettingsReader interface {
	Get(ctx context.Context, userID int) (settings.Settings, error)
}

type DashboardHandler struct {
	records  store.RecordStore
	settings SettingsReader
	logger   *zap.Logger
	now      func() time.Time
}

func NewDashboardHandler(records store.RecordStore, settings SettingsReader, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{records: records, settings: settings, logger: logger, now: time.Now}
}

type dashboardResponse struct {
	LocalDate        string                `json:"local_date"`
	Span             settings.ChartSpan    `json:"span"`
	StartDate        string                `json:"start_date"`
	Today            *models.HealthRecord  `json:"today"`
	TodayError       bool                  `json:"today_error,omitempty"`
	Series           []aggregate.Series    `json:"series"`
	MoodDistribution []aggregate.MoodCount `json:"mood_distribution"`
	RangeError       bool                  `json:"range_error,omitempty"`
}

// Get powers the dashboard: today's record plus every metric over the chart
// span ending today. Both fetches run in parallel and a failure of one only
// blanks its own part of the response.
// Accepts optional query params: local_date=YYYY-MM-DD, span=WEEK|MONTH.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := mw.UserIDFrom(r.Context())

	refDate, err := localDate(r, h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	span, err := h.span(r, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	today := refDate.Format(models.DateLayout)
	start := refDate.AddDate(0, 0, -span.Days()).Format(models.DateLayout)
	resp := dashboardResponse{LocalDate: today, Span: span, StartDate: start}

	var (
		todayRecords []models.HealthRecord
		rangeRecords []models.HealthRecord
		todayErr     error
		rangeErr     error
	)
	var g errgroup.Group
	g.Go(func() error {
		todayRecords, todayErr = h.records.Query(r.Context(), userID, today, today)
		return nil
	})
	g.Go(func() error {
		rangeRecords, rangeErr = h.records.Query(r.Context(), userID, start, today)
		return nil
	})
	_ = g.Wait()

	if todayErr != nil {
		h.logger.Warn("dashboard today fetch failed", zap.Int("user_id", userID), zap.Error(todayErr))
		resp.TodayError = true
	} else if len(todayRecords) > 0 {
		resp.Today = &todayRecords[0]
	}

	if rangeErr != nil {
		h.logger.Warn("dashboard range fetch failed", zap.Int("user_id", userID), zap.Error(rangeErr))
		resp.RangeError = true
		rangeRecords = nil
	}
	resp.Series = aggregate.AllSeries(rangeRecords)
	resp.MoodDistribution = aggregate.CountByMood(rangeRecords)

	writeJSON(w, http.StatusOK, resp)
}

// span reads ?span= or falls back to the user's chart span setting.
func (h *DashboardHandler) span(r *http.Request, userID int) (settings.ChartSpan, error) {
	if s := r.URL.Query().Get("span"); s != "" {
		span, ok := settings.ParseChartSpan(s)
		if !ok {
			return "", errInvalidSpan
		}
		return span, nil
	}
	st, err := h.settings.Get(r.Context(), userID)
	if err != nil {
		h.logger.Warn("dashboard settings fetch failed", zap.Int("user_id", userID), zap.Error(err))
		return settings.Defaults().ChartSpan, nil
	}
	return st.ChartSpan, nil
}

// Series returns one metric over start_date..end_date.
func (h *DashboardHandler) Series(w http.ResponseWriter, r *http.Request) {
	userID, _ := mw.UserIDFrom(r.Context())

	metric, err := aggregate.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		http.Error(w, "invalid metric", http.StatusBadRequest)
		return
	}
	records, ok := h.queryRange(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregate.ToSeries(records, metric))
}

// MoodDistribution counts records per mood over start_date..end_date.
func (h *DashboardHandler) MoodDistribution(w http.ResponseWriter, r *http.Request) {
	userID, _ := mw.UserIDFrom(r.Context())

	records, ok := h.queryRange(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":  len(records),
		"counts": aggregate.CountByMood(records),
	})
}

func (h *DashboardHandler) queryRange(w http.ResponseWriter, r *http.Request, userID int) ([]models.HealthRecord, bool) {
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
