package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fitdiary/internal/models"
)

// defaultRangeDays is how far back a range query reaches when the client
// gives no start_date.
const defaultRangeDays = 30

var errInvalidSpan = errors.New("invalid span; expected WEEK or MONTH")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// localDate reads local_date (YYYY-MM-DD) or falls back to today.
func localDate(r *http.Request, now time.Time) (time.Time, error) {
	s := r.URL.Query().Get("local_date")
	if s == "" {
		return dateOnly(now), nil
	}
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, errors.New("invalid local_date format; expected YYYY-MM-DD")
	}
	return d, nil
}

// dateRange reads start_date and end_date. end defaults to today and start
// to defaultRangeDays before end.
func dateRange(r *http.Request, now time.Time) (string, string, error) {
	q := r.URL.Query()
	end := dateOnly(now)
	if s := q.Get("end_date"); s != "" {
		d, err := time.Parse(models.DateLayout, s)
		if err != nil {
			return "", "", errors.New("invalid end_date format; expected YYYY-MM-DD")
		}
		end = d
	}
	start := end.AddDate(0, 0, -defaultRangeDays)
	if s := q.Get("start_date"); s != "" {
		d, err := time.Parse(models.DateLayout, s)
		if err != nil {
			return "", "", errors.New("invalid start_date format; expected YYYY-MM-DD")
		}
		start = d
	}
	if start.After(end) {
		return "", "", errors.New("start_date is after end_date")
	}
	return start.Format(models.DateLayout), end.Format(models.DateLayout), nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
