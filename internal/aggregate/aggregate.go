// Package aggregate turns a list of health records into chart series,
// mood counts and flat tabular exports. Everything here is a pure function
// over records that were already fetched from a store.
package aggregate

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"fitdiary/internal/models"
)

// LabelLayout is the short day/month label shown under chart points.
const LabelLayout = "02/01"

// SelectRange keeps records whose date lies in [start, end] and returns them
// in ascending date order. ISO dates compare correctly as strings.
func SelectRange(records []models.HealthRecord, start, end string) []models.HealthRecord {
	out := make([]models.HealthRecord, 0, len(records))
	for _, r := range records {
		if r.Date >= start && r.Date <= end {
			out = append(out, r)
		}
	}
	SortByDate(out)
	return out
}

// SortByDate orders records ascending by date in place, keeping the store's
// order for equal dates.
func SortByDate(records []models.HealthRecord) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date < records[j].Date })
}

// Label reformats YYYY-MM-DD as DD/MM. Anything that does not parse is
// returned unchanged so legacy rows still get a label.
func Label(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(LabelLayout)
}

// Series is one chart line: a label and a value per record, index aligned.
type Series struct {
	Metric Metric    `json:"metric"`
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ToSeries extracts metric from every record. Labels and Values always have
// len(records) entries.
func ToSeries(records []models.HealthRecord, metric Metric) Series {
	s := Series{
		Metric: metric,
		Title:  metric.Title(),
		Labels: make([]string, len(records)),
		Values: make([]float64, len(records)),
	}
	for i, r := range records {
		s.Labels[i] = Label(r.Date)
		s.Values[i] = metric.Value(r)
	}
	return s
}

// AllSeries builds a series for every metric, in chart order.
func AllSeries(records []models.HealthRecord) []Series {
	out := make([]Series, 0, len(Metrics))
	for _, m := range Metrics {
		out = append(out, ToSeries(records, m))
	}
	return out
}

// UnknownMoodName labels moods outside the known glyph set.
const UnknownMoodName = "Unknown"

// MoodCount is one slice of the mood distribution.
type MoodCount struct {
	Mood  string `json:"mood"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CountByMood groups records by their raw mood value. Entries appear in the
// order their mood was first seen; the counts always sum to len(records).
func CountByMood(records []models.HealthRecord) []MoodCount {
	out := []MoodCount{}
	idx := map[string]int{}
	for _, r := range records {
		i, ok := idx[r.Mood]
		if !ok {
			i = len(out)
			idx[r.Mood] = i
			name := UnknownMoodName
			if models.IsMoodGlyph(r.Mood) {
				name = models.MoodFromGlyph(r.Mood).Name
			}
			out = append(out, MoodCount{Mood: r.Mood, Name: name})
		}
		out[i].Count++
	}
	return out
}

// FormatNumber renders a real value in its shortest round-trip form and
// always keeps one fractional digit, so 70 becomes "70.0" and 70.25 stays
// "70.25". CSV and table exports both use it.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
