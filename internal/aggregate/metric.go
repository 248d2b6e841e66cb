package aggregate

import (
	"fmt"

	"fitdiary/internal/models"
)

// Metric names a numeric field of a record, or mood mapped to its scale.
type Metric string

const (
	MetricWaterIntake Metric = "water_intake"
	MetricSleepHours  Metric = "sleep_hours"
	MetricSteps       Metric = "steps"
	MetricWeight      Metric = "weight"
	MetricMood        Metric = "mood"
)

// Metrics is the dashboard chart order.
var Metrics = []Metric{MetricWaterIntake, MetricWeight, MetricSleepHours, MetricSteps, MetricMood}

// ParseMetric validates a metric name coming from a request.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Value extracts the metric from r.
func (m Metric) Value(r models.HealthRecord) float64 {
	switch m {
	case MetricWaterIntake:
		return r.WaterIntake
	case MetricSleepHours:
		return r.SleepHours
	case MetricSteps:
		return float64(r.Steps)
	case MetricWeight:
		return r.Weight
	case MetricMood:
		return models.MoodFromGlyph(r.Mood).Value
	}
	return 0
}

// Title is the chart heading used by clients.
func (m Metric) Title() string {
	switch m {
	case MetricWaterIntake:
		return "Water Intake (ml)"
	case MetricSleepHours:
		return "Sleep (hours)"
	case MetricSteps:
		return "Steps"
	case MetricWeight:
		return "Weight (kg)"
	case MetricMood:
		return "Mood"
	}
	return string(m)
}
