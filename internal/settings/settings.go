// Package settings holds per-user display and reminder preferences and
// notifies interested parties when they change.
package settings

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type ThemeMode string

const (
	ThemeLight         ThemeMode = "LIGHT"
	ThemeDark          ThemeMode = "DARK"
	ThemeSystemDefault ThemeMode = "SYSTEM_DEFAULT"
)

type ChartMode string

const (
	ChartHorizontal ChartMode = "HORIZONTAL"
	ChartVertical   ChartMode = "VERTICAL"
)

type ChartSpan string

const (
	SpanWeek  ChartSpan = "WEEK"
	SpanMonth ChartSpan = "MONTH"
)

// ParseChartSpan accepts WEEK or MONTH in any case.
func ParseChartSpan(s string) (ChartSpan, bool) {
	switch v := ChartSpan(strings.ToUpper(strings.TrimSpace(s))); v {
	case SpanWeek, SpanMonth:
		return v, true
	}
	return "", false
}

// Days is the length of the dashboard window for the span.
func (s ChartSpan) Days() int {
	if s == SpanWeek {
		return 7
	}
	return 30
}

// ReminderTime is a wall-clock time of day.
type ReminderTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t ReminderTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseReminderTime accepts "HH:MM" in 24h form.
func ParseReminderTime(s string) (ReminderTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return ReminderTime{}, fmt.Errorf("reminder time %q: expected HH:MM", s)
	}
	return ReminderTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

type Settings struct {
	ThemeMode    ThemeMode    `json:"theme_mode"`
	ChartMode    ChartMode    `json:"chart_mode"`
	ChartSpan    ChartSpan    `json:"chart_span"`
	ReminderTime ReminderTime `json:"reminder_time"`
}

// Defaults apply to users who never saved settings.
func Defaults() Settings {
	return Settings{
		ThemeMode:    ThemeSystemDefault,
		ChartMode:    ChartHorizontal,
		ChartSpan:    SpanMonth,
		ReminderTime: ReminderTime{Hour: 20, Minute: 0},
	}
}

// Normalize replaces unknown persisted values with their defaults.
func (s Settings) Normalize() Settings {
	d := Defaults()
	switch s.ThemeMode {
	case ThemeLight, ThemeDark, ThemeSystemDefault:
	default:
		s.ThemeMode = d.ThemeMode
	}
	switch s.ChartMode {
	case ChartHorizontal, ChartVertical:
	default:
		s.ChartMode = d.ChartMode
	}
	switch s.ChartSpan {
	case SpanWeek, SpanMonth:
	default:
		s.ChartSpan = d.ChartSpan
	}
	if s.ReminderTime.Hour < 0 || s.ReminderTime.Hour > 23 || s.ReminderTime.Minute < 0 || s.ReminderTime.Minute > 59 {
		s.ReminderTime = d.ReminderTime
	}
	return s
}

// Patch carries only the keys a client wants to change.
type Patch struct {
	ThemeMode    *string `json:"theme_mode"`
	ChartMode    *string `json:"chart_mode"`
	ChartSpan    *string `json:"chart_span"`
	ReminderTime *string `json:"reminder_time"` // HH:MM
}

// InvalidError reports a patch value outside its enumeration.
type InvalidError struct {
	Key   string
	Value string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Key, e.Value)
}

// Apply merges p into s. Nothing is changed if any key is invalid.
func (p Patch) Apply(s Settings) (Settings, error) {
	out := s
	if p.ThemeMode != nil {
		v := ThemeMode(strings.ToUpper(*p.ThemeMode))
		switch v {
		case ThemeLight, ThemeDark, ThemeSystemDefault:
			out.ThemeMode = v
		default:
			return s, &InvalidError{Key: "theme_mode", Value: *p.ThemeMode}
		}
	}
	if p.ChartMode != nil {
		v := ChartMode(strings.ToUpper(*p.ChartMode))
		switch v {
		case ChartHorizontal, ChartVertical:
			out.ChartMode = v
		default:
			return s, &InvalidError{Key: "chart_mode", Value: *p.ChartMode}
		}
	}
	if p.ChartSpan != nil {
		v, ok := ParseChartSpan(*p.ChartSpan)
		if !ok {
			return s, &InvalidError{Key: "chart_span", Value: *p.ChartSpan}
		}
		out.ChartSpan = v
	}
	if p.ReminderTime != nil {
		rt, err := ParseReminderTime(*p.ReminderTime)
		if err != nil {
			return s, &InvalidError{Key: "reminder_time", Value: *p.ReminderTime}
		}
		out.ReminderTime = rt
	}
	return out, nil
}

// UserSettings pairs a user with their saved settings.
type UserSettings struct {
	UserID   int
	Settings Settings
}

// Store persists settings. Get returns Defaults for users with nothing saved.
type Store interface {
	Get(ctx context.Context, userID int) (Settings, error)
	Save(ctx context.Context, userID int, s Settings) error
	List(ctx context.Context) ([]UserSettings, error)
}
