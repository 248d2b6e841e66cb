package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationPolicy selects how raw entry input becomes a HealthRecord.
type ValidationPolicy string

const (
	// PolicyStrict blocks the save when any numeric field is missing,
	// unparseable or not positive.
	PolicyStrict ValidationPolicy = "strict"
	// PolicyPermissive coerces unparseable numbers to zero and saves anyway.
	PolicyPermissive ValidationPolicy = "permissive"
)

// ParsePolicy maps a config or query value to a policy.
func ParsePolicy(s string) (ValidationPolicy, bool) {
	switch ValidationPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyStrict:
		return PolicyStrict, true
	case PolicyPermissive:
		return PolicyPermissive, true
	}
	return "", false
}

// EntryInput holds the form values exactly as the user typed them.
type EntryInput struct {
	WaterIntake string `json:"water_intake"`
	SleepHours  string `json:"sleep_hours"`
	Steps       string `json:"steps"`
	Mood        string `json:"mood"`
	Weight      string `json:"weight"`
}

// ValidationError names the first field that failed strict validation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Field messages, checked in this order.
const (
	MsgWaterIntake = "Please enter a valid water intake (ml)"
	MsgSleepHours  = "Please enter valid sleep hours"
	MsgSteps       = "Please enter a valid number of steps"
	MsgWeight      = "Please enter a valid weight (kg)"
)

// Parse dispatches to the flow selected by policy.
func (in EntryInput) Parse(policy ValidationPolicy, date string) (HealthRecord, error) {
	if policy == PolicyPermissive {
		return in.ParsePermissive(date), nil
	}
	return in.ParseStrict(date)
}

// ParseStrict validates every numeric field and returns the first failure
// in the order water, sleep, steps, weight. No record is produced on error.
func (in EntryInput) ParseStrict(date string) (HealthRecord, error) {
	water, ok := positiveFloat(in.WaterIntake)
	if !ok {
		return HealthRecord{}, &ValidationError{Field: "water_intake", Message: MsgWaterIntake}
	}
	sleep, ok := positiveFloat(in.SleepHours)
	if !ok {
		return HealthRecord{}, &ValidationError{Field: "sleep_hours", Message: MsgSleepHours}
	}
	steps, err := strconv.Atoi(strings.TrimSpace(in.Steps))
	if err != nil || steps <= 0 {
		return HealthRecord{}, &ValidationError{Field: "steps", Message: MsgSteps}
	}
	weight, ok := positiveFloat(in.Weight)
	if !ok {
		return HealthRecord{}, &ValidationError{Field: "weight", Message: MsgWeight}
	}
	return HealthRecord{
		Date:        date,
		WaterIntake: water,
		SleepHours:  sleep,
		Steps:       steps,
		Mood:        in.mood(),
		Weight:      weight,
	}, nil
}

// ParsePermissive never fails: anything that does not parse, or is
// negative, becomes zero.
func (in EntryInput) ParsePermissive(date string) HealthRecord {
	steps, err := strconv.Atoi(strings.TrimSpace(in.Steps))
	if err != nil || steps < 0 {
		steps = 0
	}
	return HealthRecord{
		Date:        date,
		WaterIntake: floatOrZero(in.WaterIntake),
		SleepHours:  floatOrZero(in.SleepHours),
		Steps:       steps,
		Mood:        in.mood(),
		Weight:      floatOrZero(in.Weight),
	}
}

func (in EntryInput) mood() string {
	if IsMoodGlyph(in.Mood) {
		return in.Mood
	}
	return DefaultMood.Glyph
}

func positiveFloat(s string) (float64, bool) {
	v, ok := parseFinite(s)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// floatOrZero maps unparseable and negative input to zero.
func floatOrZero(s string) float64 {
	v, ok := parseFinite(s)
	if !ok || v < 0 {
		return 0
	}
	return v
}

// parseFinite rejects NaN and infinities, which ParseFloat accepts.
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
