package models

import "time"

// DateLayout is the ISO calendar date used as the natural key of a record.
const DateLayout = "2006-01-02"

type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// HealthRecord is one day's entry for a user. Date doubles as the unique
// key per user, so saving the same date again overwrites the record.
type HealthRecord struct {
	Date        string  `db:"local_date" bson:"date" json:"date"`
	WaterIntake float64 `db:"water_intake" bson:"water_intake" json:"water_intake"` // ml
	SleepHours  float64 `db:"sleep_hours" bson:"sleep_hours" json:"sleep_hours"`
	Steps       int     `db:"steps" bson:"steps" json:"steps"`
	Mood        string  `db:"mood" bson:"mood" json:"mood"` // glyph
	Weight      float64 `db:"weight" bson:"weight" json:"weight"` // kg
}

// Today returns the calendar date of t in its own location.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}
