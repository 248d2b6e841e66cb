package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"fitdiary/internal/models"
)

// PostgresStore keeps health records in the health_entries table.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, userID int, r models.HealthRecord) error {
	localDate, err := time.Parse(models.DateLayout, r.Date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", r.Date, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO health_entries (user_id, local_date, water_intake, sleep_hours, steps, mood, weight, updated_at)
	                      VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	                      ON CONFLICT (user_id, local_date)
	                      DO UPDATE SET
	                        water_intake = EXCLUDED.water_intake,
	                        sleep_hours = EXCLUDED.sleep_hours,
	                        steps = EXCLUDED.steps,
	                        mood = EXCLUDED.mood,
	                        weight = EXCLUDED.weight,
	                        updated_at = NOW()`,
		userID, localDate, r.WaterIntake, r.SleepHours, r.Steps, r.Mood, r.Weight)
	if err != nil {
		return fmt.Errorf("upsert health entry: %w", err)
	}
	return nil
}

type entryRow struct {
	LocalDate   time.Time `db:"local_date"`
	WaterIntake float64   `db:"water_intake"`
	SleepHours  float64   `db:"sleep_hours"`
	Steps       int       `db:"steps"`
	Mood        string    `db:"mood"`
	Weight      float64   `db:"weight"`
}

func (s *PostgresStore) Query(ctx context.Context, userID int, start, end string) ([]models.HealthRecord, error) {
	var rows []entryRow
	err := s.db.SelectContext(ctx, &rows, `SELECT local_date, water_intake, sleep_hours, steps, mood, weight
		FROM health_entries
		WHERE user_id = $1 AND local_date >= $2::date AND local_date <= $3::date
		ORDER BY local_date ASC`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query health entries: %w", err)
	}
	out := make([]models.HealthRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.HealthRecord{
			Date:        r.LocalDate.Format(models.DateLayout),
			WaterIntake: r.WaterIntake,
			SleepHours:  r.SleepHours,
			Steps:       r.Steps,
			Mood:        r.Mood,
			Weight:      r.Weight,
		})
	}
	return out, nil
}

// PostgresUserStore reads and writes the users table.
type PostgresUserStore struct {
	db *sqlx.DB
}

func NewPostgresUserStore(db *sqlx.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, email, passwordHash string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowxContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id, email, password_hash, created_at`,
		email, passwordHash).StructScan(&u)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT id, email, password_hash, created_at FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
