package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps one user_settings row per user.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type settingsRow struct {
	UserID         int    `db:"user_id"`
	ThemeMode      string `db:"theme_mode"`
	ChartMode      string `db:"chart_mode"`
	ChartSpan      string `db:"chart_span"`
	ReminderHour   int    `db:"reminder_hour"`
	ReminderMinute int    `db:"reminder_minute"`
}

func (r settingsRow) settings() Settings {
	return Settings{
		ThemeMode:    ThemeMode(r.ThemeMode),
		ChartMode:    ChartMode(r.ChartMode),
		ChartSpan:    ChartSpan(r.ChartSpan),
		ReminderTime: ReminderTime{Hour: r.ReminderHour, Minute: r.ReminderMinute},
	}.Normalize()
}

const selectSettings = `SELECT user_id, theme_mode, chart_mode, chart_span, reminder_hour, reminder_minute FROM user_settings`

func (s *PostgresStore) Get(ctx context.Context, userID int) (Settings, error) {
	var row settingsRow
	err := s.db.GetContext(ctx, &row, selectSettings+` WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return row.settings(), nil
}

func (s *PostgresStore) Save(ctx context.Context, userID int, st Settings) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO user_settings (user_id, theme_mode, chart_mode, chart_span, reminder_hour, reminder_minute, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			theme_mode = EXCLUDED.theme_mode,
			chart_mode = EXCLUDED.chart_mode,
			chart_span = EXCLUDED.chart_span,
			reminder_hour = EXCLUDED.reminder_hour,
			reminder_minute = EXCLUDED.reminder_minute,
			updated_at = NOW()`,
		userID, string(st.ThemeMode), string(st.ChartMode), string(st.ChartSpan), st.ReminderTime.Hour, st.ReminderTime.Minute)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]UserSettings, error) {
	var rows []settingsRow
	if err := s.db.SelectContext(ctx, &rows, selectSettings+` ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	out := make([]UserSettings, 0, len(rows))
	for _, r := range rows {
		out = append(out, UserSettings{UserID: r.UserID, Settings: r.settings()})
	}
	return out, nil
}

// MemoryStore is the in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[int]Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[int]Settings)}
}

func (s *MemoryStore) Get(ctx context.Context, userID int) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byID[userID]
	if !ok {
		return Defaults(), nil
	}
	return st, nil
}

func (s *MemoryStore) Save(ctx context.Context, userID int, st Settings) error {
	s.mu.Lock()
	s.byID[userID] = st
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]UserSettings, error) {
	s.mu.RLock()
	out := make([]UserSettings, 0, len(s.byID))
	for id, st := range s.byID {
		out = append(out, UserSettings{UserID: id, Settings: st})
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
