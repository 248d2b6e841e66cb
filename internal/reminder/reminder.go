// Package reminder fires a daily "add your health data" notification per
// user at the reminder time stored in their settings.
package reminder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"fitdiary/internal/settings"
)

const (
	Title    = "Health Data Reminder"
	Text     = "Time to add your health data!"
	DeepLink = "app://com.cloudcare.fitdiary/add_entry"
)

// Reminder is the payload handed to a Notifier.
type Reminder struct {
	Kind     string    `json:"kind"`
	Title    string    `json:"title"`
	Text     string    `json:"text"`
	DeepLink string    `json:"deep_link"`
	DueAt    time.Time `json:"due_at"`
}

// Notifier delivers a reminder to a user's clients.
type Notifier interface {
	Notify(userID int, r Reminder)
}

// NextRun is the next occurrence of rt strictly after now: today if the
// time is still ahead, otherwise tomorrow.
func NextRun(now time.Time, rt settings.ReminderTime) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), rt.Hour, rt.Minute, 0, 0, now.Location())
	if now.Before(target) {
		return target
	}
	return target.AddDate(0, 0, 1)
}

// Source is the part of the settings service the scheduler follows.
type Source interface {
	List(ctx context.Context) ([]settings.UserSettings, error)
	Watch(fn func(settings.Change))
}

type entry struct {
	timer *time.Timer
	gen   uint64
	at    settings.ReminderTime
}

// Scheduler keeps one timer per user and re-arms it after every fire.
type Scheduler struct {
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	gen     uint64
	entries map[int]*entry
	stopped bool
}

func NewScheduler(notifier Notifier, logger *zap.Logger, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().In(loc) },
		entries:  make(map[int]*entry),
	}
}

// Schedule replaces any pending reminder of userID with one at rt.
func (s *Scheduler) Schedule(userID int, rt settings.ReminderTime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.scheduleLocked(userID, rt)
}

// Ensure schedules the default reminder for a user that has none yet.
func (s *Scheduler) Ensure(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if _, ok := s.entries[userID]; !ok {
		s.scheduleLocked(userID, settings.Defaults().ReminderTime)
	}
}

func (s *Scheduler) scheduleLocked(userID int, rt settings.ReminderTime) {
	if e, ok := s.entries[userID]; ok {
		e.timer.Stop()
	}
	s.gen++
	gen := s.gen
	now := s.now()
	due := NextRun(now, rt)
	e := &entry{gen: gen, at: rt}
	e.timer = time.AfterFunc(due.Sub(now), func() { s.fire(userID, gen, due) })
	s.entries[userID] = e
	s.logger.Debug("reminder scheduled", zap.Int("user_id", userID), zap.Time("due_at", due))
}

func (s *Scheduler) fire(userID int, gen uint64, due time.Time) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok || e.gen != gen || s.stopped {
		s.mu.Unlock()
		return
	}
	rt := e.at
	s.mu.Unlock()

	s.notifier.Notify(userID, Reminder{
		Kind:     "reminder.due",
		Title:    Title,
		Text:     Text,
		DeepLink: DeepLink,
		DueAt:    due,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	// re-arm unless rescheduled or cancelled while notifying
	if e, ok := s.entries[userID]; ok && e.gen == gen && !s.stopped {
		s.scheduleLocked(userID, rt)
	}
}

// Cancel drops the pending reminder of userID.
func (s *Scheduler) Cancel(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[userID]; ok {
		e.timer.Stop()
		delete(s.entries, userID)
	}
}

// Pending reports the reminder time scheduled for userID.
func (s *Scheduler) Pending(userID int) (settings.ReminderTime, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		return settings.ReminderTime{}, false
	}
	return e.at, true
}

// Stop cancels every timer; later Schedule calls are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
}

// Run schedules every user with saved settings, follows later changes and
// blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context, src Source) error {
	src.Watch(func(c settings.Change) {
		s.Schedule(c.UserID, c.Settings.ReminderTime)
	})
	all, err := src.List(ctx)
	if err != nil {
		return err
	}
	for _, us := range all {
		s.Schedule(us.UserID, us.Settings.ReminderTime)
	}
	s.logger.Info("reminder scheduler started", zap.Int("users", len(all)))

	<-ctx.Done()
	s.Stop()
	s.logger.Info("reminder scheduler stopped")
	return nil
}
