package settings

import (
	"context"
	"sync"
)

// Change is delivered to watchers after a successful update.
type Change struct {
	UserID   int
	Settings Settings
}

// Service is the single source of truth for settings. Consumers get it
// injected and either Watch every change or Subscribe to one user's.
type Service struct {
	store Store

	// serializes read-merge-write so concurrent patches do not lose keys
	updateMu sync.Mutex

	mu       sync.Mutex
	nextID   int
	subs     map[int]map[int]chan Settings
	watchers []func(Change)
}

func NewService(store Store) *Service {
	return &Service{store: store, subs: make(map[int]map[int]chan Settings)}
}

func (s *Service) Get(ctx context.Context, userID int) (Settings, error) {
	return s.store.Get(ctx, userID)
}

// List returns every user that has saved settings.
func (s *Service) List(ctx context.Context) ([]UserSettings, error) {
	return s.store.List(ctx)
}

// Update merges p into the user's current settings, persists the result and
// notifies subscribers. An invalid patch changes nothing.
func (s *Service) Update(ctx context.Context, userID int, p Patch) (Settings, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	cur, err := s.store.Get(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	next, err := p.Apply(cur)
	if err != nil {
		return Settings{}, err
	}
	if err := s.store.Save(ctx, userID, next); err != nil {
		return Settings{}, err
	}
	s.publish(userID, next)
	return next, nil
}

// Watch registers fn for every change of every user. fn runs synchronously
// on the updating goroutine and must not block.
func (s *Service) Watch(fn func(Change)) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

// Subscribe returns a channel that always holds the latest settings of
// userID after a change. Slow readers skip intermediate values. The cancel
// func closes the channel.
func (s *Service) Subscribe(userID int) (<-chan Settings, func()) {
	ch := make(chan Settings, 1)
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int]chan Settings)
	}
	s.subs[userID][id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[userID], id)
			if len(s.subs[userID]) == 0 {
				delete(s.subs, userID)
			}
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Service) publish(userID int, st Settings) {
	s.mu.Lock()
	watchers := append([]func(Change){}, s.watchers...)
	for _, ch := range s.subs[userID] {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(Change{UserID: userID, Settings: st})
	}
}
