package store

import (
	"context"
	"sync"
	"time"

	"fitdiary/internal/aggregate"
	"fitdiary/internal/models"
)

// MemoryStore is a process-local RecordStore used by tests and by
// RECORD_BACKEND=memory for local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int]map[string]models.HealthRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int]map[string]models.HealthRecord)}
}

func (s *MemoryStore) Save(ctx context.Context, userID int, r models.HealthRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[userID] == nil {
		s.records[userID] = make(map[string]models.HealthRecord)
	}
	s.records[userID][r.Date] = r
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, userID int, start, end string) ([]models.HealthRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	all := make([]models.HealthRecord, 0, len(s.records[userID]))
	for _, r := range s.records[userID] {
		all = append(all, r)
	}
	s.mu.RUnlock()
	return aggregate.SelectRange(all, start, end), nil
}

// MemoryUserStore is the in-process UserStore counterpart.
type MemoryUserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (s *MemoryUserStore) Create(ctx context.Context, email, passwordHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return models.User{}, ErrEmailTaken
	}
	s.nextID++
	u := models.User{ID: s.nextID, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	s.users[email] = u
	return u, nil
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}
