package reports

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps reports in memory and is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Report
	now  func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]Report),
		now:  time.Now,
	}
}

// Save stores the report.
func (s *MemoryStore) Save(ctx context.Context, report Report) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	report = prepare(report, s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[report.ID] = report
	return report, nil
}

// Get returns a live report by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	key, err := ValidateID(id)
	if err != nil {
		return Report{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.byID[key]
	if !ok || report.Expired(s.now()) {
		return Report{}, ErrNotFound
	}
	return report, nil
}

// DeleteExpired removes reports past their retention window.
func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, report := range s.byID {
		if report.Expired(now) {
			delete(s.byID, id)
			removed++
		}
	}
	return removed, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
