package quota

import (
	"context"
	"sort"
	"sync"
	"time"

	"planengine/internal/models"
)

// MemoryStore хранит квоты в памяти с теми же гарантиями атомарности,
// что и SQL хранилище. Все операции выполняются под одним мьютексом.
type MemoryStore struct {
	mu           sync.Mutex
	quotas       map[int64]*memoryQuota
	reservations map[string]memoryReservation
	now          func() time.Time
}

type memoryQuota struct {
	models.GenerationQuota
	epoch int64
}

type memoryReservation struct {
	Reservation
	epoch int64
}

// NewMemoryStore создаёт пустое хранилище
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotas:       make(map[int64]*memoryQuota),
		reservations: make(map[string]memoryReservation),
		now:          time.Now,
	}
}

func (s *MemoryStore) decrement(userID int64) (*memoryQuota, bool) {
	q, ok := s.quotas[userID]
	if !ok || q.Remaining <= 0 {
		return nil, false
	}
	q.Remaining--
	q.UpdatedAt = s.now()
	return q, true
}

// EnsureQuota implements Store
func (s *MemoryStore) EnsureQuota(_ context.Context, userID int64, value int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotas[userID]; ok {
		return false, nil
	}
	s.quotas[userID] = &memoryQuota{
		GenerationQuota: models.GenerationQuota{UserID: userID, Remaining: value, UpdatedAt: s.now()},
	}
	return true, nil
}

// ConsumeOne implements Store
func (s *MemoryStore) ConsumeOne(_ context.Context, userID int64) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.decrement(userID)
	if !ok {
		return 0, false, nil
	}
	return q.Remaining, true, nil
}

// Reserve implements Store
func (s *MemoryStore) Reserve(_ context.Context, userID int64, reservationID string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.decrement(userID)
	if !ok {
		return 0, false, nil
	}
	s.reservations[reservationID] = memoryReservation{
		Reservation: Reservation{
			ID:        reservationID,
			UserID:    userID,
			Remaining: q.Remaining,
			CreatedAt: s.now(),
		},
		epoch: q.epoch,
	}
	return q.Remaining, true, nil
}

// CommitReservation implements Store
func (s *MemoryStore) CommitReservation(_ context.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reservations, reservationID)
	return nil
}

// ReleaseReservation implements Store
func (s *MemoryStore) ReleaseReservation(_ context.Context, reservationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[reservationID]
	if !ok {
		return false, nil
	}
	delete(s.reservations, reservationID)
	if q, ok := s.quotas[res.UserID]; ok && q.epoch == res.epoch {
		q.Remaining++
		q.UpdatedAt = s.now()
	}
	return true, nil
}

// StaleReservations implements Store
func (s *MemoryStore) StaleReservations(_ context.Context, before time.Time) ([]Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stale []Reservation
	for _, r := range s.reservations {
		if r.CreatedAt.Before(before) {
			stale = append(stale, r.Reservation)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	return stale, nil
}

// SetRemaining implements Store
func (s *MemoryStore) SetRemaining(_ context.Context, userID int64, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotas[userID]
	if !ok {
		s.quotas[userID] = &memoryQuota{
			GenerationQuota: models.GenerationQuota{UserID: userID, Remaining: value, UpdatedAt: s.now()},
		}
		return nil
	}
	q.Remaining = value
	q.UpdatedAt = s.now()
	q.epoch++
	return nil
}

// ResetAll implements Store
func (s *MemoryStore) ResetAll(_ context.Context, value int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quotas {
		q.Remaining = value
		q.UpdatedAt = s.now()
		q.epoch++
	}
	return int64(len(s.quotas)), nil
}

// Get implements Store
func (s *MemoryStore) Get(_ context.Context, userID int64) (models.GenerationQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotas[userID]
	if !ok {
		return models.GenerationQuota{}, ErrQuotaNotFound
	}
	return q.GenerationQuota, nil
}
