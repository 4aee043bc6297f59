package plans

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
)

// Store persists one PlanRecord per user.
//
// Update is conditional: it succeeds only when the stored version equals rec.Version,
// bumps the version on success and returns apperrors.ErrVersionConflict otherwise.
// Create returns apperrors.ErrVersionConflict when a record already exists.
// Get returns apperrors.ErrNotFound for unknown users and apperrors.ErrCorruptRecord
// when the stored row cannot be decoded.
type Store interface {
	Get(ctx context.Context, userID string) (*models.PlanRecord, error)
	Create(ctx context.Context, rec *models.PlanRecord) error
	Update(ctx context.Context, rec *models.PlanRecord) error
	Replace(ctx context.Context, rec *models.PlanRecord) error
}

// Clock is the time source for billing windows
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock
var SystemClock Clock = systemClock{}

// MemoryStore implements Store in process memory
type MemoryStore struct {
	mu    sync.Mutex
	plans map[string]models.PlanRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{plans: make(map[string]models.PlanRecord)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*models.PlanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.plans[userID]
	if !ok {
		return nil, fmt.Errorf("plan for %s: %w", userID, apperrors.ErrNotFound)
	}
	return &rec, nil
}

func (s *MemoryStore) Create(_ context.Context, rec *models.PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[rec.UserID]; ok {
		return fmt.Errorf("plan for %s already exists: %w", rec.UserID, apperrors.ErrVersionConflict)
	}
	rec.Version = 1
	s.plans[rec.UserID] = *rec
	return nil
}

func (s *MemoryStore) Update(_ context.Context, rec *models.PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.plans[rec.UserID]
	if !ok {
		return fmt.Errorf("plan for %s: %w", rec.UserID, apperrors.ErrNotFound)
	}
	if current.Version != rec.Version {
		return fmt.Errorf("plan for %s at version %d: %w", rec.UserID, rec.Version, apperrors.ErrVersionConflict)
	}
	rec.Version++
	s.plans[rec.UserID] = *rec
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, rec *models.PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Version = s.plans[rec.UserID].Version + 1
	s.plans[rec.UserID] = *rec
	return nil
}

// Put seeds a record verbatim, including invalid ones
func (s *MemoryStore) Put(rec models.PlanRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Version == 0 {
		rec.Version = 1
	}
	s.plans[rec.UserID] = rec
}
