package engagement

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
)

// Store persists metrics rows, the append-only engagement log and learning snapshots.
//
// UpdateMetrics runs mutate inside one read-modify-write on the post's metrics row. When
// the row is missing it is created zeroed, with a zero CreatedAt, if userID is set,
// otherwise apperrors.ErrNotFound is returned.
//
// RecordEvent is UpdateMetrics for event.PostID and event.UserID that also appends event
// to the engagement log. The event is stored only when the metrics write succeeds.
type Store interface {
	InitMetrics(ctx context.Context, m *models.PostMetrics) error
	GetMetrics(ctx context.Context, postID string) (*models.PostMetrics, error)
	UpdateMetrics(ctx context.Context, postID, userID string, mutate func(*models.PostMetrics) error) (*models.PostMetrics, error)
	RecordEvent(ctx context.Context, event *models.EngagementEvent, mutate func(*models.PostMetrics) error) (*models.PostMetrics, error)
	ListMetricsByUser(ctx context.Context, userID string) ([]models.PostMetrics, error)

	AppendLearning(ctx context.Context, rec *models.LearningRecord) error

	// ListLearning returns the user's snapshots scoring at least minScore, best first
	ListLearning(ctx context.Context, userID string, minScore float64) ([]models.LearningRecord, error)
}

// PostLookup resolves the post a learning snapshot is taken of
type PostLookup interface {
	GetByID(ctx context.Context, postID string) (*models.Post, error)
}

// MemoryStore implements Store in process memory
type MemoryStore struct {
	mu       sync.Mutex
	metrics  map[string]models.PostMetrics
	events   []models.EngagementEvent
	learning []models.LearningRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{metrics: make(map[string]models.PostMetrics)}
}

func (s *MemoryStore) InitMetrics(_ context.Context, m *models.PostMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.metrics[m.PostID]; ok {
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	s.metrics[m.PostID] = *m
	return nil
}

func (s *MemoryStore) GetMetrics(_ context.Context, postID string) (*models.PostMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.metrics[postID]
	if !ok {
		return nil, fmt.Errorf("metrics for post %s: %w", postID, apperrors.ErrNotFound)
	}
	return &m, nil
}

func (s *MemoryStore) UpdateMetrics(_ context.Context, postID, userID string, mutate func(*models.PostMetrics) error) (*models.PostMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(postID, userID, mutate)
}

func (s *MemoryStore) RecordEvent(_ context.Context, event *models.EngagementEvent, mutate func(*models.PostMetrics) error) (*models.PostMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.updateLocked(event.PostID, event.UserID, mutate)
	if err != nil {
		return nil, err
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	s.events = append(s.events, *event)
	return m, nil
}

func (s *MemoryStore) updateLocked(postID, userID string, mutate func(*models.PostMetrics) error) (*models.PostMetrics, error) {
	m, ok := s.metrics[postID]
	if !ok {
		if userID == "" {
			return nil, fmt.Errorf("metrics for post %s: %w", postID, apperrors.ErrNotFound)
		}
		m = models.PostMetrics{ID: uuid.New().String(), PostID: postID, UserID: userID}
	}

	if err := mutate(&m); err != nil {
		return nil, err
	}
	s.metrics[postID] = m
	return &m, nil
}

func (s *MemoryStore) ListMetricsByUser(_ context.Context, userID string) ([]models.PostMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.PostMetrics
	for _, m := range s.metrics {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) AppendLearning(_ context.Context, rec *models.LearningRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	s.learning = append(s.learning, *rec)
	return nil
}

func (s *MemoryStore) ListLearning(_ context.Context, userID string, minScore float64) ([]models.LearningRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.LearningRecord
	for _, rec := range s.learning {
		if rec.UserID == userID && rec.SuccessScore >= minScore {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SuccessScore > out[j].SuccessScore })
	return out, nil
}

// Events returns a copy of the engagement log
func (s *MemoryStore) Events() []models.EngagementEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.EngagementEvent(nil), s.events...)
}

// Learning returns a copy of every stored snapshot
func (s *MemoryStore) Learning() []models.LearningRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LearningRecord(nil), s.learning...)
}
