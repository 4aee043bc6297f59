package style

import (
	"context"
	"fmt"
	"sync"

	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
)

// Store persists user settings. Get returns apperrors.ErrNotFound for users who never
// saved any.
type Store interface {
	Get(ctx context.Context, userID string) (*models.UserSettings, error)
	SaveTrainingPosts(ctx context.Context, s *models.UserSettings) error
}

// MemoryStore implements Store in process memory
type MemoryStore struct {
	mu       sync.Mutex
	settings map[string]models.UserSettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{settings: make(map[string]models.UserSettings)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*models.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, ok := s.settings[userID]
	if !ok {
		return nil, fmt.Errorf("settings for %s: %w", userID, apperrors.ErrNotFound)
	}
	settings.TrainingPosts = append([]string(nil), settings.TrainingPosts...)
	return &settings, nil
}

func (s *MemoryStore) SaveTrainingPosts(_ context.Context, settings *models.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *settings
	stored.TrainingPosts = append([]string(nil), settings.TrainingPosts...)
	s.settings[settings.UserID] = stored
	return nil
}
