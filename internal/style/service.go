// Package style keeps the sample posts a user trains the writer with. They condition
// generation alongside the user's own best performers, and are the only style input a
// new user has.
package style

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/shubh-37/ghostwriter/internal/models"
)

// ErrNoTrainingPosts rejects a training request without any post text
var ErrNoTrainingPosts = errors.New("no training posts provided")

type Service struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
}

func NewService(store Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, log: log, now: time.Now}
}

// TrainStyle replaces the user's training posts. Blank entries are dropped and a list
// with nothing left returns ErrNoTrainingPosts.
func (s *Service) TrainStyle(ctx context.Context, userID string, posts []string) (*models.UserSettings, error) {
	if userID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	var kept []string
	for _, p := range posts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoTrainingPosts
	}

	now := s.now()
	settings := &models.UserSettings{
		UserID:        userID,
		TrainingPosts: kept,
		LastTrainedAt: &now,
		UpdatedAt:     now,
	}
	if err := s.store.SaveTrainingPosts(ctx, settings); err != nil {
		s.log.Error("failed to save training posts", "user_id", userID, "error", err)
		return nil, apperrors.Store("failed to save training posts", err)
	}

	s.log.Info("style trained", "user_id", userID, "posts", len(kept))
	return settings, nil
}

// TrainingPosts returns the user's saved training posts, empty when they never trained
func (s *Service) TrainingPosts(ctx context.Context, userID string) ([]string, error) {
	settings, err := s.store.Get(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Store("failed to get settings", err)
	}
	return settings.TrainingPosts, nil
}
