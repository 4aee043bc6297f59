// Package posts manages the drafts produced by the generation pipeline.
// Every operation is scoped to the owning user; other users' posts look missing.
package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/shubh-37/ghostwriter/internal/models"
)

// ErrEmptyContent rejects edits that would blank a post
var ErrEmptyContent = errors.New("post content cannot be empty")

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

// Get returns the user's post
func (s *Service) Get(ctx context.Context, userID, postID string) (*models.Post, error) {
	if userID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	post, err := s.store.GetByID(ctx, postID)
	if err != nil {
		return nil, apperrors.Store("failed to get post", err)
	}
	if post.UserID != userID {
		return nil, fmt.Errorf("post %s: %w", postID, apperrors.ErrNotFound)
	}
	return post, nil
}

// List returns the user's posts, newest first, optionally filtered by status
func (s *Service) List(ctx context.Context, userID, status string) ([]*models.Post, error) {
	if userID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	posts, err := s.store.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, apperrors.Store("failed to list posts", err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

// UpdateContent replaces the text of a post
func (s *Service) UpdateContent(ctx context.Context, userID, postID, content string) (*models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	post, err := s.Get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	post.Content = content
	if err := s.store.Update(ctx, post); err != nil {
		return nil, apperrors.Store("failed to update post", err)
	}
	return post, nil
}

// Publish marks a post published, or scheduled when scheduledFor lies in the future
func (s *Service) Publish(ctx context.Context, userID, postID string, scheduledFor *time.Time) (*models.Post, error) {
	post, err := s.Get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	if scheduledFor != nil && scheduledFor.After(s.now()) {
		post.Status = models.PostStatusScheduled
		post.ScheduledFor = scheduledFor
	} else {
		post.Status = models.PostStatusPublished
		post.ScheduledFor = nil
	}

	if err := s.store.Update(ctx, post); err != nil {
		return nil, apperrors.Store("failed to publish post", err)
	}

	s.log.Info("post status changed", "post_id", post.ID, "status", post.Status)
	return post, nil
}

// Delete removes the user's post
func (s *Service) Delete(ctx context.Context, userID, postID string) error {
	if _, err := s.Get(ctx, userID, postID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, postID); err != nil {
		return apperrors.Store("failed to delete post", err)
	}
	return nil
}
