package posts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
)

// Store persists post drafts. Lookups of unknown ids return apperrors.ErrNotFound.
type Store interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListByUser(ctx context.Context, userID, status string) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore implements Store in process memory
type MemoryStore struct {
	mu    sync.Mutex
	posts map[string]models.Post
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{posts: make(map[string]models.Post)}
}

func (s *MemoryStore) Create(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	s.posts[post.ID] = *post
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, apperrors.ErrNotFound)
	}
	return &post, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID, status string) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Post
	for _, post := range s.posts {
		if post.UserID != userID || (status != "" && post.Status != status) {
			continue
		}
		p := post
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID]; !ok {
		return fmt.Errorf("post %s: %w", post.ID, apperrors.ErrNotFound)
	}
	s.posts[post.ID] = *post
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("post %s: %w", id, apperrors.ErrNotFound)
	}
	delete(s.posts, id)
	return nil
}
