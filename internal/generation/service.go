// Package generation runs the post-generation pipeline: entitlement check, style
// context, text generation, draft storage, usage charge and metrics initialization.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shubh-37/ghostwriter/internal/agents"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/engagement"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/shubh-37/ghostwriter/internal/metrics"
	"github.com/shubh-37/ghostwriter/internal/models"
	"github.com/shubh-37/ghostwriter/internal/posts"
)

// ErrEmptyIdea rejects requests without an idea to write about
var ErrEmptyIdea = errors.New("please provide a content idea for your post")

// TextGenerator turns a prompt and optional style context into post text
type TextGenerator interface {
	Generate(ctx context.Context, prompt, styleContext string) (string, error)
}

// Quota is the entitlement side of the pipeline
type Quota interface {
	CanGenerate(ctx context.Context, userID string) (bool, error)
	IncrementUsage(ctx context.Context, userID string) (bool, error)
}

// Learning supplies style context and tracks new posts
type Learning interface {
	TopPosts(ctx context.Context, userID string) ([]models.LearningRecord, error)
	Patterns(ctx context.Context, userID string) (engagement.PatternSummary, error)
	InitMetrics(ctx context.Context, postID, userID string) (*models.PostMetrics, error)
}

// Training supplies the user's own sample posts
type Training interface {
	TrainingPosts(ctx context.Context, userID string) ([]string, error)
}

type Service struct {
	quota     Quota
	learning  Learning
	training  Training
	generator TextGenerator
	posts     posts.Store
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// Result is a freshly generated draft
type Result struct {
	Post      *models.Post        `json:"post"`
	Metrics   *models.PostMetrics `json:"metrics"`
	StyleUsed bool                `json:"style_used"`
}

func NewService(quota Quota, learning Learning, training Training, generator TextGenerator, store posts.Store, log *logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		quota:     quota,
		learning:  learning,
		training:  training,
		generator: generator,
		posts:     store,
		log:       log,
		metrics:   m,
	}
}

// Generate writes a new draft for the user. It returns apperrors.ErrQuotaExceeded when
// the user's plan has no generations left. Usage is charged only once the draft is
// stored, and a draft whose charge fails is removed again.
func (s *Service) Generate(ctx context.Context, userID string, req agents.PostRequest) (*Result, error) {
	if userID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	if strings.TrimSpace(req.Idea) == "" {
		return nil, ErrEmptyIdea
	}

	allowed, err := s.quota.CanGenerate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.metrics.QuotaDenied()
		return nil, apperrors.ErrQuotaExceeded
	}

	styleContext := s.styleContext(ctx, userID)

	text, err := s.generator.Generate(ctx, agents.BuildPrompt(req), styleContext)
	if err != nil {
		return nil, fmt.Errorf("failed to generate post: %w", err)
	}

	post := models.NewPost(userID, text, strings.TrimSpace(req.Idea), req.Tone, req.ReferenceCreators)
	if err := s.posts.Create(ctx, post); err != nil {
		s.log.Error("failed to save generated post", "user_id", userID, "error", err)
		return nil, apperrors.Store("failed to save post", err)
	}

	charged, err := s.quota.IncrementUsage(ctx, userID)
	if err != nil || !charged {
		s.discard(ctx, post)
		if err != nil {
			return nil, err
		}
		s.metrics.QuotaDenied()
		return nil, apperrors.ErrQuotaExceeded
	}

	m, err := s.learning.InitMetrics(ctx, post.ID, userID)
	if err != nil {
		return nil, err
	}

	s.metrics.GenerationSucceeded()
	s.log.Info("post generated", "user_id", userID, "post_id", post.ID, "style_context", styleContext != "")

	return &Result{Post: post, Metrics: m, StyleUsed: styleContext != ""}, nil
}

// discard removes a draft that could not be charged for
func (s *Service) discard(ctx context.Context, post *models.Post) {
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		s.log.Error("failed to remove uncharged post", "user_id", post.UserID, "post_id", post.ID, "error", err)
	}
}

// styleContext never fails the pipeline; without it generation proceeds unconditioned
func (s *Service) styleContext(ctx context.Context, userID string) string {
	top, err := s.learning.TopPosts(ctx, userID)
	if err != nil {
		s.log.Warn("failed to load top posts for style context", "user_id", userID, "error", err)
		top = nil
	}

	var training []string
	if s.training != nil {
		training, err = s.training.TrainingPosts(ctx, userID)
		if err != nil {
			s.log.Warn("failed to load training posts for style context", "user_id", userID, "error", err)
			training = nil
		}
	}

	if len(top) == 0 && len(training) == 0 {
		return ""
	}

	var patterns engagement.PatternSummary
	if len(top) > 0 {
		patterns, err = s.learning.Patterns(ctx, userID)
		if err != nil {
			s.log.Warn("failed to analyze post patterns", "user_id", userID, "error", err)
			patterns = engagement.AnalyzePatterns(top)
		}
	}

	return agents.BuildStyleContext(top, training, patterns)
}
