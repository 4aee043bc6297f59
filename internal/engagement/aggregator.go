// Package engagement records interactions with generated posts, scores them and keeps
// snapshots of the best performers to condition future generations.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/shubh-37/ghostwriter/internal/metrics"
	"github.com/shubh-37/ghostwriter/internal/models"
)

// Clock is the time source for metric timestamps
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options tunes the learning loop
type Options struct {
	Scoring Scoring

	// LearningThreshold is the score at or above which an event stores a snapshot
	LearningThreshold float64
	TopMinScore       float64
	TopLimit          int
}

// DefaultOptions returns the production thresholds
func DefaultOptions() Options {
	return Options{
		Scoring:           DefaultScoring(),
		LearningThreshold: 0.6,
		TopMinScore:       0.7,
		TopLimit:          3,
	}
}

type Aggregator struct {
	store   Store
	posts   PostLookup
	opts    Options
	clock   Clock
	log     *logger.Logger
	metrics *metrics.Metrics
}

// EventResult is the state of a post after an engagement event
type EventResult struct {
	Metrics      *models.PostMetrics `json:"metrics"`
	SuccessScore float64             `json:"success_score"`
	Learned      bool                `json:"learned"`
}

// Summary aggregates a user's metrics across all posts
type Summary struct {
	Posts             int     `json:"posts"`
	Views             int     `json:"views"`
	Likes             int     `json:"likes"`
	Comments          int     `json:"comments"`
	Shares            int     `json:"shares"`
	Clicks            int     `json:"clicks"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	LearningSnapshots int     `json:"learning_snapshots"`
	BestSuccessScore  float64 `json:"best_success_score"`
}

func NewAggregator(store Store, posts PostLookup, opts Options, clock Clock, log *logger.Logger, m *metrics.Metrics) *Aggregator {
	if clock == nil {
		clock = systemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Aggregator{store: store, posts: posts, opts: opts, clock: clock, log: log, metrics: m}
}

// InitMetrics creates a zeroed metrics row for a freshly generated post. Calling it again
// resets the row.
func (a *Aggregator) InitMetrics(ctx context.Context, postID, userID string) (*models.PostMetrics, error) {
	if userID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	now := a.clock.Now()
	m := &models.PostMetrics{
		PostID:    postID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.InitMetrics(ctx, m); err != nil {
		return nil, apperrors.Store("failed to init metrics", err)
	}
	return m, nil
}

// GetMetrics returns the current counters of a post
func (a *Aggregator) GetMetrics(ctx context.Context, postID string) (*models.PostMetrics, error) {
	m, err := a.store.GetMetrics(ctx, postID)
	if err != nil {
		return nil, apperrors.Store("failed to get metrics", err)
	}
	return m, nil
}

// RecordEvent logs one interaction, bumps the matching counter and stores a learning
// snapshot when the resulting score reaches the threshold. Every qualifying event
// stores its own snapshot.
func (a *Aggregator) RecordEvent(ctx context.Context, postID, userID string, eventType models.EngagementType) (*EventResult, error) {
	if userID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	if _, err := models.ParseEngagementType(string(eventType)); err != nil {
		return nil, err
	}

	now := a.clock.Now()
	event := &models.EngagementEvent{
		ID:             uuid.New().String(),
		PostID:         postID,
		UserID:         userID,
		EngagementType: eventType,
		CreatedAt:      now,
	}
	m, err := a.store.RecordEvent(ctx, event, func(m *models.PostMetrics) error {
		m.Increment(eventType)
		m.EngagementRate = EngagementRate(m)
		stamp(m, now)
		return nil
	})
	if err != nil {
		a.log.Error("failed to record engagement event", "post_id", postID, "type", eventType, "error", err)
		return nil, apperrors.Store("failed to record engagement event", err)
	}
	a.metrics.EngagementRecorded(string(eventType))

	score := a.opts.Scoring.Score(m)
	result := &EventResult{Metrics: m, SuccessScore: score}
	if score < a.opts.LearningThreshold {
		return result, nil
	}

	learned, err := a.snapshot(ctx, m, score, now)
	if err != nil {
		a.log.Error("failed to save learning data", "post_id", postID, "score", score, "error", err)
		return nil, err
	}
	result.Learned = learned
	return result, nil
}

// RecordView bumps the view counter only
func (a *Aggregator) RecordView(ctx context.Context, postID string) (*models.PostMetrics, error) {
	now := a.clock.Now()
	m, err := a.store.UpdateMetrics(ctx, postID, "", func(m *models.PostMetrics) error {
		m.Views++
		m.EngagementRate = EngagementRate(m)
		stamp(m, now)
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			a.log.Error("failed to record view", "post_id", postID, "error", err)
		}
		return nil, apperrors.Store("failed to record view", err)
	}
	a.metrics.EngagementRecorded("view")
	return m, nil
}

// stamp sets the write time, and the creation time of a row created by this write
func stamp(m *models.PostMetrics, now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Options returns the configured scoring and learning parameters
func (a *Aggregator) Options() Options {
	return a.opts
}

// Score rates m with the configured weights
func (a *Aggregator) Score(m *models.PostMetrics) float64 {
	return a.opts.Scoring.Score(m)
}

// TopSuccessfulPosts returns up to limit snapshots scoring at least minScore, best first
func (a *Aggregator) TopSuccessfulPosts(ctx context.Context, userID string, minScore float64, limit int) ([]models.LearningRecord, error) {
	if userID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	records, err := a.store.ListLearning(ctx, userID, minScore)
	if err != nil {
		return nil, apperrors.Store("failed to list learning data", err)
	}
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// TopPosts applies the configured score floor and limit
func (a *Aggregator) TopPosts(ctx context.Context, userID string) ([]models.LearningRecord, error) {
	return a.TopSuccessfulPosts(ctx, userID, a.opts.TopMinScore, a.opts.TopLimit)
}

// Patterns analyzes every snapshot that passed the configured score floor
func (a *Aggregator) Patterns(ctx context.Context, userID string) (PatternSummary, error) {
	records, err := a.TopSuccessfulPosts(ctx, userID, a.opts.TopMinScore, -1)
	if err != nil {
		return PatternSummary{}, err
	}
	return AnalyzePatterns(records), nil
}

// Summary totals the user's engagement across posts
func (a *Aggregator) Summary(ctx context.Context, userID string) (*Summary, error) {
	if userID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}

	rows, err := a.store.ListMetricsByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Store("failed to list metrics", err)
	}
	learning, err := a.store.ListLearning(ctx, userID, 0)
	if err != nil {
		return nil, apperrors.Store("failed to list learning data", err)
	}

	s := &Summary{Posts: len(rows), LearningSnapshots: len(learning)}
	var rateSum float64
	for _, m := range rows {
		s.Views += m.Views
		s.Likes += m.Likes
		s.Comments += m.Comments
		s.Shares += m.Shares
		s.Clicks += m.Clicks
		rateSum += m.EngagementRate
	}
	if len(rows) > 0 {
		s.AvgEngagementRate = rateSum / float64(len(rows))
	}
	if len(learning) > 0 {
		s.BestSuccessScore = learning[0].SuccessScore
	}
	return s, nil
}

// snapshot stores a learning record of the post behind m. Posts that no longer exist
// are skipped.
func (a *Aggregator) snapshot(ctx context.Context, m *models.PostMetrics, score float64, now time.Time) (bool, error) {
	var content, topic, tone string
	if a.posts != nil {
		post, err := a.posts.GetByID(ctx, m.PostID)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			a.log.Warn("skipping learning snapshot for missing post", "post_id", m.PostID)
			return false, nil
		case err != nil:
			return false, apperrors.Store("failed to load post for learning", err)
		}
		content, topic, tone = post.Content, post.Idea, post.Tone
	}

	rec := &models.LearningRecord{
		ID:                uuid.New().String(),
		PostID:            m.PostID,
		UserID:            m.UserID,
		Content:           content,
		Topic:             topic,
		Tone:              tone,
		SuccessScore:      score,
		EngagementMetrics: *m,
		CreatedAt:         now,
	}
	if err := a.store.AppendLearning(ctx, rec); err != nil {
		return false, apperrors.Store("failed to save learning data", fmt.Errorf("post %s: %w", m.PostID, err))
	}

	a.metrics.LearningCommitted()
	a.log.Debug("stored learning snapshot", "post_id", m.PostID, "score", score)
	return true, nil
}
