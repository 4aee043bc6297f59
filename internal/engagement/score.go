package engagement

import (
	"math"

	"github.com/shubh-37/ghostwriter/internal/models"
)

// Scoring holds the weights and saturation caps of the success score.
// Each channel contributes weight*min(value/cap, 1).
type Scoring struct {
	RateWeight     float64
	LikesWeight    float64
	CommentsWeight float64
	SharesWeight   float64
	ClicksWeight   float64

	RateCap     float64
	LikesCap    float64
	CommentsCap float64
	SharesCap   float64
	ClicksCap   float64
}

// DefaultScoring returns the production weights
func DefaultScoring() Scoring {
	return Scoring{
		RateWeight:     0.4,
		LikesWeight:    0.2,
		CommentsWeight: 0.2,
		SharesWeight:   0.15,
		ClicksWeight:   0.05,

		RateCap:     100,
		LikesCap:    100,
		CommentsCap: 50,
		SharesCap:   20,
		ClicksCap:   50,
	}
}

// EngagementRate is interactions per view as a percentage. Posts without views are
// measured against a single view.
func EngagementRate(m *models.PostMetrics) float64 {
	views := max(m.Views, 1)
	return 100 * float64(m.Interactions()) / float64(views)
}

// Score computes the success score of m in [0,1]. The stored EngagementRate is ignored
// and recomputed from the counters.
func (s Scoring) Score(m *models.PostMetrics) float64 {
	score := s.RateWeight*saturate(EngagementRate(m), s.RateCap) +
		s.LikesWeight*saturate(float64(m.Likes), s.LikesCap) +
		s.CommentsWeight*saturate(float64(m.Comments), s.CommentsCap) +
		s.SharesWeight*saturate(float64(m.Shares), s.SharesCap) +
		s.ClicksWeight*saturate(float64(m.Clicks), s.ClicksCap)

	return math.Max(0, math.Min(score, 1))
}

// SuccessScore scores m with the default weights
func SuccessScore(m *models.PostMetrics) float64 {
	return DefaultScoring().Score(m)
}

func saturate(value, limit float64) float64 {
	if limit <= 0 || value <= 0 {
		return 0
	}
	return math.Min(value/limit, 1)
}
