package engagement

import (
	"testing"

	"github.com/shubh-37/ghostwriter/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestEngagementRate(t *testing.T) {
	m := &models.PostMetrics{Views: 100, Likes: 20, Comments: 10, Shares: 5, Clicks: 5}
	assert.InDelta(t, 40.0, EngagementRate(m), 1e-9)

	noViews := &models.PostMetrics{Likes: 3}
	assert.InDelta(t, 300.0, EngagementRate(noViews), 1e-9)

	assert.Zero(t, EngagementRate(&models.PostMetrics{}))
}

func TestSuccessScore_WorkedExample(t *testing.T) {
	m := &models.PostMetrics{Views: 100, Likes: 20, Comments: 10, Shares: 5, Clicks: 5}

	assert.InDelta(t, 0.2825, SuccessScore(m), 1e-9)
}

func TestSuccessScore_Bounds(t *testing.T) {
	cases := []struct {
		name string
		m    models.PostMetrics
	}{
		{"empty", models.PostMetrics{}},
		{"no views", models.PostMetrics{Likes: 5, Comments: 2}},
		{"saturated", models.PostMetrics{Views: 1, Likes: 1000, Comments: 1000, Shares: 1000, Clicks: 1000}},
		{"views only", models.PostMetrics{Views: 10000}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score := SuccessScore(&tc.m)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}

	saturated := models.PostMetrics{Views: 1, Likes: 1000, Comments: 1000, Shares: 1000, Clicks: 1000}
	assert.InDelta(t, 1.0, SuccessScore(&saturated), 1e-9)
}

func TestSuccessScore_MonotonicInEachChannel(t *testing.T) {
	bumps := map[string]func(m *models.PostMetrics){
		"likes":    func(m *models.PostMetrics) { m.Likes++ },
		"comments": func(m *models.PostMetrics) { m.Comments++ },
		"shares":   func(m *models.PostMetrics) { m.Shares++ },
		"clicks":   func(m *models.PostMetrics) { m.Clicks++ },
	}

	for _, views := range []int{0, 50, 1000} {
		for name, bump := range bumps {
			m := &models.PostMetrics{Views: views}
			previous := SuccessScore(m)
			for i := 0; i < 300; i++ {
				bump(m)
				score := SuccessScore(m)
				assert.GreaterOrEqual(t, score, previous, "%s at views=%d step %d", name, views, i)
				previous = score
			}
		}
	}
}

func TestScoring_CustomWeights(t *testing.T) {
	s := Scoring{LikesWeight: 1, LikesCap: 10}

	assert.InDelta(t, 0.5, s.Score(&models.PostMetrics{Likes: 5}), 1e-9)
	assert.InDelta(t, 1.0, s.Score(&models.PostMetrics{Likes: 50}), 1e-9)
}
