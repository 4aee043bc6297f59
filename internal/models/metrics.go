package models

import (
	"fmt"
	"time"
)

// EngagementType is a countable interaction on a post
type EngagementType string

const (
	EngagementLike    EngagementType = "like"
	EngagementComment EngagementType = "comment"
	EngagementShare   EngagementType = "share"
	EngagementClick   EngagementType = "click"
)

// ParseEngagementType validates a user-supplied engagement type
func ParseEngagementType(s string) (EngagementType, error) {
	t := EngagementType(s)
	switch t {
	case EngagementLike, EngagementComment, EngagementShare, EngagementClick:
		return t, nil
	}
	return "", fmt.Errorf("invalid engagement type %q", s)
}

// PostMetrics holds the running engagement counters of a post
type PostMetrics struct {
	ID             string    `json:"id"`
	PostID         string    `json:"post_id"`
	UserID         string    `json:"user_id"`
	Views          int       `json:"views"`
	Likes          int       `json:"likes"`
	Comments       int       `json:"comments"`
	Shares         int       `json:"shares"`
	Clicks         int       `json:"clicks"`
	EngagementRate float64   `json:"engagement_rate"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Interactions is the sum of all counted engagement actions
func (m *PostMetrics) Interactions() int {
	return m.Likes + m.Comments + m.Shares + m.Clicks
}

// Increment bumps the counter matching t
func (m *PostMetrics) Increment(t EngagementType) {
	switch t {
	case EngagementLike:
		m.Likes++
	case EngagementComment:
		m.Comments++
	case EngagementShare:
		m.Shares++
	case EngagementClick:
		m.Clicks++
	}
}

// EngagementEvent is one observed interaction; rows are never updated
type EngagementEvent struct {
	ID             string         `json:"id"`
	PostID         string         `json:"post_id"`
	UserID         string         `json:"user_id"`
	EngagementType EngagementType `json:"engagement_type"`
	CreatedAt      time.Time      `json:"created_at"`
}

// LearningRecord is a snapshot of a post that scored above the commit threshold
type LearningRecord struct {
	ID                string      `json:"id"`
	PostID            string      `json:"post_id"`
	UserID            string      `json:"user_id"`
	Content           string      `json:"content"`
	Topic             string      `json:"topic"`
	Tone              string      `json:"tone"`
	SuccessScore      float64     `json:"success_score"`
	EngagementMetrics PostMetrics `json:"engagement_metrics"`
	CreatedAt         time.Time   `json:"created_at"`
}
