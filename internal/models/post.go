package models

import "time"

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
)

// Post represents a generated LinkedIn post owned by a user
type Post struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Content           string     `json:"content"`
	Idea              string     `json:"idea"`
	Tone              string     `json:"tone"`
	ReferenceCreators []string   `json:"reference_creators"`
	Status            string     `json:"status"` // "draft", "scheduled", "published"
	CreatedAt         time.Time  `json:"created_at"`
	ScheduledFor      *time.Time `json:"scheduled_for,omitempty"`
}

// NewPost creates a new post draft
func NewPost(userID, content, idea, tone string, referenceCreators []string) *Post {
	if referenceCreators == nil {
		referenceCreators = []string{}
	}

	return &Post{
		UserID:            userID,
		Content:           content,
		Idea:              idea,
		Tone:              tone,
		ReferenceCreators: referenceCreators,
		Status:            PostStatusDraft,
		CreatedAt:         time.Now(),
	}
}

// User is the identity resolved from a session
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
