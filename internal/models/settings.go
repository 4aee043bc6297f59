package models

import "time"

// UserSettings holds per-user preferences for generation
type UserSettings struct {
	UserID        string     `json:"user_id"`
	TrainingPosts []string   `json:"training_posts"`
	LastTrainedAt *time.Time `json:"last_trained_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
