package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
)

// SettingsRepository stores one user_settings row per user
type SettingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves the user's settings
func (r *SettingsRepository) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	query := `
		SELECT user_id, training_posts, last_trained_at, updated_at
		FROM user_settings
		WHERE user_id = $1
	`

	s := &models.UserSettings{}
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&s.UserID,
		&s.TrainingPosts,
		&s.LastTrainedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("settings for %s: %w", userID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return s, nil
}

// SaveTrainingPosts replaces the user's training posts, creating the row if needed
func (r *SettingsRepository) SaveTrainingPosts(ctx context.Context, s *models.UserSettings) error {
	query := `
		INSERT INTO user_settings (user_id, training_posts, last_trained_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET training_posts = EXCLUDED.training_posts,
		    last_trained_at = EXCLUDED.last_trained_at,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Pool.Exec(ctx, query, s.UserID, s.TrainingPosts, s.LastTrainedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save training posts: %w", err)
	}

	return nil
}
