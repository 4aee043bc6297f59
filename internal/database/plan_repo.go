package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
)

// PlanRepository stores one plan row per user with a version column for conditional writes
type PlanRepository struct {
	db *DB
}

func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Get retrieves the user's plan. Rows with missing columns are reported as corrupt.
func (r *PlanRepository) Get(ctx context.Context, userID string) (*models.PlanRecord, error) {
	query := `
		SELECT user_id, plan_name, posts_limit, posts_generated, free_posts_used,
		       start_date, end_date, version
		FROM plans
		WHERE user_id = $1
	`

	var planName *string
	var postsLimit, generated, freeUsed *int
	var startDate, endDate *time.Time
	rec := &models.PlanRecord{}

	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&rec.UserID,
		&planName,
		&postsLimit,
		&generated,
		&freeUsed,
		&startDate,
		&endDate,
		&rec.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("plan for %s: %w", userID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	if planName == nil || generated == nil || freeUsed == nil || startDate == nil || endDate == nil {
		return nil, fmt.Errorf("plan for %s has null columns: %w", userID, apperrors.ErrCorruptRecord)
	}

	rec.PlanName = models.PlanName(*planName)
	rec.PostsGenerated = *generated
	rec.FreePostsUsed = *freeUsed
	rec.StartDate = *startDate
	rec.EndDate = *endDate
	if postsLimit != nil {
		rec.PostsLimit = *postsLimit
	}

	return rec, nil
}

// Create inserts a plan at version 1. An existing row is reported as a version conflict.
func (r *PlanRepository) Create(ctx context.Context, rec *models.PlanRecord) error {
	query := `
		INSERT INTO plans (user_id, plan_name, posts_limit, posts_generated, free_posts_used,
		                   start_date, end_date, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		ON CONFLICT (user_id) DO NOTHING
	`

	result, err := r.db.Pool.Exec(ctx, query,
		rec.UserID,
		string(rec.PlanName),
		rec.PostsLimit,
		rec.PostsGenerated,
		rec.FreePostsUsed,
		rec.StartDate,
		rec.EndDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("plan for %s already exists: %w", rec.UserID, apperrors.ErrVersionConflict)
	}

	rec.Version = 1
	return nil
}

// Update writes rec only if the stored version still equals rec.Version
func (r *PlanRepository) Update(ctx context.Context, rec *models.PlanRecord) error {
	query := `
		UPDATE plans
		SET plan_name = $3, posts_limit = $4, posts_generated = $5, free_posts_used = $6,
		    start_date = $7, end_date = $8, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND version = $2
	`

	result, err := r.db.Pool.Exec(ctx, query,
		rec.UserID,
		rec.Version,
		string(rec.PlanName),
		rec.PostsLimit,
		rec.PostsGenerated,
		rec.FreePostsUsed,
		rec.StartDate,
		rec.EndDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("plan for %s at version %d: %w", rec.UserID, rec.Version, apperrors.ErrVersionConflict)
	}

	rec.Version++
	return nil
}

// Replace overwrites the plan unconditionally
func (r *PlanRepository) Replace(ctx context.Context, rec *models.PlanRecord) error {
	query := `
		INSERT INTO plans (user_id, plan_name, posts_limit, posts_generated, free_posts_used,
		                   start_date, end_date, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET plan_name = EXCLUDED.plan_name, posts_limit = EXCLUDED.posts_limit,
		    posts_generated = EXCLUDED.posts_generated, free_posts_used = EXCLUDED.free_posts_used,
		    start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date,
		    version = plans.version + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING version
	`

	err := r.db.Pool.QueryRow(ctx, query,
		rec.UserID,
		string(rec.PlanName),
		rec.PostsLimit,
		rec.PostsGenerated,
		rec.FreePostsUsed,
		rec.StartDate,
		rec.EndDate,
	).Scan(&rec.Version)
	if err != nil {
		return fmt.Errorf("failed to replace plan: %w", err)
	}

	return nil
}
