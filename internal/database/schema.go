package database

import (
	"context"
	"fmt"
)

// CreateTables creates all necessary database tables
func (db *DB) CreateTables(ctx context.Context) error {
	db.log.Info("creating database tables")

	postsTable := `
	CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		idea TEXT,
		tone VARCHAR(50),
		reference_creators TEXT[] DEFAULT '{}',
		status VARCHAR(50) NOT NULL DEFAULT 'draft',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		scheduled_for TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
	`

	plansTable := `
	CREATE TABLE IF NOT EXISTS plans (
		user_id VARCHAR(255) PRIMARY KEY,
		plan_name VARCHAR(50),
		posts_limit INTEGER,
		posts_generated INTEGER,
		free_posts_used INTEGER,
		start_date TIMESTAMPTZ,
		end_date TIMESTAMPTZ,
		version BIGINT NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	metricsTable := `
	CREATE TABLE IF NOT EXISTS post_metrics (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		post_id UUID NOT NULL UNIQUE,
		user_id VARCHAR(255) NOT NULL,
		views INTEGER NOT NULL DEFAULT 0,
		likes INTEGER NOT NULL DEFAULT 0,
		comments INTEGER NOT NULL DEFAULT 0,
		shares INTEGER NOT NULL DEFAULT 0,
		clicks INTEGER NOT NULL DEFAULT 0,
		engagement_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_post_metrics_user ON post_metrics(user_id);
	`

	engagementTable := `
	CREATE TABLE IF NOT EXISTS post_engagement (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		post_id UUID NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		engagement_type VARCHAR(20) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_post_engagement_post ON post_engagement(post_id, created_at DESC);
	`

	learningTable := `
	CREATE TABLE IF NOT EXISTS post_learning_data (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		post_id UUID NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		topic TEXT,
		tone VARCHAR(50),
		success_score DOUBLE PRECISION NOT NULL,
		engagement_metrics JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_learning_user_score ON post_learning_data(user_id, success_score DESC);
	`

	settingsTable := `
	CREATE TABLE IF NOT EXISTS user_settings (
		user_id VARCHAR(255) PRIMARY KEY,
		training_posts TEXT[] NOT NULL DEFAULT '{}',
		last_trained_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	tables := []string{postsTable, plansTable, metricsTable, engagementTable, learningTable, settingsTable}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, table); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	db.log.Info("all tables created")
	return nil
}
