package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
)

const metricsColumns = `id, post_id, user_id, views, likes, comments, shares, clicks,
	engagement_rate, created_at, updated_at`

// MetricsRepository stores post metrics, the engagement log and learning snapshots
type MetricsRepository struct {
	db *DB
}

func NewMetricsRepository(db *DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// InitMetrics inserts a zeroed metrics row, resetting the counters of an existing one
func (r *MetricsRepository) InitMetrics(ctx context.Context, m *models.PostMetrics) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	query := `
		INSERT INTO post_metrics (id, post_id, user_id, views, likes, comments, shares, clicks,
		                          engagement_rate, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, 0, 0, 0, $4, $5)
		ON CONFLICT (post_id) DO UPDATE
		SET views = 0, likes = 0, comments = 0, shares = 0, clicks = 0,
		    engagement_rate = 0, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, m.ID, m.PostID, m.UserID, m.CreatedAt, m.UpdatedAt).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}

	return nil
}

// GetMetrics retrieves the metrics row of a post
func (r *MetricsRepository) GetMetrics(ctx context.Context, postID string) (*models.PostMetrics, error) {
	query := `SELECT ` + metricsColumns + ` FROM post_metrics WHERE post_id = $1`

	m, err := scanMetrics(r.db.Pool.QueryRow(ctx, query, postID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("metrics for post %s: %w", postID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}

	return m, nil
}

// UpdateMetrics locks the metrics row, applies mutate and writes it back in one
// transaction. A missing row is created first when userID is set.
func (r *MetricsRepository) UpdateMetrics(ctx context.Context, postID, userID string, mutate func(*models.PostMetrics) error) (*models.PostMetrics, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	m, err := updateMetricsTx(ctx, tx, postID, userID, mutate)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return m, nil
}

// RecordEvent inserts the engagement event in the same transaction as the metrics
// update, so the log never holds an event the counters did not see.
func (r *MetricsRepository) RecordEvent(ctx context.Context, event *models.EngagementEvent, mutate func(*models.PostMetrics) error) (*models.PostMetrics, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	m, err := updateMetricsTx(ctx, tx, event.PostID, event.UserID, mutate)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO post_engagement (id, post_id, user_id, engagement_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.ID, event.PostID, event.UserID, string(event.EngagementType), event.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert engagement event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return m, nil
}

// ListMetricsByUser retrieves every metrics row owned by the user, oldest first
func (r *MetricsRepository) ListMetricsByUser(ctx context.Context, userID string) ([]models.PostMetrics, error) {
	query := `SELECT ` + metricsColumns + ` FROM post_metrics WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var out []models.PostMetrics
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metrics: %w", err)
		}
		out = append(out, *m)
	}

	return out, rows.Err()
}

// AppendLearning inserts a learning snapshot
func (r *MetricsRepository) AppendLearning(ctx context.Context, rec *models.LearningRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	metricsJSON, err := json.Marshal(rec.EngagementMetrics)
	if err != nil {
		return fmt.Errorf("failed to marshal engagement metrics: %w", err)
	}

	query := `
		INSERT INTO post_learning_data (id, post_id, user_id, content, topic, tone,
		                                success_score, engagement_metrics, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		rec.ID,
		rec.PostID,
		rec.UserID,
		rec.Content,
		rec.Topic,
		rec.Tone,
		rec.SuccessScore,
		metricsJSON,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert learning data: %w", err)
	}

	return nil
}

// ListLearning retrieves the user's snapshots scoring at least minScore, best first
func (r *MetricsRepository) ListLearning(ctx context.Context, userID string, minScore float64) ([]models.LearningRecord, error) {
	query := `
		SELECT id, post_id, user_id, content, COALESCE(topic, ''), COALESCE(tone, ''),
		       success_score, engagement_metrics, created_at
		FROM post_learning_data
		WHERE user_id = $1 AND success_score >= $2
		ORDER BY success_score DESC, created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, minScore)
	if err != nil {
		return nil, fmt.Errorf("failed to query learning data: %w", err)
	}
	defer rows.Close()

	var out []models.LearningRecord
	for rows.Next() {
		var rec models.LearningRecord
		var metricsJSON []byte

		err := rows.Scan(
			&rec.ID,
			&rec.PostID,
			&rec.UserID,
			&rec.Content,
			&rec.Topic,
			&rec.Tone,
			&rec.SuccessScore,
			&metricsJSON,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan learning data: %w", err)
		}

		if err := json.Unmarshal(metricsJSON, &rec.EngagementMetrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal engagement metrics: %w", err)
		}

		out = append(out, rec)
	}

	return out, rows.Err()
}

func updateMetricsTx(ctx context.Context, tx pgx.Tx, postID, userID string, mutate func(*models.PostMetrics) error) (*models.PostMetrics, error) {
	m, err := getMetricsForUpdate(ctx, tx, postID)
	if errors.Is(err, pgx.ErrNoRows) {
		if userID == "" {
			return nil, fmt.Errorf("metrics for post %s: %w", postID, apperrors.ErrNotFound)
		}
		if err := insertZeroMetrics(ctx, tx, postID, userID); err != nil {
			return nil, err
		}
		m, err = getMetricsForUpdate(ctx, tx, postID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock metrics: %w", err)
	}

	if err := mutate(m); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE post_metrics
		SET views = $2, likes = $3, comments = $4, shares = $5, clicks = $6,
		    engagement_rate = $7, updated_at = $8
		WHERE post_id = $1
	`, postID, m.Views, m.Likes, m.Comments, m.Shares, m.Clicks, m.EngagementRate, m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update metrics: %w", err)
	}

	return m, nil
}

func getMetricsForUpdate(ctx context.Context, tx pgx.Tx, postID string) (*models.PostMetrics, error) {
	query := `SELECT ` + metricsColumns + ` FROM post_metrics WHERE post_id = $1 FOR UPDATE`
	return scanMetrics(tx.QueryRow(ctx, query, postID))
}

func insertZeroMetrics(ctx context.Context, tx pgx.Tx, postID, userID string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO post_metrics (id, post_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id) DO NOTHING
	`, uuid.New().String(), postID, userID)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	return nil
}

func scanMetrics(row pgx.Row) (*models.PostMetrics, error) {
	m := &models.PostMetrics{}
	err := row.Scan(
		&m.ID,
		&m.PostID,
		&m.UserID,
		&m.Views,
		&m.Likes,
		&m.Comments,
		&m.Shares,
		&m.Clicks,
		&m.EngagementRate,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
