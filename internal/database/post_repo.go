package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
)

const postColumns = `id, user_id, content, COALESCE(idea, ''), COALESCE(tone, ''),
	reference_creators, status, created_at, scheduled_for`

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post into the database
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO posts (id, user_id, content, idea, tone, reference_creators,
		                   status, created_at, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		post.ID,
		post.UserID,
		post.Content,
		post.Idea,
		post.Tone,
		post.ReferenceCreators,
		post.Status,
		post.CreatedAt,
		post.ScheduledFor,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// GetByID retrieves a post by its ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// ListByUser retrieves the user's posts, newest first. An empty status matches all.
func (r *PostRepository) ListByUser(ctx context.Context, userID, status string) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE user_id = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

// Update updates a post
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET content = $2, idea = $3, tone = $4, reference_creators = $5,
		    status = $6, scheduled_for = $7
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		post.ID,
		post.Content,
		post.Idea,
		post.Tone,
		post.ReferenceCreators,
		post.Status,
		post.ScheduledFor,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", post.ID, apperrors.ErrNotFound)
	}

	return nil
}

// Delete deletes a post by ID
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM posts WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func scanPost(row pgx.Row) (*models.Post, error) {
	post := &models.Post{}
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Content,
		&post.Idea,
		&post.Tone,
		&post.ReferenceCreators,
		&post.Status,
		&post.CreatedAt,
		&post.ScheduledFor,
	)
	if err != nil {
		return nil, err
	}
	if post.ReferenceCreators == nil {
		post.ReferenceCreators = []string{}
	}
	return post, nil
}
