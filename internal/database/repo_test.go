package database

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB connects to TEST_DATABASE_URL and creates the schema, skipping when unset
func testDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := NewDB(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.CreateTables(ctx))
	return db
}

func TestPlanRepository_ConditionalUpdate(t *testing.T) {
	db := testDB(t)
	repo := NewPlanRepository(db)
	ctx := context.Background()

	userID := "test:" + uuid.New().String()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := repo.Get(ctx, userID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	rec := models.NewFreePlan(userID, now)
	require.NoError(t, repo.Create(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	err = repo.Create(ctx, models.NewFreePlan(userID, now))
	assert.ErrorIs(t, err, apperrors.ErrVersionConflict)

	stale := *rec
	rec.FreePostsUsed = 1
	require.NoError(t, repo.Update(ctx, rec))
	assert.Equal(t, int64(2), rec.Version)

	stale.FreePostsUsed = 5
	err = repo.Update(ctx, &stale)
	assert.ErrorIs(t, err, apperrors.ErrVersionConflict)

	stored, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.FreePostsUsed)
	assert.Equal(t, models.PlanFree, stored.PlanName)
	assert.True(t, stored.EndDate.Equal(rec.EndDate))

	fresh := models.NewFreePlan(userID, now)
	require.NoError(t, repo.Replace(ctx, fresh))
	assert.Equal(t, int64(3), fresh.Version)
}

func TestPlanRepository_NullColumnsAreCorrupt(t *testing.T) {
	db := testDB(t)
	repo := NewPlanRepository(db)
	ctx := context.Background()

	userID := "test:" + uuid.New().String()
	_, err := db.Pool.Exec(ctx, `INSERT INTO plans (user_id, plan_name) VALUES ($1, NULL)`, userID)
	require.NoError(t, err)

	_, err = repo.Get(ctx, userID)
	assert.ErrorIs(t, err, apperrors.ErrCorruptRecord)
}

func TestMetricsRepository_ConcurrentIncrements(t *testing.T) {
	db := testDB(t)
	repo := NewMetricsRepository(db)
	ctx := context.Background()

	postID := uuid.New().String()
	now := time.Now()
	require.NoError(t, repo.InitMetrics(ctx, &models.PostMetrics{PostID: postID, UserID: "test:user", CreatedAt: now, UpdatedAt: now}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateMetrics(ctx, postID, "test:user", func(m *models.PostMetrics) error {
				m.Likes++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	m, err := repo.GetMetrics(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, 10, m.Likes)

	_, err = repo.UpdateMetrics(ctx, uuid.New().String(), "", func(*models.PostMetrics) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMetricsRepository_RecordEventRollsBackWithMetrics(t *testing.T) {
	db := testDB(t)
	repo := NewMetricsRepository(db)
	ctx := context.Background()

	postID := uuid.New().String()
	event := &models.EngagementEvent{PostID: postID, UserID: "test:user", EngagementType: models.EngagementShare}

	_, err := repo.RecordEvent(ctx, event, func(*models.PostMetrics) error { return errors.New("rejected") })
	require.Error(t, err)

	var count int
	require.NoError(t, db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM post_engagement WHERE post_id = $1`, postID).Scan(&count))
	assert.Zero(t, count)
	_, err = repo.GetMetrics(ctx, postID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	event.ID = ""
	m, err := repo.RecordEvent(ctx, event, func(m *models.PostMetrics) error {
		m.Shares++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Shares)
	require.NoError(t, db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM post_engagement WHERE post_id = $1`, postID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMetricsRepository_LearningOrder(t *testing.T) {
	db := testDB(t)
	repo := NewMetricsRepository(db)
	ctx := context.Background()

	userID := "test:" + uuid.New().String()
	for _, score := range []float64{0.65, 0.92, 0.71} {
		require.NoError(t, repo.AppendLearning(ctx, &models.LearningRecord{
			PostID:            uuid.New().String(),
			UserID:            userID,
			Content:           "content",
			SuccessScore:      score,
			EngagementMetrics: models.PostMetrics{Likes: 42},
		}))
	}

	records, err := repo.ListLearning(ctx, userID, 0.7)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.InDelta(t, 0.92, records[0].SuccessScore, 1e-9)
	assert.Equal(t, 42, records[0].EngagementMetrics.Likes)
}

func TestPostRepository_CRUD(t *testing.T) {
	db := testDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	userID := "test:" + uuid.New().String()
	post := models.NewPost(userID, "Hello LinkedIn", "hello", "casual", []string{"someone"})
	require.NoError(t, repo.Create(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello LinkedIn", got.Content)
	assert.Equal(t, []string{"someone"}, got.ReferenceCreators)

	got.Status = models.PostStatusPublished
	require.NoError(t, repo.Update(ctx, got))

	drafts, err := repo.ListByUser(ctx, userID, models.PostStatusDraft)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	all, err := repo.ListByUser(ctx, userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, post.ID))
	assert.ErrorIs(t, repo.Delete(ctx, post.ID), apperrors.ErrNotFound)
}

func TestSettingsRepository_SaveTrainingPosts(t *testing.T) {
	db := testDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	userID := "test:" + uuid.New().String()
	_, err := repo.Get(ctx, userID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.SaveTrainingPosts(ctx, &models.UserSettings{
		UserID: userID, TrainingPosts: []string{"first", "second"}, LastTrainedAt: &now, UpdatedAt: now,
	}))
	require.NoError(t, repo.SaveTrainingPosts(ctx, &models.UserSettings{
		UserID: userID, TrainingPosts: []string{"replaced"}, LastTrainedAt: &now, UpdatedAt: now,
	}))

	stored, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"replaced"}, stored.TrainingPosts)
	require.NotNil(t, stored.LastTrainedAt)
	assert.True(t, stored.LastTrainedAt.Equal(now))
}
