package plans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestTracker(t *testing.T) (*Tracker, *MemoryStore, *fakeClock) {
	t.Helper()
	store := NewMemoryStore()
	clock := &fakeClock{now: time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)}
	return NewTracker(store, clock, nil), store, clock
}

func TestGetPlan_CreatesFreePlanOnFirstAccess(t *testing.T) {
	tracker, store, clock := newTestTracker(t)
	ctx := context.Background()

	plan, err := tracker.GetPlan(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.PlanFree, plan.PlanName)
	assert.Equal(t, models.FreeMonthlyPosts, plan.PostsLimit)
	assert.Zero(t, plan.FreePostsUsed)
	assert.Zero(t, plan.PostsGenerated)
	assert.Equal(t, clock.now, plan.StartDate)
	assert.Equal(t, clock.now.AddDate(0, 1, 0), plan.EndDate)

	stored, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, plan.EndDate, stored.EndDate)
}

func TestGetPlan_RequiresUser(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	_, err := tracker.GetPlan(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

// new free user generates six posts, the seventh is refused
func TestIncrementUsage_FreeTierCeiling(t *testing.T) {
	tracker, _, _ := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < models.FreeMonthlyPosts; i++ {
		ok, err := tracker.IncrementUsage(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, ok, "generation %d should be allowed", i+1)
	}

	plan, err := tracker.GetPlan(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 6, plan.FreePostsUsed)

	ok, err := tracker.IncrementUsage(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	plan, err = tracker.GetPlan(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 6, plan.FreePostsUsed)
	assert.Zero(t, plan.PostsGenerated)

	can, err := tracker.CanGenerate(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, can)
}

func TestIncrementUsage_ExactlyOneCounterPerCall(t *testing.T) {
	tracker, store, clock := newTestTracker(t)
	ctx := context.Background()

	store.Put(models.PlanRecord{
		UserID:     "user-1",
		PlanName:   models.PlanPro,
		PostsLimit: models.Unlimited,
		StartDate:  clock.now,
		EndDate:    clock.now.AddDate(0, 1, 0),
	})

	previous := 0
	for i := 0; i < 20; i++ {
		ok, err := tracker.IncrementUsage(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, ok)

		plan, err := tracker.GetPlan(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, previous+1, plan.TotalUsed())
		previous = plan.TotalUsed()
	}

	plan, err := tracker.GetPlan(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 6, plan.FreePostsUsed, "paid users use the free allotment first")
	assert.Equal(t, 14, plan.PostsGenerated)
}

// pro user with the free allotment exhausted draws from the unlimited paid bucket
func TestIncrementUsage_ProUserPastFreeAllotment(t *testing.T) {
	tracker, store, clock := newTestTracker(t)
	ctx := context.Background()

	store.Put(models.PlanRecord{
		UserID:        "user-1",
		PlanName:      models.PlanPro,
		PostsLimit:    models.Unlimited,
		FreePostsUsed: 6,
		StartDate:     clock.now,
		EndDate:       clock.now.AddDate(0, 1, 0),
	})

	can, err := tracker.CanGenerate(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, can)

	ok, err := tracker.IncrementUsage(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	plan, err := tracker.GetPlan(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, plan.PostsGenerated)
	assert.Equal(t, 6, plan.FreePostsUsed)
}

// expired free plan is reset on the next read, keeping the tier
func TestGetPlan_RollsOverExpiredWindow(t *testing.T) {
	tracker, store, clock := newTestTracker(t)
	ctx := context.Background()

	store.Put(models.PlanRecord{
		UserID:        "user-1",
		PlanName:      models.PlanFree,
		PostsLimit:    6,
		FreePostsUsed: 6,
		StartDate:     clock.now.AddDate(0, -1, -1),
		EndDate:       clock.now.AddDate(0, 0, -1),
	})

	plan, err := tracker.GetPlan(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.PlanFree, plan.PlanName)
	assert.Zero(t, plan.FreePostsUsed)
	assert.Zero(t, plan.PostsGenerated)
	assert.Equal(t, clock.now, plan.StartDate)
	assert.Equal(t, clock.now.AddDate(0, 1, 0), plan.EndDate)
}

func TestGetPlan_RolloverIsNotRepeated(t *testing.T) {
	tracker, store, clock := newTestTracker(t)
	ctx := context.Background()

	store.Put(models.PlanRecord{
		UserID:         "user-1",
		PlanName:       models.PlanPro,
		PostsLimit:     models.Unlimited,
		FreePostsUsed:  6,
		PostsGenerated: 40,
		StartDate:      clock.now.AddDate(0, -2, 0),
		EndDate:        clock.now.AddDate(0, -1, 0),
	})

	first, err := tracker.GetPlan(ctx, "user-1")
	require.NoError(t, err)

	clock.now = clock.now.Add(time.Second)

	second, err := tracker.GetPlan(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, first.StartDate, second.StartDate)
	assert.Equal(t, first.EndDate, second.EndDate)
	assert.Equal(t, first.FreePostsUsed, second.FreePostsUsed)
	assert.Equal(t, first.PostsGenerated, second.PostsGenerated)
	assert.Equal(t, models.PlanPro, second.PlanName)
}

func TestGetPlan_ReplacesCorruptRecord(t *testing.T) {
	tracker, store, clock := newTestTracker(t)
	ctx := context.Background()

	store.Put(models.PlanRecord{
		UserID:        "user-1",
		PlanName:      "platinum",
		FreePostsUsed: 3,
		StartDate:     clock.now,
		EndDate:       clock.now.AddDate(0, 1, 0),
	})

	plan, err := tracker.GetPlan(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, plan.PlanName)
	assert.Zero(t, plan.FreePostsUsed)

	stored, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, stored.PlanName)
}

func TestGetPlan_ReplacesUndecodableRecord(t *testing.T) {
	store := &corruptStore{MemoryStore: NewMemoryStore()}
	tracker := NewTracker(store, &fakeClock{now: time.Now()}, nil)

	plan, err := tracker.GetPlan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, plan.PlanName)
	assert.True(t, store.replaced)
}

func TestChangePlan_ToPaidSeedsPaidCounter(t *testing.T) {
	tracker, _, clock := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := tracker.IncrementUsage(ctx, "user-1")
		require.NoError(t, err)
	}

	clock.now = clock.now.Add(48 * time.Hour)
	plan, err := tracker.ChangePlan(ctx, "user-1", models.PlanPro)
	require.NoError(t, err)

	assert.Equal(t, models.PlanPro, plan.PlanName)
	assert.Equal(t, models.Unlimited, plan.PostsLimit)
	assert.Equal(t, 4, plan.FreePostsUsed)
	assert.Equal(t, 4, plan.PostsGenerated)
	assert.Equal(t, clock.now, plan.StartDate)
	assert.Equal(t, clock.now.AddDate(0, 1, 0), plan.EndDate)
}

func TestChangePlan_ToFreeClearsPaidCounter(t *testing.T) {
	tracker, store, clock := newTestTracker(t)
	ctx := context.Background()

	store.Put(models.PlanRecord{
		UserID:         "user-1",
		PlanName:       models.PlanEnterprise,
		PostsLimit:     models.Unlimited,
		FreePostsUsed:  6,
		PostsGenerated: 12,
		StartDate:      clock.now,
		EndDate:        clock.now.AddDate(0, 1, 0),
	})

	plan, err := tracker.ChangePlan(ctx, "user-1", models.PlanFree)
	require.NoError(t, err)

	assert.Equal(t, models.PlanFree, plan.PlanName)
	assert.Equal(t, 6, plan.FreePostsUsed)
	assert.Zero(t, plan.PostsGenerated)

	can, err := tracker.CanGenerate(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, can)
}

func TestChangePlan_RejectsUnknownPlan(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	_, err := tracker.ChangePlan(context.Background(), "user-1", "gold")
	assert.Error(t, err)
}

func TestRemaining(t *testing.T) {
	cases := []struct {
		name          string
		plan          models.PlanRecord
		wantRemaining int
		wantUnlimited bool
	}{
		{"fresh free", models.PlanRecord{PlanName: models.PlanFree, PostsLimit: 6}, 6, false},
		{"exhausted free", models.PlanRecord{PlanName: models.PlanFree, PostsLimit: 6, FreePostsUsed: 6}, 0, false},
		{"pro with free left", models.PlanRecord{PlanName: models.PlanPro, PostsLimit: models.Unlimited, FreePostsUsed: 2}, 4, false},
		{"pro past free", models.PlanRecord{PlanName: models.PlanPro, PostsLimit: models.Unlimited, FreePostsUsed: 6}, 0, true},
		{"bounded paid", models.PlanRecord{PlanName: models.PlanPro, PostsLimit: 10, FreePostsUsed: 5, PostsGenerated: 3}, 8, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			remaining, unlimited := Remaining(&tc.plan)
			assert.Equal(t, tc.wantRemaining, remaining)
			assert.Equal(t, tc.wantUnlimited, unlimited)
		})
	}
}

func TestUsage(t *testing.T) {
	tracker, _, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tracker.IncrementUsage(ctx, "user-1")
	require.NoError(t, err)

	usage, err := tracker.Usage(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, usage.CanGenerate)
	assert.Equal(t, 5, usage.Remaining)
	assert.Equal(t, 1, usage.TotalUsed)
	assert.Equal(t, 6, usage.PostsLimit)

	limit, err := tracker.PostsLimit(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 6, limit)

	total, err := tracker.TotalPostsGenerated(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestIncrementUsage_RetriesLostWrite(t *testing.T) {
	base := NewMemoryStore()
	store := &racingStore{MemoryStore: base, conflicts: 2}
	tracker := NewTracker(store, &fakeClock{now: time.Now()}, nil)
	ctx := context.Background()

	_, err := tracker.GetPlan(ctx, "user-1")
	require.NoError(t, err)

	ok, err := tracker.IncrementUsage(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	plan, err := base.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, plan.FreePostsUsed, "the concurrent write and ours both count")
}

func TestIncrementUsage_SurfacesStoreFailure(t *testing.T) {
	store := &failingStore{err: errors.New("connection refused")}
	tracker := NewTracker(store, nil, nil)

	ok, err := tracker.IncrementUsage(context.Background(), "user-1")
	assert.False(t, ok)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.True(t, apperrors.Retryable(err))
}

// racingStore simulates another writer charging a generation just before each of
// our first few conditional updates
type racingStore struct {
	*MemoryStore
	conflicts int
}

func (s *racingStore) Update(ctx context.Context, rec *models.PlanRecord) error {
	if s.conflicts > 0 {
		s.conflicts--
		current, err := s.MemoryStore.Get(ctx, rec.UserID)
		if err != nil {
			return err
		}
		if s.conflicts == 0 {
			current.FreePostsUsed++
		}
		if err := s.MemoryStore.Update(ctx, current); err != nil {
			return err
		}
	}
	return s.MemoryStore.Update(ctx, rec)
}

type corruptStore struct {
	*MemoryStore
	replaced bool
}

func (s *corruptStore) Get(ctx context.Context, userID string) (*models.PlanRecord, error) {
	if !s.replaced {
		return nil, apperrors.ErrCorruptRecord
	}
	return s.MemoryStore.Get(ctx, userID)
}

func (s *corruptStore) Replace(ctx context.Context, rec *models.PlanRecord) error {
	s.replaced = true
	return s.MemoryStore.Replace(ctx, rec)
}

type failingStore struct {
	err error
}

func (s *failingStore) Get(context.Context, string) (*models.PlanRecord, error) {
	return nil, s.err
}
func (s *failingStore) Create(context.Context, *models.PlanRecord) error  { return s.err }
func (s *failingStore) Update(context.Context, *models.PlanRecord) error  { return s.err }
func (s *failingStore) Replace(context.Context, *models.PlanRecord) error { return s.err }
