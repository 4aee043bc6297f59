// Package plans decides whether a user may generate another post and charges each
// generation against the user's subscription tier.
//
// All state lives in the Store. Billing windows roll over lazily: the first access after
// a window ends resets the counters and starts a new window at the time of access.
package plans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/shubh-37/ghostwriter/internal/models"
)

// maxWriteAttempts bounds how often a lost conditional write is re-applied to a fresh read
const maxWriteAttempts = 5

type Tracker struct {
	store Store
	clock Clock
	log   *logger.Logger
}

// Usage summarizes a plan for display
type Usage struct {
	Plan        *models.PlanRecord `json:"plan"`
	CanGenerate bool               `json:"can_generate"`
	Remaining   int                `json:"remaining"`
	Unlimited   bool               `json:"unlimited"`
	TotalUsed   int                `json:"total_used"`
	PostsLimit  int                `json:"posts_limit"`
}

func NewTracker(store Store, clock Clock, log *logger.Logger) *Tracker {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{store: store, clock: clock, log: log}
}

// GetPlan returns the user's current plan, creating a free plan on first access and
// rolling the billing window over when it has ended.
func (t *Tracker) GetPlan(ctx context.Context, userID string) (*models.PlanRecord, error) {
	rec, _, err := t.update(ctx, userID, nil)
	return rec, err
}

// CanGenerate reports whether the user has a generation left in the current window
func (t *Tracker) CanGenerate(ctx context.Context, userID string) (bool, error) {
	rec, err := t.GetPlan(ctx, userID)
	if err != nil {
		return false, err
	}
	return CanGenerate(rec), nil
}

// IncrementUsage charges one generation. It returns false without writing anything when
// the plan has no generations left.
func (t *Tracker) IncrementUsage(ctx context.Context, userID string) (bool, error) {
	_, charged, err := t.update(ctx, userID, func(rec *models.PlanRecord) bool {
		if !CanGenerate(rec) {
			return false
		}
		if rec.FreePostsUsed < models.FreeMonthlyPosts {
			rec.FreePostsUsed++
		} else {
			rec.PostsGenerated++
		}
		return true
	})
	if err != nil {
		return false, err
	}

	if !charged {
		t.log.Debug("generation quota exhausted", "user_id", userID)
	}
	return charged, nil
}

// RemainingPosts returns how many generations are left; unlimited is true when the paid
// bucket has no ceiling and the free allotment is used up.
func (t *Tracker) RemainingPosts(ctx context.Context, userID string) (remaining int, unlimited bool, err error) {
	rec, err := t.GetPlan(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	remaining, unlimited = Remaining(rec)
	return remaining, unlimited, nil
}

// ChangePlan moves the user to a new tier and starts a new billing window.
// Free usage is carried forward; moving to a paid tier also seeds the paid counter with it.
func (t *Tracker) ChangePlan(ctx context.Context, userID string, plan models.PlanName) (*models.PlanRecord, error) {
	if !plan.IsValid() {
		return nil, fmt.Errorf("failed to change plan: unknown plan %q", plan)
	}

	rec, _, err := t.update(ctx, userID, func(rec *models.PlanRecord) bool {
		now := t.clock.Now()
		rec.PlanName = plan
		rec.PostsLimit = plan.Limit()
		if plan != models.PlanFree {
			rec.PostsGenerated = rec.FreePostsUsed
		} else {
			rec.PostsGenerated = 0
		}
		rec.StartDate = now
		rec.EndDate = now.AddDate(0, 1, 0)
		return true
	})
	if err != nil {
		return nil, err
	}

	t.log.Info("plan changed", "user_id", userID, "plan", plan)
	return rec, nil
}

// TotalPostsGenerated is the usage across both counters in the current window
func (t *Tracker) TotalPostsGenerated(ctx context.Context, userID string) (int, error) {
	rec, err := t.GetPlan(ctx, userID)
	if err != nil {
		return 0, err
	}
	return rec.TotalUsed(), nil
}

// PostsLimit is the monthly allotment shown to the user
func (t *Tracker) PostsLimit(ctx context.Context, userID string) (int, error) {
	rec, err := t.GetPlan(ctx, userID)
	if err != nil {
		return 0, err
	}
	return postsLimit(rec), nil
}

// Usage reads the plan once and derives everything a client displays
func (t *Tracker) Usage(ctx context.Context, userID string) (*Usage, error) {
	rec, err := t.GetPlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining, unlimited := Remaining(rec)
	return &Usage{
		Plan:        rec,
		CanGenerate: CanGenerate(rec),
		Remaining:   remaining,
		Unlimited:   unlimited,
		TotalUsed:   rec.TotalUsed(),
		PostsLimit:  postsLimit(rec),
	}, nil
}

// CanGenerate applies the entitlement rule to a record
func CanGenerate(rec *models.PlanRecord) bool {
	if rec.FreePostsUsed < models.FreeMonthlyPosts {
		return true
	}
	if rec.IsFree() {
		return false
	}
	return rec.HasUnlimitedPosts() || rec.PostsGenerated < rec.PostsLimit
}

// Remaining computes the generations left on a record
func Remaining(rec *models.PlanRecord) (int, bool) {
	remainingFree := max(0, models.FreeMonthlyPosts-rec.FreePostsUsed)
	if rec.IsFree() {
		return remainingFree, false
	}

	if rec.HasUnlimitedPosts() {
		if remainingFree > 0 {
			return remainingFree, false
		}
		return 0, true
	}

	return remainingFree + max(0, rec.PostsLimit-rec.PostsGenerated), false
}

func postsLimit(rec *models.PlanRecord) int {
	if rec.IsFree() {
		return models.FreeMonthlyPosts
	}
	return rec.PostsLimit
}

// update loads the plan, applies mutate and writes the result conditionally. When another
// writer wins the race the whole read-apply-write is repeated on a fresh read.
// mutate returns false to leave the record untouched.
func (t *Tracker) update(ctx context.Context, userID string, mutate func(*models.PlanRecord) bool) (*models.PlanRecord, bool, error) {
	if userID == "" {
		return nil, false, apperrors.ErrNotAuthenticated
	}

	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		rec, err := t.load(ctx, userID)
		if errors.Is(err, apperrors.ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, false, err
		}

		if mutate == nil || !mutate(rec) {
			return rec, false, nil
		}

		err = t.store.Update(ctx, rec)
		if errors.Is(err, apperrors.ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, false, apperrors.Store("failed to save plan", err)
		}
		return rec, true, nil
	}

	return nil, false, apperrors.Store("failed to save plan", lastErr)
}

// load returns the current record, creating, repairing or rolling it over first
func (t *Tracker) load(ctx context.Context, userID string) (*models.PlanRecord, error) {
	now := t.clock.Now()

	rec, err := t.store.Get(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		fresh := models.NewFreePlan(userID, now)
		if err := t.store.Create(ctx, fresh); err != nil {
			return nil, apperrors.Store("failed to create plan", err)
		}
		t.log.Debug("created free plan", "user_id", userID)
		return fresh, nil

	case errors.Is(err, apperrors.ErrCorruptRecord):
		return t.reset(ctx, userID, now, err)

	case err != nil:
		return nil, apperrors.Store("failed to load plan", err)
	}

	if verr := rec.Validate(); verr != nil {
		return t.reset(ctx, userID, now, verr)
	}

	rec.PostsLimit = rec.PlanName.Limit()

	if now.After(rec.EndDate) {
		rec.PostsGenerated = 0
		rec.FreePostsUsed = 0
		rec.StartDate = now
		rec.EndDate = now.AddDate(0, 1, 0)
		if err := t.store.Update(ctx, rec); err != nil {
			return nil, apperrors.Store("failed to roll over plan", err)
		}
		t.log.Debug("billing window rolled over", "user_id", userID, "plan", rec.PlanName, "end_date", rec.EndDate)
	}

	return rec, nil
}

// reset replaces an unreadable record with a fresh free plan
func (t *Tracker) reset(ctx context.Context, userID string, now time.Time, cause error) (*models.PlanRecord, error) {
	fresh := models.NewFreePlan(userID, now)
	if err := t.store.Replace(ctx, fresh); err != nil {
		return nil, apperrors.Store("failed to replace corrupt plan", err)
	}
	t.log.Warn("replaced corrupt plan record", "user_id", userID, "error", cause)
	return fresh, nil
}
