package models

import (
	"fmt"
	"time"
)

// PlanName is a subscription tier
type PlanName string

const (
	PlanFree       PlanName = "free"
	PlanPro        PlanName = "pro"
	PlanEnterprise PlanName = "enterprise"
)

// Unlimited marks a posts limit with no ceiling
const Unlimited = -1

// FreeMonthlyPosts is the free allotment every user gets per billing window
const FreeMonthlyPosts = 6

var planLimits = map[PlanName]int{
	PlanFree:       FreeMonthlyPosts,
	PlanPro:        Unlimited,
	PlanEnterprise: Unlimited,
}

// IsValid reports whether p is a known tier
func (p PlanName) IsValid() bool {
	_, ok := planLimits[p]
	return ok
}

// Limit returns the posts limit for the tier
func (p PlanName) Limit() int {
	if limit, ok := planLimits[p]; ok {
		return limit
	}
	return planLimits[PlanFree]
}

// ParsePlanName validates a user-supplied tier name
func ParsePlanName(s string) (PlanName, error) {
	p := PlanName(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown plan %q", s)
	}
	return p, nil
}

// PlanRecord is the per-user subscription and usage state
type PlanRecord struct {
	UserID         string    `json:"user_id"`
	PlanName       PlanName  `json:"plan_name"`
	PostsLimit     int       `json:"posts_limit"` // Unlimited (-1) for paid tiers
	PostsGenerated int       `json:"posts_generated"`
	FreePostsUsed  int       `json:"free_posts_used"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Version        int64     `json:"-"`
}

// NewFreePlan returns a fresh free-tier record with a window starting at now
func NewFreePlan(userID string, now time.Time) *PlanRecord {
	return &PlanRecord{
		UserID:     userID,
		PlanName:   PlanFree,
		PostsLimit: PlanFree.Limit(),
		StartDate:  now,
		EndDate:    now.AddDate(0, 1, 0),
	}
}

// IsFree reports whether the record is on the free tier
func (p *PlanRecord) IsFree() bool {
	return p.PlanName == PlanFree
}

// HasUnlimitedPosts reports whether the paid bucket has no ceiling
func (p *PlanRecord) HasUnlimitedPosts() bool {
	return p.PostsLimit == Unlimited
}

// TotalUsed is the usage across both buckets
func (p *PlanRecord) TotalUsed() int {
	return p.FreePostsUsed + p.PostsGenerated
}

// Validate checks the shape of a stored record
func (p *PlanRecord) Validate() error {
	if !p.PlanName.IsValid() {
		return fmt.Errorf("invalid plan name %q", p.PlanName)
	}
	if p.FreePostsUsed < 0 || p.PostsGenerated < 0 {
		return fmt.Errorf("negative usage counters")
	}
	if !p.EndDate.After(p.StartDate) {
		return fmt.Errorf("billing window end %s is not after start %s", p.EndDate, p.StartDate)
	}
	return nil
}
