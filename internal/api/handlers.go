package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shubh-37/ghostwriter/internal/agents"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/auth"
	"github.com/shubh-37/ghostwriter/internal/engagement"
	"github.com/shubh-37/ghostwriter/internal/generation"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/shubh-37/ghostwriter/internal/models"
	"github.com/shubh-37/ghostwriter/internal/plans"
	"github.com/shubh-37/ghostwriter/internal/posts"
	"github.com/shubh-37/ghostwriter/internal/style"
)

// Handler serves the authenticated REST routes
type Handler struct {
	plans      *plans.Tracker
	engagement *engagement.Aggregator
	generation *generation.Service
	posts      *posts.Service
	style      *style.Service
	log        *logger.Logger
}

type changePlanRequest struct {
	PlanName string `json:"plan_name" binding:"required"`
}

type generateRequest struct {
	Idea              string   `json:"idea" binding:"required"`
	Tone              string   `json:"tone"`
	ReferenceCreators []string `json:"reference_creators"`
	MaxLength         int      `json:"max_length"`
}

type updatePostRequest struct {
	Content string `json:"content" binding:"required"`
}

type publishRequest struct {
	ScheduledFor *time.Time `json:"scheduled_for"`
}

type trainStyleRequest struct {
	Posts []string `json:"posts"`
}

type engagementRequest struct {
	Type string `json:"type" binding:"required"`
}

// userID resolves the authenticated user or writes a 401
func (h *Handler) userID(c *gin.Context) (string, bool) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		respondError(c, h.log, err)
		return "", false
	}
	return user.ID, true
}

// postID reads the :id path parameter. Malformed ids are reported as not found.
func (h *Handler) postID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, h.log, apperrors.ErrNotFound)
		return "", false
	}
	return id, true
}

// ownedPost resolves both ids and checks the post belongs to the caller
func (h *Handler) ownedPost(c *gin.Context) (string, *models.Post, bool) {
	userID, ok := h.userID(c)
	if !ok {
		return "", nil, false
	}
	postID, ok := h.postID(c)
	if !ok {
		return "", nil, false
	}
	post, err := h.posts.Get(c.Request.Context(), userID, postID)
	if err != nil {
		respondError(c, h.log, err)
		return "", nil, false
	}
	return userID, post, true
}

func (h *Handler) GetPlan(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	usage, err := h.plans.Usage(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, usage)
}

func (h *Handler) ChangePlan(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req changePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, err := models.ParsePlanName(req.PlanName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.plans.ChangePlan(c.Request.Context(), userID, plan); err != nil {
		respondError(c, h.log, err)
		return
	}
	usage, err := h.plans.Usage(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("plan changed", "user_id", userID, "plan", plan)
	c.JSON(http.StatusOK, usage)
}

func (h *Handler) GeneratePost(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.generation.Generate(c.Request.Context(), userID, agents.PostRequest{
		Idea:              req.Idea,
		Tone:              req.Tone,
		ReferenceCreators: req.ReferenceCreators,
		MaxLength:         req.MaxLength,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListPosts(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	status := c.Query("status")
	switch status {
	case "", models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusPublished:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	list, err := h.posts.List(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": list, "count": len(list)})
}

func (h *Handler) GetPost(c *gin.Context) {
	_, post, ok := h.ownedPost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) UpdatePost(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	postID, ok := h.postID(c)
	if !ok {
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.UpdateContent(c.Request.Context(), userID, postID, req.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *Handler) DeletePost(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	postID, ok := h.postID(c)
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), userID, postID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) PublishPost(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	postID, ok := h.postID(c)
	if !ok {
		return
	}

	var req publishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	post, err := h.posts.Publish(c.Request.Context(), userID, postID, req.ScheduledFor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *Handler) RecordEngagement(c *gin.Context) {
	userID, post, ok := h.ownedPost(c)
	if !ok {
		return
	}

	var req engagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	eventType, err := models.ParseEngagementType(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engagement.RecordEvent(c.Request.Context(), post.ID, userID, eventType)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) RecordView(c *gin.Context) {
	_, post, ok := h.ownedPost(c)
	if !ok {
		return
	}

	m, err := h.engagement.RecordView(c.Request.Context(), post.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": m, "success_score": h.engagement.Score(m)})
}

func (h *Handler) GetMetrics(c *gin.Context) {
	_, post, ok := h.ownedPost(c)
	if !ok {
		return
	}

	m, err := h.engagement.GetMetrics(c.Request.Context(), post.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": m, "success_score": h.engagement.Score(m)})
}

// TopPosts lists learning snapshots. min_score and limit override the configured defaults.
func (h *Handler) TopPosts(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var (
		records []models.LearningRecord
		err     error
	)
	minScore, limit := c.Query("min_score"), c.Query("limit")
	if minScore == "" && limit == "" {
		records, err = h.engagement.TopPosts(c.Request.Context(), userID)
	} else {
		opts := h.engagement.Options()
		floor, lim := opts.TopMinScore, opts.TopLimit
		if minScore != "" {
			floor, err = strconv.ParseFloat(minScore, 64)
			if err != nil || floor < 0 || floor > 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be between 0 and 1"})
				return
			}
		}
		if limit != "" {
			lim, err = strconv.Atoi(limit)
			if err != nil || lim < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
		}
		records, err = h.engagement.TopSuccessfulPosts(c.Request.Context(), userID, floor, lim)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if records == nil {
		records = []models.LearningRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"posts": records, "count": len(records)})
}

func (h *Handler) Patterns(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	summary, err := h.engagement.Patterns(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) AnalyticsSummary(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	summary, err := h.engagement.Summary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) TrainStyle(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req trainStyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.style.TrainStyle(c.Request.Context(), userID, req.Posts)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (h *Handler) TrainingPosts(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	training, err := h.style.TrainingPosts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if training == nil {
		training = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"training_posts": training, "count": len(training)})
}
