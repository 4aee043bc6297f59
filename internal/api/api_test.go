package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shubh-37/ghostwriter/internal/agents"
	"github.com/shubh-37/ghostwriter/internal/auth"
	"github.com/shubh-37/ghostwriter/internal/engagement"
	"github.com/shubh-37/ghostwriter/internal/generation"
	"github.com/shubh-37/ghostwriter/internal/metrics"
	"github.com/shubh-37/ghostwriter/internal/models"
	"github.com/shubh-37/ghostwriter/internal/plans"
	"github.com/shubh-37/ghostwriter/internal/posts"
	"github.com/shubh-37/ghostwriter/internal/style"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	auth     *auth.Provider
	posts    *posts.MemoryStore
	learning *engagement.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	provider, err := auth.NewProvider("test-secret", 0)
	require.NoError(t, err)

	postStore := posts.NewMemoryStore()
	metricStore := engagement.NewMemoryStore()
	m := metrics.New(prometheus.NewRegistry())

	tracker := plans.NewTracker(plans.NewMemoryStore(), nil, nil)
	aggregator := engagement.NewAggregator(metricStore, postStore, engagement.DefaultOptions(), nil, nil, m)
	styles := style.NewService(style.NewMemoryStore(), nil)

	router := NewRouter(RouterConfig{
		Plans:       tracker,
		Engagement:  aggregator,
		Generation:  generation.NewService(tracker, aggregator, styles, agents.MockGenerator{}, postStore, nil, m),
		Posts:       posts.NewService(postStore, nil),
		Style:       styles,
		Auth:        provider,
		Metrics:     m,
		CORSOrigins: []string{"http://localhost:3000"},
	})

	return &testServer{router: router, auth: provider, posts: postStore, learning: metricStore}
}

func (s *testServer) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := s.auth.GenerateJWT(userID, userID+"@example.com")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func (s *testServer) generate(t *testing.T, userID string) *generation.Result {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/posts/generate", userID, gin.H{"idea": "remote work", "tone": "casual"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[*generation.Result](t, w)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestHealth_StoreDown(t *testing.T) {
	router := NewRouter(RouterConfig{
		Auth:   mustProvider(t),
		Health: func(context.Context) error { return errors.New("connection refused") },
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func mustProvider(t *testing.T) *auth.Provider {
	t.Helper()
	p, err := auth.NewProvider("secret", 0)
	require.NoError(t, err)
	return p
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/plan", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlan_GetAndChange(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/plan", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	usage := decode[plans.Usage](t, w)
	assert.Equal(t, models.PlanFree, usage.Plan.PlanName)
	assert.Equal(t, models.FreeMonthlyPosts, usage.Remaining)
	assert.True(t, usage.CanGenerate)

	w = s.do(t, http.MethodPut, "/api/v1/plan", "alice", gin.H{"plan_name": "pro"})
	require.Equal(t, http.StatusOK, w.Code)
	usage = decode[plans.Usage](t, w)
	assert.Equal(t, models.PlanPro, usage.Plan.PlanName)
	assert.True(t, usage.Unlimited)

	w = s.do(t, http.MethodPut, "/api/v1/plan", "alice", gin.H{"plan_name": "platinum"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_QuotaReturnsPaymentRequired(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < models.FreeMonthlyPosts; i++ {
		result := s.generate(t, "alice")
		assert.Equal(t, models.PostStatusDraft, result.Post.Status)
	}

	w := s.do(t, http.MethodPost, "/api/v1/posts/generate", "alice", gin.H{"idea": "one more"})
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["upgrade_required"])

	w = s.do(t, http.MethodGet, "/api/v1/plan", "alice", nil)
	usage := decode[plans.Usage](t, w)
	assert.False(t, usage.CanGenerate)
	assert.Zero(t, usage.Remaining)
}

func TestGenerate_Validation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/posts/generate", "alice", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/posts/generate", "alice", gin.H{"idea": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPosts_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	result := s.generate(t, "alice")
	path := "/api/v1/posts/" + result.Post.ID

	w := s.do(t, http.MethodGet, path, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[models.Post](t, w).Content, "remote work")

	w = s.do(t, http.MethodGet, path, "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, path, "alice", gin.H{"content": "Edited"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Edited", decode[models.Post](t, w).Content)

	w = s.do(t, http.MethodPost, path+"/publish", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PostStatusPublished, decode[models.Post](t, w).Status)

	w = s.do(t, http.MethodGet, "/api/v1/posts?status=published", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["count"])

	w = s.do(t, http.MethodGet, "/api/v1/posts?status=archived", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, path, "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, path, "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPosts_MalformedIDIsNotFound(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/posts/not-a-uuid", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/posts/"+uuid.New().String()+"/metrics", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEngagement_LearnsFromSuccessfulPost(t *testing.T) {
	s := newTestServer(t)
	result := s.generate(t, "alice")
	path := "/api/v1/posts/" + result.Post.ID

	w := s.do(t, http.MethodPost, path+"/engagement", "alice", gin.H{"type": "retweet"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, path+"/engagement", "bob", gin.H{"type": "like"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, path+"/views", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var last engagement.EventResult
	for i := 0; i < 100; i++ {
		w = s.do(t, http.MethodPost, path+"/engagement", "alice", gin.H{"type": "like"})
		require.Equal(t, http.StatusOK, w.Code)
		last = decode[engagement.EventResult](t, w)
	}
	for i := 0; i < 100; i++ {
		w = s.do(t, http.MethodPost, path+"/engagement", "alice", gin.H{"type": "comment"})
		require.Equal(t, http.StatusOK, w.Code)
		last = decode[engagement.EventResult](t, w)
	}
	assert.True(t, last.Learned)
	assert.GreaterOrEqual(t, last.SuccessScore, 0.6)

	w = s.do(t, http.MethodGet, path+"/metrics", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Metrics      models.PostMetrics `json:"metrics"`
		SuccessScore float64            `json:"success_score"`
	}](t, w)
	assert.Equal(t, 1, body.Metrics.Views)
	assert.Equal(t, 100, body.Metrics.Likes)
	assert.Equal(t, 100, body.Metrics.Comments)
	assert.InDelta(t, last.SuccessScore, body.SuccessScore, 1e-9)

	w = s.do(t, http.MethodGet, "/api/v1/learning/top?min_score=0.6&limit=1", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["count"])

	w = s.do(t, http.MethodGet, "/api/v1/learning/top?limit=0", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/analytics/summary", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[engagement.Summary](t, w)
	assert.Equal(t, 1, summary.Posts)
	assert.Equal(t, 100, summary.Likes)
	assert.Positive(t, summary.LearningSnapshots)
}

func TestLearning_Patterns(t *testing.T) {
	s := newTestServer(t)

	require.NoError(t, s.learning.AppendLearning(context.Background(), &models.LearningRecord{
		UserID:       "alice",
		Content:      "🔥 Lessons from launch week\n1. ship small\n2. listen\nWhat would you add? #startups",
		SuccessScore: 0.8,
	}))

	w := s.do(t, http.MethodGet, "/api/v1/learning/patterns", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[engagement.PatternSummary](t, w)
	assert.Equal(t, 1, summary.SampleSize)
	assert.InDelta(t, 100.0, summary.StartsWithEmojiPct, 1e-9)
	assert.Equal(t, []string{"🔥"}, summary.CommonEmojis)
	assert.Equal(t, []string{"#startups"}, summary.CommonHashtags)

	w = s.do(t, http.MethodGet, "/api/v1/learning/top", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, w)["count"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.generate(t, "alice")

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ghostwriter_generations_total 1")
}

func TestStyleTraining(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/style/training", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[struct{ Count int }](t, w).Count)

	before := s.generate(t, "alice")
	assert.False(t, before.StyleUsed)

	w = s.do(t, http.MethodPut, "/api/v1/style/training", "alice", gin.H{"posts": []string{"  ", ""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/style/training", "alice", gin.H{"posts": []string{"We doubled revenue by saying no.", "Three lessons from my first hire:"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	settings := decode[models.UserSettings](t, w)
	assert.Len(t, settings.TrainingPosts, 2)
	assert.NotNil(t, settings.LastTrainedAt)

	w = s.do(t, http.MethodGet, "/api/v1/style/training", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "We doubled revenue by saying no.")

	after := s.generate(t, "alice")
	assert.True(t, after.StyleUsed, "training posts condition a user with no successful posts")

	bob := s.generate(t, "bob")
	assert.False(t, bob.StyleUsed)
}
