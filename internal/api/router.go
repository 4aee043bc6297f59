// Package api exposes the plan, generation, post and learning operations over REST
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shubh-37/ghostwriter/internal/auth"
	"github.com/shubh-37/ghostwriter/internal/engagement"
	"github.com/shubh-37/ghostwriter/internal/generation"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/shubh-37/ghostwriter/internal/metrics"
	"github.com/shubh-37/ghostwriter/internal/plans"
	"github.com/shubh-37/ghostwriter/internal/posts"
	"github.com/shubh-37/ghostwriter/internal/style"
)

type RouterConfig struct {
	Plans      *plans.Tracker
	Engagement *engagement.Aggregator
	Generation *generation.Service
	Posts      *posts.Service
	Style      *style.Service
	Auth       *auth.Provider
	Metrics    *metrics.Metrics
	Log        *logger.Logger

	// Health pings the backing store; nil reports healthy
	Health      func(ctx context.Context) error
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h := &Handler{
		plans:      cfg.Plans,
		engagement: cfg.Engagement,
		generation: cfg.Generation,
		posts:      cfg.Posts,
		style:      cfg.Style,
		log:        cfg.Log,
	}

	router.GET("/health", healthHandler(cfg.Health))
	router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(cfg.Auth.Middleware())
	{
		v1.GET("/plan", h.GetPlan)
		v1.PUT("/plan", h.ChangePlan)

		v1.POST("/posts/generate", h.GeneratePost)
		v1.GET("/posts", h.ListPosts)
		v1.GET("/posts/:id", h.GetPost)
		v1.PATCH("/posts/:id", h.UpdatePost)
		v1.DELETE("/posts/:id", h.DeletePost)
		v1.POST("/posts/:id/publish", h.PublishPost)

		v1.POST("/posts/:id/engagement", h.RecordEngagement)
		v1.POST("/posts/:id/views", h.RecordView)
		v1.GET("/posts/:id/metrics", h.GetMetrics)

		v1.GET("/learning/top", h.TopPosts)
		v1.GET("/learning/patterns", h.Patterns)
		v1.GET("/analytics/summary", h.AnalyticsSummary)

		v1.GET("/style/training", h.TrainingPosts)
		v1.PUT("/style/training", h.TrainStyle)
	}

	return router
}

func healthHandler(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "service": "ghostwriter"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "ghostwriter"})
	}
}
