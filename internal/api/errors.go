package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shubh-37/ghostwriter/internal/apperrors"
	"github.com/shubh-37/ghostwriter/internal/generation"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/shubh-37/ghostwriter/internal/posts"
	"github.com/shubh-37/ghostwriter/internal/style"
)

// respondError maps a service error onto a status code and JSON body
func respondError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})

	case errors.Is(err, apperrors.ErrQuotaExceeded):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":            "monthly post limit reached, upgrade your plan to keep generating",
			"upgrade_required": true,
		})

	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})

	case errors.Is(err, generation.ErrEmptyIdea), errors.Is(err, posts.ErrEmptyContent),
		errors.Is(err, style.ErrNoTrainingPosts):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case apperrors.Retryable(err):
		log.Error("store unavailable", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, please retry", "retryable": true})

	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
