package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shortsforge/ShortsForgeGuard/internal/http/middleware"
	"github.com/shortsforge/ShortsForgeGuard/internal/jobs"
)

// JobFrontHandler accepts conversion job submissions.
type JobFrontHandler struct {
	dispatcher *jobs.Dispatcher
	keyFn      middleware.KeyFunc
}

// NewJobFrontHandler constructs a JobFrontHandler.
func NewJobFrontHandler(dispatcher *jobs.Dispatcher, keyFn middleware.KeyFunc) *JobFrontHandler {
	if keyFn == nil {
		keyFn = middleware.DefaultKeyFunc(false)
	}
	return &JobFrontHandler{dispatcher: dispatcher, keyFn: keyFn}
}

// submitJobRequest captures the payload for submitting a conversion job.
type submitJobRequest struct {
	SourceURL string `json:"source_url"` // Video URL to convert.
	ChatID    string `json:"chat_id"`    // Delivery channel for results.
}

// Submit pushes one conversion job through the guard. An admitted job runs in
// the background; a denied one returns the retry timing immediately.
func (h *JobFrontHandler) Submit(c *gin.Context) {
	var body submitJobRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	sourceURL := strings.TrimSpace(body.SourceURL)
	if sourceURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_url is required"})
		return
	}

	job := jobs.Job{
		ID:        uuid.NewString(),
		Identity:  h.keyFn(c),
		SourceURL: sourceURL,
		ChatID:    strings.TrimSpace(body.ChatID),
	}

	decision := h.dispatcher.Submit(c.Request.Context(), job)
	if !decision.Allowed() {
		middleware.Reject(c, decision)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":      job.ID,
		"remaining":   decision.Remaining,
		"limit":       decision.Limit,
		"accepted_at": time.Now().UTC().Format(time.RFC3339),
	})
}
