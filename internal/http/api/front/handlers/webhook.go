package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shortsforge/ShortsForgeGuard/internal/guard"

	log "github.com/sirupsen/logrus"
)

// WebhookFrontHandler receives completion callbacks from external converters.
type WebhookFrontHandler struct {
	guard *guard.Guard
}

// NewWebhookFrontHandler constructs a WebhookFrontHandler.
func NewWebhookFrontHandler(g *guard.Guard) *WebhookFrontHandler {
	return &WebhookFrontHandler{guard: g}
}

// webhookRequest captures a converter completion callback.
type webhookRequest struct {
	JobID  string `json:"job_id"`  // Job the callback refers to.
	Status string `json:"status"`  // Converter-reported status.
	Detail string `json:"detail"`  // Optional human-readable detail.
}

// Complete releases the concurrency slot for an externally executed job.
// Release is idempotent, so a callback racing the dispatcher is harmless.
func (h *WebhookFrontHandler) Complete(c *gin.Context) {
	source := strings.TrimSpace(c.Param("source"))

	var body webhookRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	jobID := strings.TrimSpace(body.JobID)
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required"})
		return
	}

	h.guard.ReleaseJob(jobID)
	log.WithField("source", source).
		WithField("job_id", jobID).
		WithField("status", body.Status).
		Info("converter callback processed")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
