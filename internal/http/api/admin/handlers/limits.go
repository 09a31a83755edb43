package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shortsforge/ShortsForgeGuard/internal/guard"
	"github.com/shortsforge/ShortsForgeGuard/internal/limits"
)

// LimitsHandler serves operator controls over the guard.
type LimitsHandler struct {
	guard *guard.Guard
}

// NewLimitsHandler constructs a LimitsHandler.
func NewLimitsHandler(g *guard.Guard) *LimitsHandler {
	return &LimitsHandler{guard: g}
}

// Stats returns the aggregate guard statistics.
func (h *LimitsHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.guard.Stats())
}

// ClearIdentity drops an identity's rate-limit state.
func (h *LimitsHandler) ClearIdentity(c *gin.Context) {
	identity := strings.TrimSpace(c.Param("id"))
	if identity == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity"})
		return
	}
	h.guard.ClearIdentity(identity)
	c.JSON(http.StatusOK, gin.H{"cleared": identity})
}

// Unblock removes an identity's abuse block.
func (h *LimitsHandler) Unblock(c *gin.Context) {
	identity := strings.TrimSpace(c.Param("id"))
	if identity == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity"})
		return
	}
	h.guard.Unblock(identity)
	c.JSON(http.StatusOK, gin.H{"unblocked": identity})
}

// updateTierRequest captures runtime limit adjustments for one tier.
type updateTierRequest struct {
	// RateLimits maps category name -> requests per window.
	RateLimits map[string]int `json:"rate_limits"`
	// PerIdentityInFlight is the per-identity concurrency cap; nil keeps current.
	PerIdentityInFlight *int `json:"per_identity_in_flight"`
	// GlobalInFlight is the tier-wide concurrency cap; nil keeps current.
	GlobalInFlight *int `json:"global_in_flight"`
}

// UpdateTier adjusts a tier's rate limits and concurrency caps at runtime.
// An unknown tier name is a client error, never a silent fallback.
func (h *LimitsHandler) UpdateTier(c *gin.Context) {
	tierName := strings.TrimSpace(c.Param("tier"))
	tier, ok := limits.ParseTier(tierName)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tier"})
		return
	}

	var body updateTierRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	for category, limit := range body.RateLimits {
		if errSet := h.guard.SetTierLimit(tier, limits.Category(strings.TrimSpace(category)), limit); errSet != nil {
			if errors.Is(errSet, limits.ErrUnknownTier) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tier"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update limit failed"})
			return
		}
	}

	if body.PerIdentityInFlight != nil || body.GlobalInFlight != nil {
		perIdentity, global := h.guard.TierCaps(tier)
		if body.PerIdentityInFlight != nil {
			perIdentity = *body.PerIdentityInFlight
		}
		if body.GlobalInFlight != nil {
			global = *body.GlobalInFlight
		}
		if errCaps := h.guard.SetTierCaps(tier, perIdentity, global); errCaps != nil {
			if errors.Is(errCaps, limits.ErrUnknownTier) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tier"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update caps failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"tier": tier.String()})
}
