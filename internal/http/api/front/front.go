package front

import (
	"github.com/gin-gonic/gin"
	"github.com/shortsforge/ShortsForgeGuard/internal/guard"
	handlers "github.com/shortsforge/ShortsForgeGuard/internal/http/api/front/handlers"
	"github.com/shortsforge/ShortsForgeGuard/internal/http/middleware"
	"github.com/shortsforge/ShortsForgeGuard/internal/identity"
	"github.com/shortsforge/ShortsForgeGuard/internal/jobs"
	"github.com/shortsforge/ShortsForgeGuard/internal/limits"
	"gorm.io/gorm"
)

// Options carries the collaborators for front routes.
type Options struct {
	DB         *gorm.DB
	Guard      *guard.Guard
	Resolver   identity.Resolver
	Dispatcher *jobs.Dispatcher
	TrustXFF   bool
}

// RegisterFrontRoutes registers public routes behind the guard middleware.
// Job submission is not wrapped: the dispatcher runs the full admission
// pipeline itself so one submit consumes exactly one rate event.
func RegisterFrontRoutes(r *gin.Engine, opts Options) {
	if r == nil {
		return
	}

	keyFn := middleware.DefaultKeyFunc(opts.TrustXFF)

	guarded := middleware.Guard(middleware.Options{
		Guard:    opts.Guard,
		Resolver: opts.Resolver,
		CategoryFn: func(c *gin.Context) limits.Category {
			return middleware.CategoryFromPath(c.Request.URL.Path)
		},
		KeyFn: keyFn,
	})

	group := r.Group("/v0")

	group.GET("/plans", guarded, handlers.NewPlanFrontHandler(opts.DB).List)
	group.POST("/webhook/:source", guarded, handlers.NewWebhookFrontHandler(opts.Guard).Complete)

	group.POST("/jobs", handlers.NewJobFrontHandler(opts.Dispatcher, keyFn).Submit)
}
