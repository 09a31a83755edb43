// Package app wires the database, settings snapshot, guard pipeline, and
// HTTP surfaces into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shortsforge/ShortsForgeGuard/internal/config"
	"github.com/shortsforge/ShortsForgeGuard/internal/db"
	"github.com/shortsforge/ShortsForgeGuard/internal/guard"
	adminapi "github.com/shortsforge/ShortsForgeGuard/internal/http/api/admin"
	"github.com/shortsforge/ShortsForgeGuard/internal/http/api/front"
	"github.com/shortsforge/ShortsForgeGuard/internal/http/middleware"
	"github.com/shortsforge/ShortsForgeGuard/internal/identity"
	"github.com/shortsforge/ShortsForgeGuard/internal/jobs"
	"github.com/shortsforge/ShortsForgeGuard/internal/limits"
	internalsettings "github.com/shortsforge/ShortsForgeGuard/internal/settings"

	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the guard server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errAdmin := EnsureDefaultAdmin(conn); errAdmin != nil {
		return errAdmin
	}
	if errRefresh := internalsettings.RefreshDBConfig(ctx, conn); errRefresh != nil {
		return errRefresh
	}

	serverCfg, errServer := config.LoadServerConfig(configPath, defaultPort)
	if errServer != nil {
		return errServer
	}
	guardCfg, errGuard := config.LoadGuardConfig(configPath)
	if errGuard != nil {
		return errGuard
	}
	jwtCfg, errJWT := config.LoadJWTConfig(configPath)
	if errJWT != nil {
		return errJWT
	}

	g, janitor := buildGuard(guardCfg)
	janitor.Start(ctx)

	resolver := identity.NewGormResolver(conn, nil)
	dispatcher := jobs.NewDispatcher(
		g,
		resolver,
		buildExecutor(serverCfg.Converter),
		jobs.NewPacedNotifier(jobs.LogNotifier(), rejectionNoticesPerSecond, rejectionNoticeBurst),
		serverCfg.Converter.Timeout,
	)

	if serverCfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLog())

	adminapi.RegisterAdminRoutes(engine, conn, jwtCfg, g)
	front.RegisterFrontRoutes(engine, front.Options{
		DB:         conn,
		Guard:      g,
		Resolver:   resolver,
		Dispatcher: dispatcher,
		TrustXFF:   serverCfg.TrustProxyHeaders,
	})

	addr := fmt.Sprintf("%s:%d", strings.TrimSpace(serverCfg.Host), serverCfg.Port)
	server := &http.Server{Addr: addr, Handler: engine}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("guard server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		log.WithError(errShutdown).Warn("server shutdown")
	}
	dispatcher.Wait()
	return nil
}

const (
	shutdownTimeout           = 10 * time.Second
	rejectionNoticesPerSecond = 5
	rejectionNoticeBurst      = 10
)

// buildGuard assembles the guard pipeline from file config merged with any
// DB-stored overrides.
func buildGuard(guardCfg config.GuardConfig) (*guard.Guard, *limits.Janitor) {
	overrides := internalsettings.LoadGuardSettings()
	if overrides.RateWindow > 0 {
		guardCfg.RateWindow = overrides.RateWindow
	}
	if overrides.BlockWindow > 0 {
		guardCfg.BlockWindow = overrides.BlockWindow
	}
	if overrides.RapidFireThreshold > 0 {
		guardCfg.RapidFireThreshold = overrides.RapidFireThreshold
	}
	if overrides.BurstThreshold > 0 {
		guardCfg.BurstThreshold = overrides.BurstThreshold
	}
	if overrides.StaleJobTTL > 0 {
		guardCfg.StaleJobTTL = overrides.StaleJobTTL
	}

	tierLimits, perIdentity, global := guardCfg.TierLimitMaps()
	for name, byCategory := range overrides.TierLimits {
		tier, ok := limits.ParseTier(name)
		if !ok {
			log.WithField("tier", name).Warn("ignoring stored limits for unknown tier")
			continue
		}
		for category, limit := range byCategory {
			tierLimits[tier][limits.Category(strings.TrimSpace(category))] = limit
		}
	}

	limiter := limits.NewRateLimiter(guardCfg.RateWindow, tierLimits)
	blocks := limits.NewBlockRegistry(guardCfg.BlockWindow)
	detector := limits.NewAbuseDetector(limiter, blocks,
		guardCfg.RapidFireWindow, guardCfg.RapidFireThreshold, guardCfg.BurstThreshold)
	admission := limits.NewAdmissionController(perIdentity, global, guardCfg.StaleJobTTL)

	g := guard.New(guard.Options{
		Limiter:   limiter,
		Blocks:    blocks,
		Detector:  detector,
		Admission: admission,
		Recorder:  buildRecorder(overrides),
	})
	janitor := limits.NewJanitor(limiter, blocks, admission, guardCfg.JanitorInterval, nil)
	return g, janitor
}

// buildRecorder returns the stats recorder: in-memory always, Redis-backed
// best effort when enabled in settings.
func buildRecorder(overrides internalsettings.GuardSettings) limits.Recorder {
	memory := limits.NewMemoryRecorder()
	if !overrides.StatsRedisEnabled || overrides.StatsRedisAddr == "" {
		return memory
	}
	client := redis.NewClient(&redis.Options{
		Addr:     overrides.StatsRedisAddr,
		Password: overrides.StatsRedisPassword,
		DB:       overrides.StatsRedisDB,
	})
	primary := limits.NewRedisRecorder(client, overrides.StatsRedisPrefix, 0)
	log.WithField("addr", overrides.StatsRedisAddr).Info("redis stats recording enabled")
	return limits.NewFallbackRecorder(primary, memory, nil)
}

// buildExecutor picks the converter transport from config.
func buildExecutor(cfg config.ConverterConfig) jobs.Executor {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return jobs.LogExecutor()
	}
	return jobs.NewHTTPExecutor(endpoint, cfg.Timeout)
}
