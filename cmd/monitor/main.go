package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"plantmonitor/internal/analysis"
	"plantmonitor/internal/broadcast"
	"plantmonitor/internal/config"
	cronrunner "plantmonitor/internal/cron"
	"plantmonitor/internal/db"
	"plantmonitor/internal/handler"
	"plantmonitor/internal/ingest"
	"plantmonitor/internal/logger"
	gormrepository "plantmonitor/internal/repository/gorm"
	"plantmonitor/internal/seed"
	"plantmonitor/internal/service"
)

func main() {
	cfgPath := os.Getenv("PLANT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PLANT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := gormrepository.New(dbConn.Gorm)

	if cfg.Seed.Enabled {
		seeder := &seed.Seeder{Repo: store, Logger: logger, Backfill: cfg.Seed.Backfill}
		if err := seeder.Ensure(ctx); err != nil {
			logger.Fatal("seed failed", zap.Error(err))
		}
	}

	hub := broadcast.NewHub()
	cycle := &analysis.Cycle{
		Repo:          store,
		Evaluator:     &analysis.Evaluator{},
		Reconciler:    &analysis.Reconciler{Repo: store, Logger: logger},
		Projector:     &analysis.StatusProjector{Repo: store, Logger: logger},
		Hub:           hub,
		Logger:        logger,
		RecentWindow:  cfg.Analysis.RecentWindow,
		TrendWindow:   cfg.Analysis.TrendWindow,
		MaxConcurrent: cfg.Analysis.MaxConcurrent,
	}
	generator := &ingest.Generator{Repo: store, Logger: logger}
	dashboard := service.NewDashboardService(store, logger)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)
	facilityHandler := &handler.FacilityHandler{Dashboard: dashboard}
	facilityHandler.Register(engine)
	dashboardHandler := &handler.DashboardHandler{
		Dashboard:    dashboard,
		SummaryHours: cfg.Stream.SummaryHours,
	}
	dashboardHandler.Register(engine)
	insightHandler := &handler.InsightHandler{Repo: store}
	insightHandler.Register(engine)
	streamHandler := &handler.StreamHandler{
		Dashboard:    dashboard,
		Hub:          hub,
		Logger:       logger,
		AwaitTimeout: cfg.Stream.AwaitTimeout,
		SummaryHours: cfg.Stream.SummaryHours,
	}
	streamHandler.Register(engine)

	cronRunner := cronrunner.New(logger, ctx)

	if cfg.Ingest.Enabled {
		spec := "@every " + cfg.Ingest.Interval.String()
		_, err := cronRunner.Add(spec, func(ctx context.Context) {
			facilityIDs, err := generator.GenerateOnce(ctx)
			if err != nil {
				logger.Warn("ingest tick failed", zap.Error(err))
				return
			}
			cycle.RunMany(ctx, facilityIDs)
		})
		if err != nil {
			logger.Warn("cron register ingest failed", zap.Error(err))
		}
	}

	if cfg.Retention.Enabled {
		_, err := cronRunner.Add(cfg.Retention.SweepInterval, func(ctx context.Context) {
			cutoff := time.Now().UTC().Add(-cfg.Retention.MaxAge)
			n, err := store.DeleteReadingsBefore(ctx, cutoff)
			if err != nil {
				logger.Warn("retention sweep failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("old readings deleted", zap.Int64("count", n))
			}
		})
		if err != nil {
			logger.Warn("cron register retention sweep failed", zap.Error(err))
		}
	}

	cronRunner.Start()
	defer cronRunner.Stop()

	// One full pass before serving so dashboards see fresh insights and
	// statuses immediately after boot.
	logger.Info("running initial analysis pass")
	if err := cycle.RunAll(ctx); err != nil {
		logger.Warn("initial analysis pass failed (continuing)", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
