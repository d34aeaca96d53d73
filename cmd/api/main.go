package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"receptionist-platform/internal/audit"
	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/cache"
	"receptionist-platform/internal/callrecord"
	"receptionist-platform/internal/config"
	"receptionist-platform/internal/httpapi"
	"receptionist-platform/internal/reporting"
	"receptionist-platform/internal/store"
	"receptionist-platform/internal/vapi"
	"receptionist-platform/internal/webhook"
	"receptionist-platform/pkg/logger"
	"receptionist-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// vendorAssistants adapts the vendor client to the normalizer's resolver.
type vendorAssistants struct {
	c *vapi.Client
}

func (v vendorAssistants) GetAssistant(ctx context.Context, id string) (*vapi.Assistant, error) {
	a, err := v.c.GetAssistant(ctx, id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	vendorClient, err := vapi.NewClient(cfg.Vapi)
	if err != nil {
		log.Error("vendor client init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	st := store.New(db)
	normalizer := &callrecord.Normalizer{Assistants: vendorAssistants{c: vendorClient}}
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	callCache := cache.NewCalls(rdb, 0)
	reports := reporting.NewService(st)

	wh := &webhook.Handler{
		Store:      st,
		Normalizer: normalizer,
		Audit:      auditSvc,
		Cache:      callCache,
	}
	api := httpapi.Handlers{
		Auth:       authManager,
		Store:      st,
		Vendor:     vendorClient,
		Reports:    reports,
		Cache:      callCache,
		Audit:      auditSvc,
		Normalizer: normalizer,
		Exports:    &httpapi.ExportLimiter{Rdb: rdb},
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, api, authManager, wh)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
