package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"

	"dirsync/internal/deltastate"
	"dirsync/internal/directory"
	"dirsync/internal/jwttoken"
	"dirsync/internal/notify"
	"dirsync/internal/platform/config"
	"dirsync/internal/platform/httpserver"
	"dirsync/internal/platform/logger"
	platformredis "dirsync/internal/platform/redis"
	"dirsync/internal/records"
	syncconfig "dirsync/internal/sync/config"
	"dirsync/internal/sync/metrics"
	"dirsync/internal/sync/models"
	"dirsync/internal/sync/service"
	"dirsync/internal/synclog"
	httptransport "dirsync/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	mappings, err := syncconfig.LoadMappings(cfg.MappingFile)
	if err != nil {
		log.Error("invalid field mapping configuration", "error", err)
		os.Exit(1)
	}
	syncCfg := buildSyncConfig(cfg, mappings)

	var (
		recordStore records.Store
		logRecorder synclog.Recorder
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		recordStore = records.NewPostgres(db)
		logRecorder = synclog.NewPostgres(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		recordStore = records.NewMemory()
		logRecorder = synclog.NewMemory()
	}

	var deltaStore deltastate.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		deltaStore = deltastate.NewRedis(redisClient.Client)
	} else {
		log.Warn("no redis configured, delta state held in memory")
		deltaStore = deltastate.NewMemory()
	}

	tokens := directory.StaticTokenSource(os.Getenv("DIRSYNC_DIRECTORY_TOKEN"))
	dir := directory.NewHTTP(cfg.DirectoryBase, tokens, directory.WithLogger(log))

	svc, err := service.New(syncCfg, dir, recordStore, deltaStore,
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
	)
	if err != nil {
		log.Error("configure sync service", "error", err)
		os.Exit(1)
	}

	auditedOpts := []service.AuditedOption{service.WithAuditLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		notifier, err := notify.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, notify.WithLogger(log))
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer notifier.Close()
		auditedOpts = append(auditedOpts, service.WithNotifier(notifier, syncCfg.NotifyRecipients))
	}
	audited := service.NewAudited(svc, logRecorder, auditedOpts...)

	validator := jwttoken.NewService(cfg.JWTSigningKey, "dirsync")
	handler := httptransport.NewHandler(audited, svc, validator, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	log.Info("starting dirsync", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// buildSyncConfig folds the environment overrides onto the defaults.
func buildSyncConfig(cfg config.Server, mappings []models.FieldMapping) syncconfig.Sync {
	override := syncconfig.Override{
		UpdateExisting:    &cfg.UpdateExisting,
		DeactivateMissing: &cfg.DeactivateMissing,
		IncludeDisabled:   &cfg.IncludeDisabled,
		Mappings:          mappings,
	}
	if cfg.ChunkSize > 0 {
		override.ChunkSize = &cfg.ChunkSize
	}
	if cfg.Workers > 0 {
		override.Workers = &cfg.Workers
	}
	if cfg.Departments != nil {
		override.Departments = cfg.Departments
	}
	if cfg.Exclusions != nil {
		override.Exclusions = cfg.Exclusions
	}
	if cfg.NotifyRecipients != nil {
		override.NotifyRecipients = cfg.NotifyRecipients
	}
	for _, t := range cfg.UserTypes {
		override.UserTypes = append(override.UserTypes, models.UserType(t))
	}
	return syncconfig.Normalize(syncconfig.Merge(syncconfig.Default(), override))
}
