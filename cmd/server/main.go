// Command server runs the prompt-directory HTTP API together with the
// scheduled ingestion pipeline. Configuration comes from the environment
// (optionally seeded by a .env file); see internal/config for every knob.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/promptdir/go-prompt-backend/internal/config"
	"github.com/promptdir/go-prompt-backend/internal/dataset"
	httpapi "github.com/promptdir/go-prompt-backend/internal/http"
	"github.com/promptdir/go-prompt-backend/internal/ingest"
	"github.com/promptdir/go-prompt-backend/internal/observability"
	"github.com/promptdir/go-prompt-backend/internal/repo"
	"github.com/promptdir/go-prompt-backend/internal/scheduler"
	"github.com/promptdir/go-prompt-backend/internal/services"
	"github.com/promptdir/go-prompt-backend/internal/sources"
	"github.com/promptdir/go-prompt-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	logger := log.With().
		Str("service", sysutil.FirstNonEmpty(cfg.OTEL.ServiceName, "go-prompt-backend")).
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(sctx)
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database failed")
	}

	store := &dataset.Store{
		DataPath:    cfg.DataPath,
		SitemapPath: cfg.SitemapPath,
		BaseURL:     cfg.BaseURL,
	}

	pipeline := &ingest.Pipeline{
		Sources: buildSources(cfg),
		Store:   store,
		Cfg:     cfg.Pipeline,
		Log:     logger,
	}

	dirSvc := services.NewDirectoryService(store, logger)
	ingestSvc := services.NewIngestService(db, pipeline, dirSvc, logger)

	if cfg.ScheduleEnabled {
		sched := scheduler.New(ingestSvc, logger)
		if err := sched.Start(cfg.ScheduleSpec); err != nil {
			logger.Fatal().Err(err).Str("spec", cfg.ScheduleSpec).Msg("invalid schedule")
		}
		defer sched.Stop()
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, dirSvc, ingestSvc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
		os.Exit(1)
	}
}

// buildSources assembles the enabled connectors in priority order. Order is
// load-bearing: when two sources surface the same content, the earlier one
// wins deduplication.
func buildSources(cfg config.Config) []sources.Source {
	enabled := make(map[string]bool, len(cfg.Sources.Enabled))
	for _, name := range cfg.Sources.Enabled {
		enabled[name] = true
	}

	var out []sources.Source
	if enabled["reddit"] {
		out = append(out, sources.NewReddit(
			cfg.Sources.RedditClientID,
			cfg.Sources.RedditClientSecret,
			cfg.Sources.RedditUserAgent,
			cfg.Sources.Subreddits,
		))
	}
	if enabled["github"] {
		out = append(out, sources.NewGitHub(cfg.Sources.GitHubToken, cfg.Sources.GitHubQueries))
	}
	if enabled["twitter"] {
		out = append(out, sources.NewTwitterProxy(cfg.Sources.TwitterProxyURL, cfg.Sources.TwitterProxyKey))
	}
	return out
}
