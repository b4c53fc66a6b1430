// Command ingest executes one ingestion run and exits: non-zero when the run
// fails, zero otherwise. It shares configuration and wiring with the server,
// so a cron job or CI step can refresh the dataset without the HTTP surface.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/promptdir/go-prompt-backend/internal/config"
	"github.com/promptdir/go-prompt-backend/internal/dataset"
	"github.com/promptdir/go-prompt-backend/internal/ingest"
	"github.com/promptdir/go-prompt-backend/internal/repo"
	"github.com/promptdir/go-prompt-backend/internal/services"
	"github.com/promptdir/go-prompt-backend/internal/sources"
	"github.com/promptdir/go-prompt-backend/internal/sysutil"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	sysutil.SetLogLevel(cfg.LogLevel)
	logger := log.With().
		Str("service", sysutil.FirstNonEmpty(cfg.OTEL.ServiceName, "go-prompt-backend")).
		Str("mode", "oneshot").
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	svc := services.NewIngestService(db, pipeline, nil, logger)

	run, err := svc.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("ingestion run failed")
		os.Exit(1)
	}
	logger.Info().
		Str("run_id", run.ID).
		Int("added", run.Added).
		Int("total", run.TotalAfter).
		Msg("ingestion run succeeded")
}

// buildSources assembles the enabled connectors in priority order.
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
