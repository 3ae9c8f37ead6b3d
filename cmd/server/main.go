// Package main is the entry point for the helpdesk API server. It loads the
// environment configuration, sets up logging and tracing, opens and migrates
// the database, builds the knowledge-base index and triage agent when a
// completion provider is configured, and serves the HTTP API with graceful
// shutdown.
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
	"gorm.io/gorm"

	"github.com/autocrm/helpdesk-backend/internal/agent"
	"github.com/autocrm/helpdesk-backend/internal/auth"
	"github.com/autocrm/helpdesk-backend/internal/config"
	httpapi "github.com/autocrm/helpdesk-backend/internal/http"
	"github.com/autocrm/helpdesk-backend/internal/http/handlers"
	"github.com/autocrm/helpdesk-backend/internal/kb"
	"github.com/autocrm/helpdesk-backend/internal/observability"
	"github.com/autocrm/helpdesk-backend/internal/repo"
	"github.com/autocrm/helpdesk-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags.
var version = "dev"

func main() {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	zerolog.TimeFieldFormat = time.RFC3339
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting helpdesk backend")

	ctx := context.Background()

	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	db, err := repo.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	if err := repo.Seed(db, cfg.GlobalOrgID); err != nil {
		log.Fatal().Err(err).Msg("database seed failed")
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("auth verifier setup failed")
	}
	resolver := auth.NewResolver(db, verifier)

	triage, err := buildTriage(ctx, db, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("triage agent setup failed")
	}
	if triage == nil {
		log.Warn().Msg("no OpenAI API key configured; triage endpoints disabled")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, resolver, triage, cfg)

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
	log.Info().Str("addr", srv.Addr).Msg("listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("stopped")
}

// newVerifier selects the token verifier from the configured auth mode.
func newVerifier(cfg config.Config) (auth.Verifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeRemote:
		client := &http.Client{Timeout: cfg.Auth.Timeout}
		return auth.NewRemoteVerifier(client, cfg.Auth.RemoteURL, "")
	default:
		return auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	}
}

// buildTriage assembles the knowledge-base index and the triage agent. It
// returns (nil, nil) when no completion provider is configured; the index is
// rebuilt from the full article table on every start.
func buildTriage(ctx context.Context, db *gorm.DB, cfg config.Config) (handlers.TriageAgent, error) {
	if !cfg.AgentEnabled() {
		return nil, nil
	}

	embedder, err := kb.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	articles, err := repo.ListAllArticles(ctx, db)
	if err != nil {
		return nil, err
	}
	docs := make([]kb.Document, 0, len(articles))
	for _, a := range articles {
		docs = append(docs, kb.Document{
			ID:             a.ID,
			Title:          a.Title,
			Category:       a.Category,
			OrganizationID: a.OrganizationID,
			HTML:           a.Content,
		})
	}

	idx, err := kb.BuildIndex(ctx, docs, embedder,
		kb.WithTopK(cfg.KBTopK),
		kb.WithMinScore(cfg.KBMinScore),
		kb.WithGlobalOrg(cfg.GlobalOrgID),
	)
	if err != nil {
		return nil, err
	}
	log.Info().Int("articles", idx.Len()).Msg("knowledge-base index built")

	completer, err := agent.NewOpenAICompleter(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel, float32(cfg.OpenAI.Temperature))
	if err != nil {
		return nil, err
	}
	return agent.New(idx, completer), nil
}
