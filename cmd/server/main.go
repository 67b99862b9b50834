// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	auctionapi "github.com/hhpl/auction-server/internal/api/auction"
	authapi "github.com/hhpl/auction-server/internal/api/auth"
	"github.com/hhpl/auction-server/internal/api/matches"
	"github.com/hhpl/auction-server/internal/api/players"
	standingsapi "github.com/hhpl/auction-server/internal/api/standings"
	"github.com/hhpl/auction-server/internal/api/teams"
	"github.com/hhpl/auction-server/internal/auction"
	"github.com/hhpl/auction-server/internal/config"
	"github.com/hhpl/auction-server/internal/db"
	"github.com/hhpl/auction-server/internal/email"
	"github.com/hhpl/auction-server/internal/ratelimit"
	"github.com/hhpl/auction-server/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	var sender email.Sender
	if cfg.Email.Enabled {
		sesClient, err := email.NewSESClient(
			cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize email sender")
		}
		sender = sesClient
	}

	engine := auction.NewEngine(database)
	loginLimiter := ratelimit.New(nil)
	defer loginLimiter.Close()

	authapi.InitHandlers(database, cfg, loginLimiter)
	teams.InitHandlers(database, cfg, sender)
	players.InitHandlers(database)
	matches.InitHandlers(database)
	standingsapi.InitHandlers(database)
	auctionapi.InitHandlers(engine, sender)

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if err := scheduler.RegisterBudgetAudit(engine, cfg.Auction.AuditCron); err != nil {
		log.Fatal().Err(err).Msg("Failed to register budget audit job")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
	}()

	server := newServer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
