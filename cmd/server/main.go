package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/mattori/backend/internal/api"
	"github.com/mattori/backend/internal/config"
	"github.com/mattori/backend/internal/core"
	"github.com/mattori/backend/internal/fml"
	"github.com/mattori/backend/internal/httpx"
	"github.com/mattori/backend/internal/mail"
	"github.com/mattori/backend/internal/store"
	"github.com/mattori/backend/internal/uploads"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()

	dbStore, err := store.NewStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer dbStore.Close()

	if err := dbStore.RunMigrations(); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	previews, err := uploads.NewPreviewStore(cfg.PreviewDir)
	if err != nil {
		slog.Error("failed to init preview storage", "error", err)
		os.Exit(1)
	}
	fmlFiles, err := uploads.NewFMLStore(cfg.FMLDir)
	if err != nil {
		slog.Error("failed to init fml storage", "error", err)
		os.Exit(1)
	}

	fetcher := httpx.NewBrowserFetcher(cfg.UserAgent)
	fmlClient := fml.NewClient(cfg.FMLBaseURL, cfg.UserAgent)
	floorplans := core.NewFloorplanService(fetcher, fmlClient, dbStore, cfg.CacheTTL)

	var sender mail.Sender
	if cfg.ResendAPIKey != "" {
		sender = mail.NewResendSender(cfg.ResendAPIKey)
	} else {
		slog.Warn("RESEND_API_KEY not set, mail endpoints disabled")
	}

	ctx := context.Background()
	retention := core.NewRetentionService(dbStore, previews, fmlFiles, cfg.UploadRetention)
	retention.Start(ctx)

	srv := api.NewServer(cfg, floorplans, sender, previews, fmlFiles, dbStore)

	slog.Info("starting server", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, srv.Router()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
