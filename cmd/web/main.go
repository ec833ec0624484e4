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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ai-stylist/internal/config"
	"ai-stylist/internal/gemini"
	"ai-stylist/internal/httpclient"
	"ai-stylist/internal/session"
	"ai-stylist/internal/stylist"
	"ai-stylist/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("config load failed", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	gem, err := gemini.New(gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("gemini init failed", "err", err)
		os.Exit(1)
	}

	sessions := session.NewStore(session.Options{
		TTL: cfg.SessionTTL,
		Stylist: stylist.New(stylist.Options{
			Generator:  gem,
			TextModel:  cfg.TextModel,
			ImageModel: cfg.ImageModel,
			Logger:     logger,
		}),
		Logger: logger,
	})

	srv := &http.Server{
		Addr: cfg.WebAddr,
		Handler: web.New(web.Options{
			Store:          sessions,
			Logger:         logger,
			MaxUploadBytes: cfg.MaxUploadBytes,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("web started", "addr", cfg.WebAddr, "text_model", cfg.TextModel, "image_model", cfg.ImageModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
}
