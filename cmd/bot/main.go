package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ai-stylist/internal/config"
	"ai-stylist/internal/gemini"
	"ai-stylist/internal/handlers"
	"ai-stylist/internal/httpclient"
	"ai-stylist/internal/mediagroup"
	"ai-stylist/internal/session"
	"ai-stylist/internal/stylist"
	"ai-stylist/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireTelegram()
	}
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("config load failed", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: httpClient,
		Logger:     logger,
		Debug:      cfg.Debug,
	})
	if err != nil {
		logger.Error("telegram init failed", "err", err)
		os.Exit(1)
	}

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

	handler := handlers.New(handlers.Options{
		Telegram:       tg,
		Sessions:       sessions,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sem := make(chan struct{}, cfg.MaxConcurrent)
	onGroupFlush := func(group mediagroup.Group) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func() {
			defer func() { <-sem }()
			handler.HandleMediaGroup(ctx, group)
		}()
	}

	aggregator := mediagroup.New(mediagroup.Options{
		Debounce: cfg.MediaGroupDebounce,
		MaxItems: 2,
		OnFlush:  onGroupFlush,
	})
	defer aggregator.Close()
	handler.SetMediaGroupAggregator(aggregator)

	logger.Info("bot started", "username", tg.Username(), "text_model", cfg.TextModel, "image_model", cfg.ImageModel)

	updates := tg.Updates(telegram.UpdatesOptions{
		Timeout: 30 * time.Second,
	})
	defer tg.StopUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				logger.Info("updates channel closed")
				return
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			go func(update telegram.Update) {
				defer func() { <-sem }()

				if err := handler.HandleUpdate(ctx, update); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("handle update failed", "err", err)
				}
			}(update)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
