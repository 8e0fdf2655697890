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

	"meetroom/backend/internal/api/handler"
	"meetroom/backend/internal/assistant"
	"meetroom/backend/internal/chathub"
	"meetroom/backend/internal/config"
	"meetroom/backend/internal/identity"
	"meetroom/backend/internal/localization"
	"meetroom/backend/internal/logger"
	"meetroom/backend/internal/media"
	"meetroom/backend/internal/presence"
	"meetroom/backend/internal/room"
	"meetroom/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("meetroom stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Service:    "meetroom",
		Env:        logger.ParseEnv(cfg.Env),
		Version:    cfg.Version,
		InstanceID: uuid.NewString(),
		Debug:      !cfg.IsProduction(),
	})
	slog.Info("starting meetroom", "addr", cfg.HTTPAddr, "lang", cfg.Language)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Storage
	db, err := storage.OpenDatabase(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	rdb := storage.OpenRoster(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb == nil {
		slog.Warn("REDIS_ADDR not set, participant roster disabled")
	} else {
		defer rdb.Close()
	}
	store := storage.NewStorageService(db, rdb)

	// 2. Identity
	ident := identity.NewStore(store)
	if user, err := ident.Restore(ctx); err != nil {
		slog.Warn("could not restore identity", "err", err)
	} else if user != nil {
		slog.Info("restored identity", "user_id", user.ID)
	}

	// 3. Assistant
	texts, err := localization.NewLocalizer()
	if err != nil {
		return err
	}
	if cfg.AssistantAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, assistant replies will fall back")
	}
	engine := assistant.NewEngine(
		assistant.NewGeminiClient(cfg.AssistantBaseURL, cfg.AssistantAPIKey),
		assistant.WithTimeout(cfg.AssistantTimeout),
		assistant.WithFallbacks(assistant.Fallbacks{
			Empty:  texts.GetString(cfg.Language, localization.KeyEmptyReply),
			Failed: texts.GetString(cfg.Language, localization.KeyReplyFailed),
		}),
	)

	// 4. Hub, browser bridge and room controller
	hub := chathub.NewManagerService()
	bridge := chathub.NewBridge(hub, cfg.MediaAcquireTimeout)
	hub.Handler = bridge

	ctrl, err := room.New(room.Deps{
		Engine:       engine,
		Presence:     presence.New(store),
		Provider:     bridge,
		Locator:      bridge,
		NewTransport: func() media.PeerTransport { return media.NewPlaceholderTransport(cfg.STUNURL) },
		Strings:      texts,
		Language:     cfg.Language,
	})
	if err != nil {
		return err
	}
	unsubscribe := ctrl.Subscribe(hub.Publish)
	defer unsubscribe()

	// 5. HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(hub, ctrl, ident, handler.NewTokenIssuer(cfg.JWTSecret, config.TokenTTL), cfg.BaseURL)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := ctrl.LeaveRoom(shutdownCtx); err != nil {
			slog.Warn("leave room on shutdown", "err", err)
		}
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
