package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"regform/internal/backend"
	"regform/internal/config"
	"regform/internal/form"
	"regform/internal/logging"
	"regform/internal/registration"
	"regform/internal/server"
	"regform/internal/tgbot"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		logging.New(os.Stderr, config.LogConfig{}).Fatal("config", "err", err)
	}
	logger := logging.New(os.Stderr, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := backend.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("store", "backend", cfg.Store.Backend, "err", err)
	}
	defer st.Close() //nolint:errcheck

	svc := registration.NewService(st, registration.NewValidator(cfg.MaxTeamMembers), logger)

	httpSrv, err := server.New(cfg, svc, logger)
	if err != nil {
		logger.Fatal("http server", "err", err)
	}

	var botApp *tgbot.App
	if cfg.TelegramToken != "" {
		botApp, err = tgbot.New(cfg.TelegramToken, form.New(cfg.EventName, svc), logger)
		if err != nil {
			logger.Fatal("telegram", "err", err)
		}
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		logger.Info("HTTP listening", "addr", cfg.HTTPAddr, "backend", cfg.Store.Backend)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if botApp != nil {
		errg.Go(func() error {
			if err := botApp.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	// Graceful shutdown
	errg.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down...")
		ctxTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(ctxTimeout)
	})

	if err := errg.Wait(); err != nil {
		logger.Error("stopped", "err", err)
	}
	logger.Info("bye")
}
