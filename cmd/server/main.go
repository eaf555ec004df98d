package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"job-portal/internal/app"
	"job-portal/internal/config"
	"job-portal/internal/platform/logger"

	"go.uber.org/zap"
)

const pruneInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrap, cleanup, err := app.Bootstrap(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to bootstrap app", zap.Error(err))
	}
	defer func() {
		if err := cleanup(); err != nil {
			lg.Error("cleanup error", zap.Error(err))
		}
	}()

	httpAddr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		lg.Fatal("invalid HTTP port", zap.Error(err))
	}
	wsAddr, err := app.ListenAddr(cfg.App.WSPort)
	if err != nil {
		lg.Fatal("invalid WS port", zap.Error(err))
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go bootstrap.Container.Hub.Run(hubCtx)
	go pruneSessions(ctx, bootstrap, cfg.Session.IdleTimeout)

	errCh := make(chan error, 2)
	go func() {
		errCh <- bootstrap.Fiber.Listen(httpAddr)
	}()
	go func() {
		ln, err := net.Listen("tcp", wsAddr)
		if err != nil {
			errCh <- err
			return
		}
		lg.Info("websocket listening", zap.String("addr", wsAddr))
		if err := bootstrap.WS.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			lg.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
		lg.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bootstrap.WS.Shutdown(shutdownCtx); err != nil {
		lg.Error("websocket shutdown error", zap.Error(err))
	}
	stopHub()
	if err := bootstrap.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error("http shutdown error", zap.Error(err))
	}
}

func pruneSessions(ctx context.Context, a *app.App, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Container.Registry.Prune(maxIdle)
		}
	}
}
