package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"HealthSeva/global/config"
	"HealthSeva/logger"
	"HealthSeva/tools"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(tools.GetEnv("HS_CONFIG", ""))
	if err != nil {
		logger.Error("[Boot] config", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer logger.Sync()

	infra := config.ConfigAll(ctx, cfg)
	defer infra.Close()

	a, err := build(ctx, cfg, infra)
	if err != nil {
		logger.Error("[Boot] wiring failed", zap.Error(err))
		os.Exit(1)
	}
	a.start(ctx)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.HTTPPort),
		Handler: a.engine,
	}
	go func() {
		logger.Info("[HTTP] listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[HTTP] server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("[Boot] shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("[HTTP] shutdown", zap.Error(err))
	}
}
