package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"shortlink-proxy/internal/handler"
	"shortlink-proxy/internal/i18n"
	"shortlink-proxy/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the maintenance cron",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	tr, err := i18n.New(a.cfg.I18n.DefaultLang)
	if err != nil {
		logger.Error("Failed to load i18n messages", zap.Error(err))
		return err
	}

	relay := service.NewRelayService(a.store, service.NewUpstreamClient(a.cfg.Relay), a.cfg.Relay.UserAgent, logger)

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(handler.RouterDeps{
		ShortLinks: handler.NewShortLinkHandler(a.links, relay, a.cfg.Server.UI, logger),
		Translator: tr,
		Logger:     logger,
	})

	maintenance := service.NewMaintenance(a.store, logger)
	if err := maintenance.Start(a.cfg.Maintenance.Schedule); err != nil {
		logger.Error("Failed to schedule cron job", zap.Error(err))
		return err
	}
	defer maintenance.Stop()
	// 启动时先刷新一次存量指标
	go maintenance.RunOnce()

	srv := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: r,
	}

	// 等待中断信号以优雅关闭
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server is running on " + a.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Failed to start server", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exiting")
	return nil
}
