package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"shortlink-proxy/internal/config"
	"shortlink-proxy/internal/repository"
	"shortlink-proxy/internal/service"
	"shortlink-proxy/pkg/logging"
)

// configFile 对应 --config，为空时按默认路径查找 config.yaml
var configFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shortlink-proxy",
		Short: "Short-link service that streams upstream content through /p/<code>",
		Long: `shortlink-proxy issues short codes for long URLs and relays the target
through /p/<code>, forwarding Range so media players can seek.

Without a subcommand it starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml or ./configs/config.yaml)")

	root.AddCommand(newServeCmd(), newCreateCmd(), newListCmd())
	return root
}

// app 各子命令共用的依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  repository.Store
	links  *service.ShortLinkService
}

// bootstrap 加载配置、初始化日志和存储；quiet 时日志只保留告警以上
func bootstrap(quiet bool) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if quiet {
		cfg.Log.Level = "warn"
	}

	logger := logging.InitLogger(cfg.Log)

	store, err := repository.NewStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Info("Store opened", zap.String("driver", cfg.Store.Driver))

	links := service.NewShortLinkService(store, service.RandomGenerator{}, cfg.ShortLink, cfg.Server.BaseURL, logger)
	return &app{cfg: cfg, logger: logger, store: store, links: links}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Store close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
