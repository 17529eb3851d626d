package main

import (
	"context"
	"fmt"

	"intents-agent/internal/asset"
	"intents-agent/internal/config"
	"intents-agent/internal/intents"
	"intents-agent/internal/quote"
	"intents-agent/internal/relay/solver"
	"intents-agent/pkg/logger"
)

// app 聚合了各子命令共享的运行时组件。
type app struct {
	cfg     *config.Config
	catalog *asset.Catalog
	relay   *solver.Client
	quotes  *quote.Service
	builder *intents.Builder
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	path := config.ResolvePath(opts.configPath)
	if opts.configPath != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(path)
}

func loadCatalog(cfg *config.Config) (*asset.Catalog, error) {
	if cfg.Assets.CatalogPath == "" {
		return asset.DefaultCatalog(), nil
	}
	return asset.LoadCatalog(cfg.Assets.CatalogPath)
}

// bootstrap 按配置初始化日志、资产目录、relay 客户端与载荷构建器。
func bootstrap(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	relayClient, err := solver.NewClient(ctx, solver.Config{
		URL:     cfg.Relay.URL,
		Timeout: cfg.Relay.Timeout(),
	})
	if err != nil {
		return nil, err
	}

	builder, err := intents.NewBuilder(catalog, intents.Config{
		IntentsContract: cfg.Intents.Contract,
		StorageDeposit:  cfg.Intents.StorageDeposit,
	})
	if err != nil {
		relayClient.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		catalog: catalog,
		relay:   relayClient,
		quotes:  quote.NewService(relayClient, quote.WithMinDeadline(cfg.Relay.MinDeadlineMs)),
		builder: builder,
	}, nil
}

func (a *app) Close() {
	if a.relay != nil {
		a.relay.Close()
	}
	_ = logger.Sync()
}
