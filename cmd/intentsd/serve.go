package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"intents-agent/internal/api"
	"intents-agent/internal/config"
	"intents-agent/internal/observability/alerting"
	"intents-agent/internal/observability/metrics"
	"intents-agent/pkg/logger"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 工具服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := bootstrap(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr != "" {
				a.cfg.Server.Address = addr
			}
			return serve(ctx, a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "覆盖配置中的监听地址")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	log := logger.Named("intentsd")

	var serverOpts []api.Option
	serverOpts = append(serverOpts, api.WithReadHeaderTimeout(time.Duration(a.cfg.Server.ReadHeaderTimeoutSeconds)*time.Second))
	if a.cfg.Metrics.Enabled && a.cfg.Metrics.Address == "" {
		serverOpts = append(serverOpts, api.WithMetricsHandler(metrics.Handler()))
	}
	serverOpts = append(serverOpts, api.WithAlerts(newDispatcher(a.cfg.Alerting)))
	server := api.NewServer(a.cfg.Server.Address, a.catalog, a.quotes, a.builder, serverOpts...)

	log.Info("intents-agent 启动",
		slog.String("addr", a.cfg.Server.Address),
		slog.String("relay", a.relay.Endpoint()),
		slog.String("intents_contract", a.cfg.Intents.Contract),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	if a.cfg.Metrics.Enabled && a.cfg.Metrics.Address != "" {
		g.Go(func() error {
			return metrics.StartServer(gctx, a.cfg.Metrics.Address)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		log.Info("intents-agent 已停止")
		return nil
	}
	return err
}

// newDispatcher 始终写日志告警，并追加配置的 webhook。
func newDispatcher(cfg config.AlertingConfig) *alerting.FanoutDispatcher {
	notifiers := []alerting.Notifier{alerting.LogNotifier{}}
	for _, hook := range cfg.Webhooks {
		notifiers = append(notifiers, &alerting.WebhookNotifier{Kind: alerting.Channel(hook.Kind), URL: hook.URL})
	}
	return alerting.NewFanout(notifiers...)
}
