package main

import (
	"github.com/spf13/cobra"

	"intents-agent/internal/config"
)

type rootOptions struct {
	configPath string
}

// newRootCmd 组装根命令及全部子命令。
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "intentsd",
		Short: "NEAR intents 工具服务",
		Long: `为智能体提供跨资产报价与存入交易载荷的 HTTP 工具服务。

配置文件路径依次取自 --config、环境变量 ` + config.EnvConfigPath + ` 与 ` + config.DefaultPath + `。`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "JSON 配置文件路径")

	root.AddCommand(
		newServeCmd(opts),
		newQuoteCmd(opts),
		newAssetsCmd(opts),
	)
	return root
}
