package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"intents-agent/internal/asset"
)

func newQuoteCmd(opts *rootOptions) *cobra.Command {
	var (
		amount   string
		tokenIn  string
		tokenOut string
		deadline int
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "向 solver relay 请求一次报价并输出 JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := bootstrap(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			in, err := a.catalog.Lookup(tokenIn)
			if err != nil {
				return err
			}
			out, err := a.catalog.Lookup(tokenOut)
			if err != nil {
				return err
			}
			result, err := a.quotes.GetQuote(ctx, in, out, amount, deadline)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "输入资产的人类可读数量")
	cmd.Flags().StringVar(&tokenIn, "token", string(asset.USDC), "输入资产")
	cmd.Flags().StringVar(&tokenOut, "token-out", string(asset.BTC), "输出资产")
	cmd.Flags().IntVar(&deadline, "min-deadline-ms", 0, "报价最短有效期，0 表示使用配置值")
	return cmd
}
