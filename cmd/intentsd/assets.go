package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAssetsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "列出支持的资产及其合约与精度",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tDECIMALS\tIDENTIFIER")
			for _, a := range catalog.All() {
				fmt.Fprintf(w, "%s\t%d\t%s\n", a.Symbol, a.Decimals, a.Identifier())
			}
			return w.Flush()
		},
	}
}
