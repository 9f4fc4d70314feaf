package cli

import (
	"github.com/spf13/cobra"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Print the current per-item price estimates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Prices(cmd.Context())
	},
}
