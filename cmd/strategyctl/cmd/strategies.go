package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitos/strategy_monitor/internal/strategy"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the available strategy ids",
	Run: func(cmd *cobra.Command, args []string) {
		for _, id := range strategy.NewCatalog().IDs() {
			fmt.Println(id)
		}
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
