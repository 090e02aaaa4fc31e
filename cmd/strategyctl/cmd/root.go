package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "strategyctl",
	Short: "Backtest trading strategies and manage the live watch-list",
	Long: `strategyctl drives the strategy engine from the command line.

It provides tools for:
  - Backtesting rule-based strategies against exchange kline history
  - Promoting a symbol/strategy pair to continuous monitoring
  - Inspecting signals the monitor daemon has recorded`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// parseParams turns repeated key=value flags into a strategy parameter map.
func parseParams(raw []string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(map[string]float64, len(raw))
	for _, kv := range raw {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("bad param %q (want key=value)", kv)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("bad param value %q: %w", kv, err)
		}
		params[strings.TrimSpace(key)] = f
	}
	return params, nil
}
