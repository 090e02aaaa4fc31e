package main

import (
	"os"

	"github.com/vitos/strategy_monitor/cmd/strategyctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
