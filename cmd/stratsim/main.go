package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "stratsim",
	Short: "stratsim - deterministic strategy backtesting engine",
	Long: `stratsim replays rule-based trading strategies against historical
price data: it computes technical indicators, simulates order execution
against a cash ledger, applies stop-loss/take-profit overlays and reports
portfolio value and performance statistics.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
