package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	debug      bool
	symbolArgs []string
)

var rootCmd = &cobra.Command{
	Use:   "klineprompt",
	Short: "klineprompt - market data to LLM prompt pipeline",
	Long: `klineprompt pulls daily bars and order history for a watchlist from a
Futu OpenD gateway, stores them as line-delimited JSON datasets and renders
per-symbol prompts from stage templates.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	rootCmd.PersistentFlags().StringSliceVar(&symbolArgs, "symbols", nil, "symbols to process, e.g. HK.00700,HK.09988 (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
