package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/klineprompt/internal/broker"
	"github.com/newthinker/klineprompt/internal/core"
	"github.com/newthinker/klineprompt/internal/fetch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	klineCount int
	fetchDelay time.Duration
)

var klinesCmd = &cobra.Command{
	Use:   "klines",
	Short: "Fetch the latest bars for every symbol",
	RunE:  runKlines,
}

func init() {
	rootCmd.AddCommand(klinesCmd)
	klinesCmd.Flags().IntVar(&klineCount, "count", 0, "number of bars per symbol (default from config)")
	klinesCmd.Flags().DurationVar(&fetchDelay, "delay", 0, "pause between symbols (default from config)")
}

// signalContext is cancelled on SIGINT or SIGTERM. The batch stops before the
// next symbol and still prints its summary.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runKlines(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	defer env.finish(context.Background())

	if cmd.Flags().Changed("count") {
		env.cfg.Fetch.KlineCount = klineCount
	}
	if cmd.Flags().Changed("delay") {
		env.cfg.Fetch.Delay = fetchDelay
	}
	if err := env.cfg.Validate(); err != nil {
		return err
	}

	dialer, err := newDialer(env.cfg.Broker, env.log)
	if err != nil {
		return err
	}
	f := &fetch.Fetcher{
		Dialer:   dialer,
		Resolver: env.resolver,
		Archive:  env.mirror,
		Logger:   env.log,
	}

	env.log.Info("fetching bars",
		zap.String("broker", dialer.Name()),
		zap.Int("count", env.cfg.Fetch.KlineCount),
		zap.String("kline_type", env.cfg.Fetch.KlineType))

	env.runner(cmd).Run(ctx, core.KindBars, env.symbols, f.Klines(fetch.KlineParams{
		Count:  env.cfg.Fetch.KlineCount,
		Type:   broker.KLType(env.cfg.Fetch.KlineType),
		AuType: broker.AuType(env.cfg.Fetch.AuType),
	}))
	return nil
}
