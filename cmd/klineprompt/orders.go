package main

import (
	"context"

	"github.com/newthinker/klineprompt/internal/core"
	"github.com/newthinker/klineprompt/internal/fetch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var orderDays int

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Fetch recent order history for every symbol",
	RunE:  runOrders,
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.Flags().IntVar(&orderDays, "days", 0, "lookback window in days (default from config)")
	ordersCmd.Flags().DurationVar(&fetchDelay, "delay", 0, "pause between symbols (default from config)")
}

func runOrders(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	defer env.finish(context.Background())

	if cmd.Flags().Changed("days") {
		env.cfg.Fetch.OrderDays = orderDays
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
	filter := tradeFilter(env.cfg.Broker.Futu)

	env.log.Info("fetching orders",
		zap.String("broker", dialer.Name()),
		zap.Int("days", env.cfg.Fetch.OrderDays),
		zap.String("env", string(filter.Env)))

	env.runner(cmd).Run(ctx, core.KindOrders, env.symbols, f.Orders(fetch.OrderParams{
		Days:   env.cfg.Fetch.OrderDays,
		Filter: filter,
	}))
	return nil
}
