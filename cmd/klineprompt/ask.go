package main

import (
	"context"
	"fmt"

	"github.com/newthinker/klineprompt/internal/core"
	"github.com/newthinker/klineprompt/internal/llm"
	"github.com/newthinker/klineprompt/internal/llm/factory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Send every symbol's prompt to the configured LLM and store the reply",
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	defer env.finish(context.Background())

	provider, err := factory.New(env.cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}
	asker := &llm.Asker{
		Provider:     provider,
		Resolver:     env.resolver,
		SystemPrompt: env.cfg.LLM.SystemPrompt,
		MaxTokens:    env.cfg.LLM.MaxTokens,
		Timeout:      env.cfg.LLM.Timeout,
		Tokens:       env.metrics,
		Archive:      env.mirror,
		Logger:       env.log,
	}

	env.log.Info("asking LLM", zap.String("provider", provider.Name()))

	r := env.runner(cmd)
	r.Delay = 0
	r.Run(ctx, core.KindReply, env.symbols, asker.Op())
	return nil
}
