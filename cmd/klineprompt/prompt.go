package main

import (
	"context"

	"github.com/newthinker/klineprompt/internal/prompt"
	"github.com/spf13/cobra"
)

var stage string

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the stage prompt for every symbol from stored datasets",
	RunE:  runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVar(&stage, "stage", prompt.DefaultStage, "template stage, read from <templates_dir>/<stage>.txt")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	defer env.finish(context.Background())

	asm := &prompt.Assembler{
		Resolver:  env.resolver,
		Templates: prompt.DirTemplates{Dir: env.cfg.Datasets.TemplatesDir},
		Archive:   env.mirror,
		Logger:    env.log,
	}
	asm.BuildAll(ctx, *env.runner(cmd), env.symbols, stage)
	return nil
}
