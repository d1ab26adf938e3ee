package main

import (
	"os"
	"os/signal"
	"period-tracker/internal"
	"period-tracker/tooling"
	"syscall"

	"github.com/spf13/cobra"
)

type styleFlags struct {
	dir       string
	formatter string
	linter    string
}

func (f *styleFlags) bind(c *cobra.Command) {
	c.Flags().StringVar(&f.dir, "dir", "", "Source directory (default SOURCE_DIR)")
	c.Flags().StringVar(&f.formatter, "formatter", "", "Formatter to run (default FORMATTER)")
	c.Flags().StringVar(&f.linter, "linter", "", "Linter to run (default LINTER)")
}

// apply overrides the configuration with the flags that were set.
func (f *styleFlags) apply(config *internal.Config) {
	if f.dir != "" {
		config.SourceDir = f.dir
	}
	if f.formatter != "" {
		config.Formatter = f.formatter
	}
	if f.linter != "" {
		config.Linter = f.linter
	}
}

type styleAction func(r *tooling.Runner, cmd *cobra.Command, formatter, linter string) error

func styleCmd(use, short string, action styleAction) *cobra.Command {
	var flags styleFlags
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := internal.Load()
			if err != nil {
				return err
			}
			flags.apply(&config)
			if err := config.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			runner := tooling.NewRunner(config.Logger(), config.SourceDir, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return action(runner, cmd, config.Formatter, config.Linter)
		},
	}
	flags.bind(c)
	return c
}

func formatCmd() *cobra.Command {
	return styleCmd("format", "Rewrite sources with the formatter then the linter auto-fix",
		func(r *tooling.Runner, cmd *cobra.Command, formatter, linter string) error {
			return r.Format(cmd.Context(), formatter, linter)
		})
}

func lintCmd() *cobra.Command {
	return styleCmd("lint", "Check sources with the formatter and the linter without changing them",
		func(r *tooling.Runner, cmd *cobra.Command, formatter, linter string) error {
			return r.Lint(cmd.Context(), formatter, linter)
		})
}
