package main

import (
	"fmt"
	"period-tracker/api"
	"period-tracker/registry"

	"github.com/spf13/cobra"
)

var errUsage = fmt.Errorf("usage error")

// newRegistry lists every application the host can serve.
func newRegistry() *registry.Registry {
	return registry.New().
		MustRegister("app.main", "app", api.NewRouter)
}

func newRootCmd(apps *registry.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Development host for the SimplePeriodTracker API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})
	cmd.AddCommand(
		runCmd(apps),
		formatCmd(),
		lintCmd(),
		appsCmd(apps),
	)
	return cmd
}
