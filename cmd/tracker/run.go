package main

import (
	"os"
	"os/signal"
	"period-tracker/internal"
	"period-tracker/registry"
	"period-tracker/runtime"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func runCmd(apps *registry.Registry) *cobra.Command {
	var (
		app      string
		host     string
		port     int
		reload   bool
		noReload bool
		dirs     []string
		include  []string
		exclude  []string
		build    string
	)

	c := &cobra.Command{
		Use:   "run",
		Short: "Serve the application, restarting it when sources change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := internal.Load()
			if err != nil {
				return err
			}

			// Flags only override what the operator actually passed
			flags := cmd.Flags()
			if flags.Changed("app") {
				config.App = app
			}
			if flags.Changed("host") {
				config.Host = host
			}
			if flags.Changed("port") {
				config.Port = port
			}
			if flags.Changed("reload") {
				config.Reload = reload
			}
			if flags.Changed("no-reload") && noReload {
				config.Reload = false
			}
			if flags.Changed("reload-dir") {
				config.ReloadDirs = strings.Join(dirs, ",")
			}
			if flags.Changed("reload-include") {
				config.ReloadInclude = strings.Join(include, ",")
			}
			if flags.Changed("reload-exclude") {
				config.ReloadExclude = strings.Join(exclude, ",")
			}
			if flags.Changed("reload-build") {
				config.ReloadBuild = build
			}
			if err := config.Validate(); err != nil {
				return err
			}

			hostConfig, err := config.HostConfig()
			if err != nil {
				return err
			}
			gin.SetMode(config.GinMode)
			logger := config.Logger()

			// NotifyContext cancels the context on the termination signal to trigger a shutdown.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runtime.NewHost(logger, apps, hostConfig).Start(ctx); err != nil {
				return err
			}
			logger.Info("Program stopped cleanly")
			return nil
		},
	}

	c.Flags().StringVar(&app, "app", internal.DefaultApp, "Application reference <module>:<attribute>")
	c.Flags().StringVar(&host, "host", "0.0.0.0", "Interface to bind")
	c.Flags().IntVar(&port, "port", 8000, "Port to bind")
	c.Flags().BoolVar(&reload, "reload", true, "Restart the worker when source files change")
	c.Flags().BoolVar(&noReload, "no-reload", false, "Serve in-process without watching files")
	c.Flags().StringArrayVar(&dirs, "reload-dir", nil, "Directory to watch (repeatable)")
	c.Flags().StringSliceVar(&include, "reload-include", nil, "Glob of files triggering a reload")
	c.Flags().StringSliceVar(&exclude, "reload-exclude", nil, "Directory name never watched")
	c.Flags().StringVar(&build, "reload-build", internal.DefaultReloadBuild, `Command building the worker before a reload, "none" to re-exec the running binary`)
	return c
}
