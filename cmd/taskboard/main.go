// Command taskboard runs an interactive task tracking session in the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vinayprograms/taskboard/config"
	"github.com/vinayprograms/taskboard/logging"
	"github.com/vinayprograms/taskboard/session"
	"github.com/vinayprograms/taskboard/telemetry"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:   "taskboard",
		Short: "Taskboard - track tasks for one terminal session",
		Long: `Taskboard keeps a list of tasks in memory for the lifetime of the session.

Add tasks, move them between pending, in-progress and completed, and view
statistics or export a report. Pending tasks trigger a periodic reminder.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, configPath, verbose)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to taskboard.toml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskboard %s\n", Version)
		},
	}
}

func run(cmd *cobra.Command, configPath string, verbose bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(cfg.LogLevel())
	if verbose {
		logger.SetLevel(logging.LevelDebug)
	}
	if cfg.Source != "" {
		logger.Debug("config_loaded", map[string]interface{}{"path": cfg.Source})
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var (
		opts     []session.Option
		provider *telemetry.Provider
	)
	if cfg.Telemetry.Enabled {
		provider, err = telemetry.InitProvider(ctx, cfg.Telemetry.ProviderConfig(Version))
		if err != nil {
			return err
		}
		logger.Debug("telemetry_enabled", map[string]interface{}{
			"protocol": cfg.Telemetry.Protocol,
			"endpoint": cfg.Telemetry.Endpoint,
		})
		opts = append(opts, session.WithTelemetry(provider))
	}

	sess, err := session.New(cfg, logger, opts...)
	if err != nil {
		if provider != nil {
			provider.Shutdown(context.Background())
		}
		return err
	}
	sess.HandleSignals()

	if err := sess.Start(ctx); err != nil {
		return err
	}

	console := newConsole(sess, cmd.InOrStdin(), cmd.OutOrStdout())
	runErr := console.Run(ctx)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := sess.Close(closeCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
