package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/reactor/internal/app"
	"github.com/dshills/reactor/internal/config"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	configPath string
	logLevel   string
	script     string
	headless   bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reactor",
		Short: "Region composition and navigation with a scriptable event bridge",
		Long: `Reactor composes named screen regions, navigates views into them by
locator and bridges typed events between Go and a Lua script runtime.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runApp(ctx, opts, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVarP(&opts.script, "script", "s", "", "Lua script to load")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "run without drawing to the terminal")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reactor %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}

// loadConfig reads the config file and applies the flag overrides.
func loadConfig(opts runOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.script != "" {
		cfg.Script.Path = opts.script
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runApp(ctx context.Context, opts runOptions, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	appOpts := app.Options{Config: cfg, LogOutput: stderr}
	if !opts.headless {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("create terminal: %w", err)
		}
		appOpts.Screen = screen
		// Records written to the terminal would corrupt the display.
		if cfg.Log.File == "" {
			appOpts.LogOutput = io.Discard
		}
	}

	application, err := app.New(ctx, appOpts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := application.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", cerr)
		}
	}()

	return application.Run(ctx)
}
