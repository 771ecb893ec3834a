package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/grappling-events/internal/config"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	// ExitPartial reports a run in which at least one source failed.
	ExitPartial = 3
)

// exitCodeError ends a command with a specific status and no error message.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// globalOptions holds the flags shared by every command.
type globalOptions struct {
	configPath string
	dataDir    string
	driver     string
	logLevel   string
	verbose    bool
}

// load reads the configuration and applies flag overrides.
func (o *globalOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	if o.driver != "" {
		cfg.Store.Driver = o.driver
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "grappling-events",
		Short: "Aggregate grappling competitions from federation websites",
		Long: `A CLI tool that scrapes upcoming BJJ and submission grappling competitions
from IBJJF, JJWL, AGF, NAGA and ADCC, geocodes their locations and keeps a
deduplicated store of upcoming events.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default "+config.DefaultConfigPath+" if present)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Data directory for the store and run lock")
	flags.StringVar(&opts.driver, "store", "", "Store driver: sqlite, postgres or json")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(
		newRunCmd(opts),
		newSourcesCmd(opts),
		newStatsCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

// Main runs the CLI with args and returns the process exit status.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)

	var exitErr *exitCodeError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.code
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Main(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
