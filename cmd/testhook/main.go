// Command testhook suggests data-testid values for interactive elements
// that do not have one yet.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"testhook/internal/config"
	"testhook/internal/logging"
	"testhook/internal/parse"
	"testhook/internal/scan"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK       = 0
	exitFindings = 1
	exitUsage    = 2
	exitRuntime  = 3
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error   { return &exitError{code: exitUsage, err: err} }
func runtimeError(err error) error { return &exitError{code: exitRuntime, err: err} }

// exitCode maps an Execute error to a process exit code. Untyped errors
// come from cobra's own flag and argument checks.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}

// app holds global flags and the state prepared before every command.
type app struct {
	// Global flags
	configPath   string
	verbose      bool
	logJSON      bool
	marker       string
	ordinalScope string

	root   string // workspace root
	cfg    *config.Config
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "testhook",
		Short: "Suggest data-testid hooks for interactive UI elements",
		Long: `testhook scans JSX, TSX and HTML files for buttons, links, inputs, selects,
textareas and role="button" elements that have no data-testid, and proposes a
deterministic identifier for each one.

Run it locally with "testhook scan", or in CI with "testhook pr" to keep a
single summary comment up to date on the pull request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Config file (default: .testhook.yaml in the workspace root)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	pf.BoolVar(&a.logJSON, "log-json", false, "Log as JSON")
	pf.StringVar(&a.marker, "marker", "", "Test-hook attribute (default: data-testid)")
	pf.StringVar(&a.ordinalScope, "ordinal-scope", "", "Ordinal scope: run or file")

	rootCmd.AddCommand(
		newScanCmd(a),
		newPRCmd(a),
		newWatchCmd(a),
		newSlugCmd(a),
		newInitCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// setup resolves configuration (file, .env, environment, flags) and
// builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	root, err := config.FindWorkspaceRoot(".")
	if err != nil {
		return runtimeError(err)
	}
	a.root = root
	if err := config.LoadDotEnv(filepath.Join(root, ".env")); err != nil {
		return usageError(err)
	}

	path := a.configPath
	if path == "" {
		path = a.defaultConfigPath()
	} else if _, err := os.Stat(path); err != nil && cmd.Name() != "init" {
		return usageError(fmt.Errorf("config file: %w", err))
	}
	cfg, err := config.Load(path)
	if err != nil {
		return usageError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("marker") {
		cfg.Marker = a.marker
	}
	if flags.Changed("ordinal-scope") {
		cfg.OrdinalScope = a.ordinalScope
	}
	if a.logJSON {
		cfg.Logging.Format = "json"
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: a.verbose,
	})
	if err != nil {
		return usageError(err)
	}
	a.logger = logger
	logging.Named(logger, logging.CategoryBoot).Debug("configuration loaded",
		zap.String("path", path),
		zap.String("marker", cfg.Marker),
		zap.String("ordinal_scope", cfg.OrdinalScope))
	return nil
}

// defaultConfigPath is where the config is read from and where init
// writes it when --config is not given.
func (a *app) defaultConfigPath() string {
	return filepath.Join(a.root, config.FileName)
}

func (a *app) factory() *parse.Factory {
	return parse.DefaultFactory(a.cfg.Scan.MaxFileSize, a.logger)
}

func (a *app) scanner(factory *parse.Factory) *scan.Scanner {
	return scan.New(factory, a.cfg.ScanOptions(), a.logger)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil && code != exitFindings {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return code
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
