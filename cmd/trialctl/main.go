// Command trialctl reconciles the trial start across the configured sources
// and reports or overrides it.
//
// Usage:
//
//	trialctl [-config file] [-data-dir dir] [-metrics-file file] status
//	trialctl [-config file] [-data-dir dir] [-metrics-file file] override -at 2024-01-10T09:00:00Z
//	trialctl version
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trialguard/internal/app"
	"trialguard/internal/config"
	"trialguard/internal/infrastructure"
	"trialguard/pkg/contracts"
	"trialguard/pkg/contracts/domain"
)

const (
	exitOK = iota
	exitError
	exitUsage
)

var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one trialctl invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("trialctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "YAML configuration file")
	dataDir := fs.String("data-dir", "", "base directory for data and logs (defaults to the executable directory)")
	metricsFile := fs.String("metrics-file", "", "write Prometheus metrics to this file on exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: trialctl [flags] status | override -at RFC3339 | version")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}
	if fs.Arg(0) == "version" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(contracts.GetVersionInfo()); err != nil {
			return exitError
		}
		return exitOK
	}

	var (
		paths *config.Paths
		err   error
	)
	if *dataDir != "" {
		paths = config.NewPaths(*dataDir)
	} else if paths, err = config.GetPaths(); err != nil {
		fmt.Fprintf(stderr, "failed to resolve paths: %v\n", err)
		return exitError
	}

	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(stderr, "failed to create required directories: %v\n", err)
		return exitError
	}

	cfg, err := config.LoadWithPaths(*configFile, paths)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitError
	}
	if *metricsFile != "" {
		cfg.Telemetry.MetricsFile = *metricsFile
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitError
	}
	defer infrastructure.CloseLogFile()
	paths.LogPathResolution(logger)

	ctx = infrastructure.EnsureTraceID(ctx)
	logger.DebugContext(ctx, "Starting trialctl",
		slog.String("version", contracts.Version),
		slog.String("command", fs.Arg(0)))

	if err := execute(ctx, cfg, logger, fs.Arg(0), fs.Args()[1:], stdout, stderr); err != nil {
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		logger.ErrorContext(ctx, "Command failed",
			slog.String("command", fs.Arg(0)),
			slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "%s: %v\n", fs.Arg(0), err)
		return exitError
	}
	return exitOK
}

func execute(ctx context.Context, cfg *config.Config, logger *slog.Logger, command string, args []string, stdout, stderr io.Writer) (err error) {
	var at time.Time

	switch command {
	case "status":
		if len(args) > 0 {
			fmt.Fprintf(stderr, "status takes no arguments, got %q\n", args)
			return errUsage
		}
	case "override":
		fs := flag.NewFlagSet("override", flag.ContinueOnError)
		fs.SetOutput(stderr)
		atFlag := fs.String("at", "", "new trial start (RFC3339)")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if *atFlag == "" {
			fmt.Fprintln(stderr, "override requires -at")
			return errUsage
		}
		if at, err = time.Parse(time.RFC3339, *atFlag); err != nil {
			fmt.Fprintf(stderr, "invalid -at value %q: %v\n", *atFlag, err)
			return errUsage
		}
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		return errUsage
	}

	application, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Backup.Timeout+5*time.Second)
		defer cancel()
		if closeErr := application.Close(closeCtx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	status := application.Status()
	if command == "override" {
		status = application.Override(ctx, at)
	}

	return writeStatus(stdout, status)
}

// statusOutput is the JSON document printed on stdout.
type statusOutput struct {
	State string `json:"state"`
	domain.TrialStatus
}

func writeStatus(w io.Writer, status domain.TrialStatus) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(statusOutput{State: string(status.State()), TrialStatus: status})
}
