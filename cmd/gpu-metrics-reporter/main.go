package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"gpu-metrics-reporter/internal/agent"
	"gpu-metrics-reporter/internal/config"
	"gpu-metrics-reporter/internal/errors"
	"gpu-metrics-reporter/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, fs, err := config.Load(os.Args[1:], os.Stderr)
	if stderrors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stdout, "Usage: %s [flags]\n\nReport AMD GPU utilization through the AMD SMI library.\n\nFlags:\n", fs.Name())
		fs.SetOutput(os.Stdout)
		fs.PrintDefaults()
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger, err := logging.New(os.Stderr, level, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Debug("gpu-metrics-reporter starting",
		"library", cfg.Library,
		"enumeration", cfg.Enumeration,
		"fail_fast", cfg.FailFast)

	err = agent.New(agent.Options{
		Config: cfg,
		Logger: logger,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}).Run(ctx)
	if err != nil {
		logger.Debug("gpu-metrics-reporter exited with error", "error", err.Error())
	}
	return errors.ExitCode(err)
}
