// Package agent wires one reporter run: open the library session, discover
// devices, report them, and shut the session down on every path.
package agent

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"

	"gpu-metrics-reporter/internal/config"
	"gpu-metrics-reporter/internal/discovery"
	"gpu-metrics-reporter/internal/errors"
	"gpu-metrics-reporter/internal/fixture"
	"gpu-metrics-reporter/internal/logging"
	"gpu-metrics-reporter/internal/metrics"
	"gpu-metrics-reporter/internal/report"
	"gpu-metrics-reporter/internal/session"
	"gpu-metrics-reporter/internal/smi"
)

type Options struct {
	Config config.Config
	Logger *slog.Logger

	Stdout io.Writer
	Stderr io.Writer

	// Library replaces the backend selected by Config.Library.
	Library smi.Interface
}

type Agent struct {
	cfg    config.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
	lib    smi.Interface
}

func New(opts Options) *Agent {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return &Agent{
		cfg:    opts.Config,
		log:    logging.OrDiscard(opts.Logger),
		stdout: stdout,
		stderr: stderr,
		lib:    opts.Library,
	}
}

func (a *Agent) library() (smi.Interface, error) {
	if a.lib != nil {
		return a.lib, nil
	}
	switch a.cfg.Library {
	case config.LibraryFixture:
		lib, err := fixture.Open(a.cfg.FixturePath)
		if err != nil {
			return nil, errors.Config("load fixture", err)
		}
		return lib, nil
	default:
		return smi.New(smi.WithLibraryPath(a.cfg.LibraryPath)), nil
	}
}

// Run performs one report. The returned error carries the exit code via
// errors.ExitCode.
func (a *Agent) Run(ctx context.Context) (err error) {
	enum, err := discovery.New(a.cfg.Enumeration, discovery.Limits{
		MaxSockets: a.cfg.MaxSockets,
		MaxDevices: a.cfg.MaxDevices,
	}, a.cfg.ShowUUID, a.log)
	if err != nil {
		return errors.Config("select enumeration", err)
	}

	lib, err := a.library()
	if err != nil {
		return err
	}
	a.log.Debug("library selected", "library", a.cfg.Library, "enumeration", enum.Name())

	sess, err := session.Open(lib, smi.InitAMDGPUs, a.log)
	if err != nil {
		var initErr *session.InitError
		if stderrors.As(err, &initErr) {
			fmt.Fprintf(a.stderr, "Failed to initialize AMDSMI library (status=%d)\n", uint32(initErr.Status))
		} else {
			fmt.Fprintf(a.stderr, "Failed to initialize AMDSMI library: %v\n", err)
		}
		fmt.Fprintln(a.stderr, session.PrivilegeHint)
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			a.log.Warn("session close failed", "error", cerr.Error())
		}
	}()

	devices, err := enum.Enumerate(sess.Library())
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to %v\n", err)
		return err
	}
	a.log.Info("devices discovered", "count", len(devices), "enumeration", enum.Name())

	var m *metrics.Metrics
	opts := report.Options{
		Out:                a.stdout,
		Diag:               a.stderr,
		Logger:             a.log,
		VirtualizationMode: a.cfg.VirtualizationMode(),
		FailFast:           a.cfg.FailFast,
	}
	if a.cfg.TextfilePath != "" {
		m = metrics.NewMetrics()
		opts.Recorder = m
	}

	summary, err := report.New(sess.Library(), opts).Run(ctx, devices)
	a.log.Info("report finished",
		"devices", summary.Devices,
		"reported", summary.Reported,
		"skipped", summary.Skipped)

	if m != nil {
		m.ObserveSummary(summary)
		if werr := m.WriteTextfile(a.cfg.TextfilePath); werr != nil {
			a.log.Error("textfile write failed", "path", a.cfg.TextfilePath, "error", werr.Error())
			if err == nil {
				err = fmt.Errorf("write textfile: %w", werr)
			}
		}
	}
	return err
}
