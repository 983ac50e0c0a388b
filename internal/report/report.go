// Package report reads the per-device counters of discovered GPUs and
// prints the GFX activity report.
//
// Every query is attempted once. Vendor name and virtualization mode
// failures only drop their line. Metrics and partition info failures drop
// the whole device block; with FailFast they end the run instead.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"gpu-metrics-reporter/internal/discovery"
	"gpu-metrics-reporter/internal/errors"
	"gpu-metrics-reporter/internal/logging"
	"gpu-metrics-reporter/internal/smi"
)

// busyInstances is the number of per-instance busy counters printed.
const busyInstances = 4

// Query names used in Summary.Failures and by Recorder.
const (
	QueryVendorName         = "vendor_name"
	QueryVirtualizationMode = "virtualization_mode"
	QueryMetrics            = "metrics"
	QueryKFDInfo            = "kfd_info"
	QueryPartitionRange     = "partition_range"
)

// ErrPartitionOutOfRange is reported when the active partition does not
// index into the metrics partition table.
var ErrPartitionOutOfRange = fmt.Errorf("partition id out of range [0,%d)", smi.MaxNumXcp)

// Recorder receives the values of every reported device and every failed
// query. It is optional.
type Recorder interface {
	ObserveDevice(dev discovery.Device, sample Sample)
	ObserveFailure(dev discovery.Device, query string)
}

// Sample is what a successful device read produced.
type Sample struct {
	Vendor      string
	PartitionID uint32
	Metrics     smi.GPUMetrics
}

// Options configure a Reporter.
type Options struct {
	// Out receives the report, Diag one line per failed device.
	Out  io.Writer
	Diag io.Writer

	Logger   *slog.Logger
	Recorder Recorder

	// VirtualizationMode adds the "Virtualization Mode" line.
	VirtualizationMode bool
	// FailFast ends the run at the first metrics or partition failure.
	FailFast bool
}

// Summary counts what a run did.
type Summary struct {
	Devices  int
	Reported int
	Skipped  int
	Failures map[string]int
}

// Reporter prints the report for a device list.
type Reporter struct {
	lib  smi.Interface
	opts Options
	log  *slog.Logger
}

// New returns a Reporter reading from lib.
func New(lib smi.Interface, opts Options) *Reporter {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Diag == nil {
		opts.Diag = io.Discard
	}
	return &Reporter{lib: lib, opts: opts, log: logging.OrDiscard(opts.Logger)}
}

// Run reports on devices in order. The returned error is non-nil when
// writing the report fails, ctx is cancelled between devices, or FailFast
// is set and a device query fails.
func (r *Reporter) Run(ctx context.Context, devices []discovery.Device) (Summary, error) {
	summary := Summary{Devices: len(devices), Failures: map[string]int{}}

	if _, err := fmt.Fprintf(r.opts.Out, "Found %d GPU device(s)\n", len(devices)); err != nil {
		return summary, fmt.Errorf("write report: %w", err)
	}

	for _, dev := range devices {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		block, err := r.device(dev, &summary)
		if err != nil {
			summary.Skipped++
			fmt.Fprintln(r.opts.Diag, diagnostic(err))
			if r.opts.FailFast {
				return summary, err
			}
			continue
		}

		if _, err := r.opts.Out.Write(block); err != nil {
			return summary, fmt.Errorf("write report: %w", err)
		}
		summary.Reported++
	}
	return summary, nil
}

// device runs the per-device queries and returns the formatted block. The
// block is only written once every required query succeeded, so a failed
// device leaves no partial lines behind.
func (r *Reporter) device(dev discovery.Device, summary *Summary) ([]byte, error) {
	var b bytes.Buffer
	log := r.log.With("device", dev.Index)

	vendor, ret := r.lib.GetGpuVendorName(dev.Handle)
	if ret == smi.SUCCESS {
		fmt.Fprintf(&b, "\nDevice %d: %s\n", dev.Index, vendor)
		if dev.UUID != "" {
			fmt.Fprintf(&b, "UUID: %s\n", dev.UUID)
		}
	} else {
		r.fail(dev, QueryVendorName, summary)
		log.Info("vendor name unavailable", "status", ret.String())
	}

	if r.opts.VirtualizationMode {
		mode, ret := r.lib.GetGpuVirtualizationMode(dev.Handle)
		if ret == smi.SUCCESS {
			fmt.Fprintf(&b, "Virtualization Mode: %d\n", uint32(mode))
		} else {
			r.fail(dev, QueryVirtualizationMode, summary)
			log.Info("virtualization mode unavailable", "status", ret.String())
		}
	}

	metrics, ret := r.lib.GetGpuMetricsInfo(dev.Handle)
	if ret != smi.SUCCESS {
		r.fail(dev, QueryMetrics, summary)
		return nil, errors.Query("get GPU metrics", dev.Index, ret)
	}

	kfd, ret := r.lib.GetGpuKFDInfo(dev.Handle)
	if ret != smi.SUCCESS {
		r.fail(dev, QueryKFDInfo, summary)
		return nil, errors.Query("get partition id", dev.Index, ret)
	}
	pid := kfd.CurrentPartitionID
	if pid >= smi.MaxNumXcp {
		r.fail(dev, QueryPartitionRange, summary)
		return nil, errors.Query("get partition id", dev.Index, fmt.Errorf("%w: %d", ErrPartitionOutOfRange, pid))
	}
	log.Debug("device read", "partition", pid, "gfx_activity", metrics.AverageGfxActivity)

	fmt.Fprintf(&b, "Partition ID: %d\n", pid)
	fmt.Fprintf(&b, "GFX Activity: %d%%\n", metrics.AverageGfxActivity)
	for inst := 0; inst < busyInstances; inst++ {
		fmt.Fprintf(&b, "GFX Busy, Partition %d, Inst %d: %d%%\n", pid, inst, metrics.XcpStats[pid].GfxBusyInst[inst])
	}

	if r.opts.Recorder != nil {
		r.opts.Recorder.ObserveDevice(dev, Sample{Vendor: vendor, PartitionID: pid, Metrics: metrics})
	}
	return b.Bytes(), nil
}

func (r *Reporter) fail(dev discovery.Device, query string, summary *Summary) {
	summary.Failures[query]++
	if r.opts.Recorder != nil {
		r.opts.Recorder.ObserveFailure(dev, query)
	}
}

// diagnostic renders a device failure as "Failed to <op> for device <n>: <cause>".
func diagnostic(err error) string {
	return "Failed to " + err.Error()
}
