package discovery

import (
	"log/slog"

	"gpu-metrics-reporter/internal/errors"
	"gpu-metrics-reporter/internal/logging"
	"gpu-metrics-reporter/internal/smi"
)

// Flat takes every processor handle from the library's flat enumeration
// entry point, without socket walking or type filtering.
type Flat struct {
	Limits Limits
	Logger *slog.Logger
}

func (f *Flat) Name() string { return StrategyFlat }

func (f *Flat) Enumerate(lib smi.Interface) ([]Device, error) {
	limits := f.Limits.withDefaults()
	log := logging.OrDiscard(f.Logger)

	procs, ret, err := countThenFill(lib.GetAllProcessorHandles, limits.MaxDevices, ErrTooManyDevices)
	if err != nil {
		return nil, errors.Discovery("discover GPUs", err)
	}
	if ret != smi.SUCCESS {
		return nil, statusError("get processor handles", ret)
	}
	log.Debug("processors enumerated", "count", len(procs))

	devices := make([]Device, 0, len(procs))
	for i, proc := range procs {
		devices = append(devices, Device{Index: i, Handle: proc})
	}
	return devices, nil
}
