package discovery

import (
	"log/slog"

	"gpu-metrics-reporter/internal/errors"
	"gpu-metrics-reporter/internal/logging"
	"gpu-metrics-reporter/internal/smi"
)

// Hierarchical enumerates sockets, then the processors of each socket, and
// keeps the ones whose type is AMD GPU.
type Hierarchical struct {
	Limits      Limits
	ResolveUUID bool
	Logger      *slog.Logger
}

func (h *Hierarchical) Name() string { return StrategyHierarchical }

func (h *Hierarchical) Enumerate(lib smi.Interface) ([]Device, error) {
	limits := h.Limits.withDefaults()
	log := logging.OrDiscard(h.Logger)

	sockets, ret, err := countThenFill(lib.GetSocketHandles, limits.MaxSockets, ErrTooManySockets)
	if err != nil {
		return nil, errors.Discovery("discover GPUs", err)
	}
	if ret != smi.SUCCESS {
		return nil, statusError("get socket handles", ret)
	}
	log.Debug("sockets enumerated", "count", len(sockets))

	var devices []Device
	for s, socket := range sockets {
		query := func(buf []smi.ProcessorHandle) (uint32, smi.Return) {
			return lib.GetProcessorHandles(socket, buf)
		}
		procs, ret, err := countThenFill(query, limits.MaxDevices, ErrTooManyDevices)
		if err != nil {
			return nil, errors.Discovery("discover GPUs", err)
		}
		if ret != smi.SUCCESS {
			return nil, statusError("get processor handles", ret)
		}
		log.Debug("processors enumerated", "socket", s, "count", len(procs))

		for _, proc := range procs {
			procType, ret := lib.GetProcessorType(proc)
			if ret != smi.SUCCESS {
				return nil, statusError("get processor type", ret)
			}
			if procType != smi.ProcessorTypeAMDGPU {
				continue
			}
			if len(devices) == limits.MaxDevices {
				return nil, errors.Discovery("discover GPUs", ErrTooManyDevices)
			}
			dev := Device{Index: len(devices), Handle: proc}
			if h.ResolveUUID {
				uuid, ret := lib.GetGpuDeviceUUID(proc)
				if ret != smi.SUCCESS {
					return nil, statusError("get GPU uuid", ret)
				}
				dev.UUID = uuid
			}
			devices = append(devices, dev)
		}
	}
	return devices, nil
}
