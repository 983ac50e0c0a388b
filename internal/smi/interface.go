package smi

// Interface is the part of the amdsmi API consumed by this module.
//
// Enumeration calls follow the library's count-then-fill convention: a nil
// buffer asks for the number of entries, a non-nil buffer is filled with at
// most len(buf) entries and the number written is returned.
type Interface interface {
	Init(flags InitFlag) Return
	ShutDown() Return

	GetSocketHandles(buf []SocketHandle) (uint32, Return)
	GetProcessorHandles(socket SocketHandle, buf []ProcessorHandle) (uint32, Return)
	GetAllProcessorHandles(buf []ProcessorHandle) (uint32, Return)
	GetProcessorType(processor ProcessorHandle) (ProcessorType, Return)

	GetGpuDeviceUUID(processor ProcessorHandle) (string, Return)
	GetGpuVendorName(processor ProcessorHandle) (string, Return)
	GetGpuVirtualizationMode(processor ProcessorHandle) (VirtualizationMode, Return)
	GetGpuMetricsInfo(processor ProcessorHandle) (GPUMetrics, Return)
	GetGpuKFDInfo(processor ProcessorHandle) (KFDInfo, Return)
}

// DefaultLibraryPath is the shared object name resolved by the dynamic loader.
const DefaultLibraryPath = "libamd_smi.so"

type options struct {
	path string
}

// Option configures the library returned by New.
type Option func(*options)

// WithLibraryPath overrides the shared object loaded by Init.
func WithLibraryPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

func newOptions(opts []Option) options {
	o := options{path: DefaultLibraryPath}
	for _, opt := range opts {
		opt(&o)
	}
	if o.path == "" {
		o.path = DefaultLibraryPath
	}
	return o
}
