//go:build !(linux && cgo && amdsmi)

package smi

// New returns a library whose calls all fail with ERROR_FAIL_LOAD_MODULE.
// Build with -tags amdsmi on linux with cgo enabled to get the real binding.
func New(opts ...Option) Interface {
	o := newOptions(opts)
	return unavailable{path: o.path}
}

type unavailable struct {
	path string
}

func (unavailable) Init(InitFlag) Return { return ERROR_FAIL_LOAD_MODULE }
func (unavailable) ShutDown() Return     { return ERROR_NOT_INIT }

func (unavailable) GetSocketHandles([]SocketHandle) (uint32, Return) {
	return 0, ERROR_NOT_INIT
}

func (unavailable) GetProcessorHandles(SocketHandle, []ProcessorHandle) (uint32, Return) {
	return 0, ERROR_NOT_INIT
}

func (unavailable) GetAllProcessorHandles([]ProcessorHandle) (uint32, Return) {
	return 0, ERROR_NOT_INIT
}

func (unavailable) GetProcessorType(ProcessorHandle) (ProcessorType, Return) {
	return ProcessorTypeUnknown, ERROR_NOT_INIT
}

func (unavailable) GetGpuDeviceUUID(ProcessorHandle) (string, Return) {
	return "", ERROR_NOT_INIT
}

func (unavailable) GetGpuVendorName(ProcessorHandle) (string, Return) {
	return "", ERROR_NOT_INIT
}

func (unavailable) GetGpuVirtualizationMode(ProcessorHandle) (VirtualizationMode, Return) {
	return VirtualizationModeUnknown, ERROR_NOT_INIT
}

func (unavailable) GetGpuMetricsInfo(ProcessorHandle) (GPUMetrics, Return) {
	return GPUMetrics{}, ERROR_NOT_INIT
}

func (unavailable) GetGpuKFDInfo(ProcessorHandle) (KFDInfo, Return) {
	return KFDInfo{}, ERROR_NOT_INIT
}
