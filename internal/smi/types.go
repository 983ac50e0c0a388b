package smi

import "fmt"

// Library limits mirrored from amdsmi.h.
const (
	MaxNumXcp       = 8
	MaxNumXcc       = 8
	GPUUUIDSize     = 38
	MaxStringLength = 256
)

// SocketHandle is an opaque reference to a socket owned by the library.
type SocketHandle uintptr

// ProcessorHandle is an opaque reference to a processor owned by the library.
type ProcessorHandle uintptr

// InitFlag selects the processor families amdsmi_init should manage.
type InitFlag uint64

const (
	InitAllProcessors InitFlag = 0xFFFFFFFF
	InitAMDCPUs       InitFlag = 1 << 0
	InitAMDGPUs       InitFlag = 1 << 1
	InitNonAMDCPUs    InitFlag = 1 << 2
	InitNonAMDGPUs    InitFlag = 1 << 3
	InitAMDAPUs       InitFlag = InitAMDCPUs | InitAMDGPUs
)

// ProcessorType is processor_type_t.
type ProcessorType uint32

const (
	ProcessorTypeUnknown ProcessorType = iota
	ProcessorTypeAMDGPU
	ProcessorTypeAMDCPU
	ProcessorTypeNonAMDGPU
	ProcessorTypeNonAMDCPU
	ProcessorTypeAMDCPUCore
	ProcessorTypeAMDAPU
)

var processorTypeNames = []string{
	"unknown",
	"amd_gpu",
	"amd_cpu",
	"non_amd_gpu",
	"non_amd_cpu",
	"amd_cpu_core",
	"amd_apu",
}

func (t ProcessorType) String() string {
	if int(t) < len(processorTypeNames) {
		return processorTypeNames[t]
	}
	return fmt.Sprintf("ProcessorType(%d)", uint32(t))
}

// ParseProcessorType accepts the names returned by String.
func ParseProcessorType(name string) (ProcessorType, error) {
	for i, n := range processorTypeNames {
		if n == name {
			return ProcessorType(i), nil
		}
	}
	return ProcessorTypeUnknown, fmt.Errorf("unknown processor type %q", name)
}

// VirtualizationMode is amdsmi_virtualization_mode_t.
type VirtualizationMode uint32

const (
	VirtualizationModeUnknown VirtualizationMode = iota
	VirtualizationModeBaremetal
	VirtualizationModeHost
	VirtualizationModeGuest
	VirtualizationModePassthrough
)

func (m VirtualizationMode) String() string {
	switch m {
	case VirtualizationModeBaremetal:
		return "baremetal"
	case VirtualizationModeHost:
		return "host"
	case VirtualizationModeGuest:
		return "guest"
	case VirtualizationModePassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// XcpStats holds the per-partition counters of the metrics table.
type XcpStats struct {
	GfxBusyInst [MaxNumXcc]uint32
}

// GPUMetrics is the subset of amdsmi_gpu_metrics_t this tool reads.
type GPUMetrics struct {
	TemperatureHotspot uint16
	AverageGfxActivity uint16
	AverageUmcActivity uint16
	AverageSocketPower uint16
	XcpStats           [MaxNumXcp]XcpStats
}

// KFDInfo is amdsmi_kfd_info_t.
type KFDInfo struct {
	KfdID              uint64
	NodeID             uint32
	CurrentPartitionID uint32
}
