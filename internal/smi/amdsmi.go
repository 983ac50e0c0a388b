//go:build linux && cgo && amdsmi

package smi

/*
#cgo CFLAGS: -I/opt/rocm/include
#cgo LDFLAGS: -Wl,--export-dynamic -Wl,--unresolved-symbols=ignore-in-object-files
#include <stdint.h>
#include <amd_smi/amdsmi.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/NVIDIA/go-nvml/pkg/dl"
)

// Symbols resolved when the shared object is opened. The amdsmi_* calls
// below are left unresolved at link time and bind to these at runtime.
var requiredSymbols = []string{
	"amdsmi_init",
	"amdsmi_shut_down",
	"amdsmi_get_socket_handles",
	"amdsmi_get_processor_handles",
	"amdsmi_get_processor_type",
	"amdsmi_get_gpu_device_uuid",
	"amdsmi_get_gpu_vendor_name",
	"amdsmi_get_gpu_virtualization_mode",
	"amdsmi_get_gpu_metrics_info",
	"amdsmi_get_gpu_kfd_info",
}

type library struct {
	mu   sync.Mutex
	path string
	lib  *dl.DynamicLibrary
}

// New returns the cgo binding to libamd_smi.
func New(opts ...Option) Interface {
	o := newOptions(opts)
	return &library{path: o.path}
}

func (l *library) load() Return {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lib != nil {
		return SUCCESS
	}
	lib := dl.New(l.path, dl.RTLD_LAZY|dl.RTLD_GLOBAL)
	if err := lib.Open(); err != nil {
		return ERROR_FAIL_LOAD_MODULE
	}
	for _, symbol := range requiredSymbols {
		if err := lib.Lookup(symbol); err != nil {
			_ = lib.Close()
			return ERROR_FAIL_LOAD_SYMBOL
		}
	}
	l.lib = lib
	return SUCCESS
}

func (l *library) unload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lib == nil {
		return
	}
	_ = l.lib.Close()
	l.lib = nil
}

func (l *library) loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lib != nil
}

func (l *library) Init(flags InitFlag) Return {
	if ret := l.load(); ret != SUCCESS {
		return ret
	}
	ret := Return(C.amdsmi_init(C.uint64_t(flags)))
	if ret != SUCCESS {
		l.unload()
	}
	return ret
}

func (l *library) ShutDown() Return {
	if !l.loaded() {
		return ERROR_NOT_INIT
	}
	ret := Return(C.amdsmi_shut_down())
	l.unload()
	return ret
}

func (l *library) GetSocketHandles(buf []SocketHandle) (uint32, Return) {
	if !l.loaded() {
		return 0, ERROR_NOT_INIT
	}
	var count C.uint32_t
	if len(buf) == 0 {
		ret := Return(C.amdsmi_get_socket_handles(&count, nil))
		return uint32(count), ret
	}
	handles := make([]C.amdsmi_socket_handle, len(buf))
	count = C.uint32_t(len(buf))
	ret := Return(C.amdsmi_get_socket_handles(&count, &handles[0]))
	if ret != SUCCESS {
		return 0, ret
	}
	n := min(int(count), len(buf))
	for i := 0; i < n; i++ {
		buf[i] = SocketHandle(uintptr(handles[i]))
	}
	return uint32(n), ret
}

func (l *library) GetProcessorHandles(socket SocketHandle, buf []ProcessorHandle) (uint32, Return) {
	if !l.loaded() {
		return 0, ERROR_NOT_INIT
	}
	s := C.amdsmi_socket_handle(unsafe.Pointer(socket))
	var count C.uint32_t
	if len(buf) == 0 {
		ret := Return(C.amdsmi_get_processor_handles(s, &count, nil))
		return uint32(count), ret
	}
	handles := make([]C.amdsmi_processor_handle, len(buf))
	count = C.uint32_t(len(buf))
	ret := Return(C.amdsmi_get_processor_handles(s, &count, &handles[0]))
	if ret != SUCCESS {
		return 0, ret
	}
	n := min(int(count), len(buf))
	for i := 0; i < n; i++ {
		buf[i] = ProcessorHandle(uintptr(handles[i]))
	}
	return uint32(n), ret
}

// GetAllProcessorHandles flattens the socket topology inside the binding so
// callers see a single count-then-fill entry point.
func (l *library) GetAllProcessorHandles(buf []ProcessorHandle) (uint32, Return) {
	socketCount, ret := l.GetSocketHandles(nil)
	if ret != SUCCESS {
		return 0, ret
	}
	if socketCount == 0 {
		return 0, SUCCESS
	}
	sockets := make([]SocketHandle, socketCount)
	socketCount, ret = l.GetSocketHandles(sockets)
	if ret != SUCCESS {
		return 0, ret
	}

	var all []ProcessorHandle
	for _, socket := range sockets[:socketCount] {
		n, ret := l.GetProcessorHandles(socket, nil)
		if ret != SUCCESS {
			return 0, ret
		}
		if n == 0 {
			continue
		}
		procs := make([]ProcessorHandle, n)
		n, ret = l.GetProcessorHandles(socket, procs)
		if ret != SUCCESS {
			return 0, ret
		}
		all = append(all, procs[:n]...)
	}
	if buf == nil {
		return uint32(len(all)), SUCCESS
	}
	return uint32(copy(buf, all)), SUCCESS
}

func processor(h ProcessorHandle) C.amdsmi_processor_handle {
	return C.amdsmi_processor_handle(unsafe.Pointer(h))
}

func (l *library) GetProcessorType(h ProcessorHandle) (ProcessorType, Return) {
	var t C.processor_type_t
	ret := Return(C.amdsmi_get_processor_type(processor(h), &t))
	return ProcessorType(t), ret
}

func (l *library) GetGpuDeviceUUID(h ProcessorHandle) (string, Return) {
	var uuid [GPUUUIDSize]C.char
	length := C.uint(len(uuid))
	ret := Return(C.amdsmi_get_gpu_device_uuid(processor(h), &length, &uuid[0]))
	if ret != SUCCESS {
		return "", ret
	}
	return C.GoString(&uuid[0]), ret
}

func (l *library) GetGpuVendorName(h ProcessorHandle) (string, Return) {
	var name [MaxStringLength]C.char
	ret := Return(C.amdsmi_get_gpu_vendor_name(processor(h), &name[0], C.size_t(len(name))))
	if ret != SUCCESS {
		return "", ret
	}
	return C.GoString(&name[0]), ret
}

func (l *library) GetGpuVirtualizationMode(h ProcessorHandle) (VirtualizationMode, Return) {
	var mode C.amdsmi_virtualization_mode_t
	ret := Return(C.amdsmi_get_gpu_virtualization_mode(processor(h), &mode))
	return VirtualizationMode(mode), ret
}

func (l *library) GetGpuMetricsInfo(h ProcessorHandle) (GPUMetrics, Return) {
	var info C.amdsmi_gpu_metrics_t
	ret := Return(C.amdsmi_get_gpu_metrics_info(processor(h), &info))
	if ret != SUCCESS {
		return GPUMetrics{}, ret
	}
	metrics := GPUMetrics{
		TemperatureHotspot: uint16(info.temperature_hotspot),
		AverageGfxActivity: uint16(info.average_gfx_activity),
		AverageUmcActivity: uint16(info.average_umc_activity),
		AverageSocketPower: uint16(info.average_socket_power),
	}
	for p := 0; p < MaxNumXcp; p++ {
		for i := 0; i < MaxNumXcc; i++ {
			metrics.XcpStats[p].GfxBusyInst[i] = uint32(info.xcp_stats[p].gfx_busy_inst[i])
		}
	}
	return metrics, ret
}

func (l *library) GetGpuKFDInfo(h ProcessorHandle) (KFDInfo, Return) {
	var info C.amdsmi_kfd_info_t
	ret := Return(C.amdsmi_get_gpu_kfd_info(processor(h), &info))
	if ret != SUCCESS {
		return KFDInfo{}, ret
	}
	return KFDInfo{
		KfdID:              uint64(info.kfd_id),
		NodeID:             uint32(info.node_id),
		CurrentPartitionID: uint32(info.current_partition_id),
	}, ret
}
