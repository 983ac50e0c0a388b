// Package mock provides a func-field implementation of smi.Interface for
// tests. Every call is recorded by method name; a nil func panics the same
// way generated mocks do.
package mock

import (
	"sync"

	"gpu-metrics-reporter/internal/smi"
)

var _ smi.Interface = &Interface{}

// Interface is a configurable smi.Interface.
type Interface struct {
	InitFunc                     func(flags smi.InitFlag) smi.Return
	ShutDownFunc                 func() smi.Return
	GetSocketHandlesFunc         func(buf []smi.SocketHandle) (uint32, smi.Return)
	GetProcessorHandlesFunc      func(socket smi.SocketHandle, buf []smi.ProcessorHandle) (uint32, smi.Return)
	GetAllProcessorHandlesFunc   func(buf []smi.ProcessorHandle) (uint32, smi.Return)
	GetProcessorTypeFunc         func(h smi.ProcessorHandle) (smi.ProcessorType, smi.Return)
	GetGpuDeviceUUIDFunc         func(h smi.ProcessorHandle) (string, smi.Return)
	GetGpuVendorNameFunc         func(h smi.ProcessorHandle) (string, smi.Return)
	GetGpuVirtualizationModeFunc func(h smi.ProcessorHandle) (smi.VirtualizationMode, smi.Return)
	GetGpuMetricsInfoFunc        func(h smi.ProcessorHandle) (smi.GPUMetrics, smi.Return)
	GetGpuKFDInfoFunc            func(h smi.ProcessorHandle) (smi.KFDInfo, smi.Return)

	mu    sync.Mutex
	calls []string
}

// Wrap returns a mock that forwards every call to lib. Tests override single
// funcs afterwards to inject failures.
func Wrap(lib smi.Interface) *Interface {
	return &Interface{
		InitFunc:                     lib.Init,
		ShutDownFunc:                 lib.ShutDown,
		GetSocketHandlesFunc:         lib.GetSocketHandles,
		GetProcessorHandlesFunc:      lib.GetProcessorHandles,
		GetAllProcessorHandlesFunc:   lib.GetAllProcessorHandles,
		GetProcessorTypeFunc:         lib.GetProcessorType,
		GetGpuDeviceUUIDFunc:         lib.GetGpuDeviceUUID,
		GetGpuVendorNameFunc:         lib.GetGpuVendorName,
		GetGpuVirtualizationModeFunc: lib.GetGpuVirtualizationMode,
		GetGpuMetricsInfoFunc:        lib.GetGpuMetricsInfo,
		GetGpuKFDInfoFunc:            lib.GetGpuKFDInfo,
	}
}

func (m *Interface) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// Calls returns the method names invoked so far, in order.
func (m *Interface) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times the named method was invoked.
func (m *Interface) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *Interface) Init(flags smi.InitFlag) smi.Return {
	if m.InitFunc == nil {
		panic("mock.Interface.InitFunc: method is nil but Interface.Init was just called")
	}
	m.record("Init")
	return m.InitFunc(flags)
}

func (m *Interface) ShutDown() smi.Return {
	if m.ShutDownFunc == nil {
		panic("mock.Interface.ShutDownFunc: method is nil but Interface.ShutDown was just called")
	}
	m.record("ShutDown")
	return m.ShutDownFunc()
}

func (m *Interface) GetSocketHandles(buf []smi.SocketHandle) (uint32, smi.Return) {
	if m.GetSocketHandlesFunc == nil {
		panic("mock.Interface.GetSocketHandlesFunc: method is nil but Interface.GetSocketHandles was just called")
	}
	m.record("GetSocketHandles")
	return m.GetSocketHandlesFunc(buf)
}

func (m *Interface) GetProcessorHandles(socket smi.SocketHandle, buf []smi.ProcessorHandle) (uint32, smi.Return) {
	if m.GetProcessorHandlesFunc == nil {
		panic("mock.Interface.GetProcessorHandlesFunc: method is nil but Interface.GetProcessorHandles was just called")
	}
	m.record("GetProcessorHandles")
	return m.GetProcessorHandlesFunc(socket, buf)
}

func (m *Interface) GetAllProcessorHandles(buf []smi.ProcessorHandle) (uint32, smi.Return) {
	if m.GetAllProcessorHandlesFunc == nil {
		panic("mock.Interface.GetAllProcessorHandlesFunc: method is nil but Interface.GetAllProcessorHandles was just called")
	}
	m.record("GetAllProcessorHandles")
	return m.GetAllProcessorHandlesFunc(buf)
}

func (m *Interface) GetProcessorType(h smi.ProcessorHandle) (smi.ProcessorType, smi.Return) {
	if m.GetProcessorTypeFunc == nil {
		panic("mock.Interface.GetProcessorTypeFunc: method is nil but Interface.GetProcessorType was just called")
	}
	m.record("GetProcessorType")
	return m.GetProcessorTypeFunc(h)
}

func (m *Interface) GetGpuDeviceUUID(h smi.ProcessorHandle) (string, smi.Return) {
	if m.GetGpuDeviceUUIDFunc == nil {
		panic("mock.Interface.GetGpuDeviceUUIDFunc: method is nil but Interface.GetGpuDeviceUUID was just called")
	}
	m.record("GetGpuDeviceUUID")
	return m.GetGpuDeviceUUIDFunc(h)
}

func (m *Interface) GetGpuVendorName(h smi.ProcessorHandle) (string, smi.Return) {
	if m.GetGpuVendorNameFunc == nil {
		panic("mock.Interface.GetGpuVendorNameFunc: method is nil but Interface.GetGpuVendorName was just called")
	}
	m.record("GetGpuVendorName")
	return m.GetGpuVendorNameFunc(h)
}

func (m *Interface) GetGpuVirtualizationMode(h smi.ProcessorHandle) (smi.VirtualizationMode, smi.Return) {
	if m.GetGpuVirtualizationModeFunc == nil {
		panic("mock.Interface.GetGpuVirtualizationModeFunc: method is nil but Interface.GetGpuVirtualizationMode was just called")
	}
	m.record("GetGpuVirtualizationMode")
	return m.GetGpuVirtualizationModeFunc(h)
}

func (m *Interface) GetGpuMetricsInfo(h smi.ProcessorHandle) (smi.GPUMetrics, smi.Return) {
	if m.GetGpuMetricsInfoFunc == nil {
		panic("mock.Interface.GetGpuMetricsInfoFunc: method is nil but Interface.GetGpuMetricsInfo was just called")
	}
	m.record("GetGpuMetricsInfo")
	return m.GetGpuMetricsInfoFunc(h)
}

func (m *Interface) GetGpuKFDInfo(h smi.ProcessorHandle) (smi.KFDInfo, smi.Return) {
	if m.GetGpuKFDInfoFunc == nil {
		panic("mock.Interface.GetGpuKFDInfoFunc: method is nil but Interface.GetGpuKFDInfo was just called")
	}
	m.record("GetGpuKFDInfo")
	return m.GetGpuKFDInfoFunc(h)
}
