package fixture

import (
	"sync"

	"gpu-metrics-reporter/internal/smi"
)

const (
	socketHandleBase    = 0x1000
	processorHandleBase = 0x2000
)

type processorRef struct {
	socket int
	index  int
}

// Library serves a Host through smi.Interface. Handles are assigned in
// file order and stay valid for the lifetime of the Library.
type Library struct {
	host *Host

	mu          sync.Mutex
	initialized bool
	processors  []processorRef
}

var _ smi.Interface = (*Library)(nil)

// New returns a Library for host.
func New(host *Host) *Library {
	l := &Library{host: host}
	for s, socket := range host.Sockets {
		for p := range socket.Processors {
			l.processors = append(l.processors, processorRef{socket: s, index: p})
		}
	}
	return l
}

// Open loads a host file and returns a Library serving it.
func Open(path string) (*Library, error) {
	host, err := Load(path)
	if err != nil {
		return nil, err
	}
	return New(host), nil
}

func failure(failures map[string]string, query string) smi.Return {
	status, ok := failures[query]
	if !ok {
		return smi.SUCCESS
	}
	ret, err := smi.ParseReturn(status)
	if err != nil {
		return smi.ERROR_UNKNOWN
	}
	return ret
}

func (l *Library) ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.initialized
}

func (l *Library) Init(smi.InitFlag) smi.Return {
	if ret := failure(l.host.Failures, QueryInit); ret != smi.SUCCESS {
		return ret
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.initialized = true
	return smi.SUCCESS
}

func (l *Library) ShutDown() smi.Return {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return smi.ERROR_NOT_INIT
	}
	l.initialized = false
	return smi.SUCCESS
}

func (l *Library) GetSocketHandles(buf []smi.SocketHandle) (uint32, smi.Return) {
	if !l.ready() {
		return 0, smi.ERROR_NOT_INIT
	}
	if ret := failure(l.host.Failures, QuerySockets); ret != smi.SUCCESS {
		return 0, ret
	}
	if buf == nil {
		return uint32(len(l.host.Sockets)), smi.SUCCESS
	}
	n := min(len(buf), len(l.host.Sockets))
	for i := 0; i < n; i++ {
		buf[i] = smi.SocketHandle(socketHandleBase + i)
	}
	return uint32(n), smi.SUCCESS
}

func (l *Library) socket(h smi.SocketHandle) (int, bool) {
	i := int(h) - socketHandleBase
	if i < 0 || i >= len(l.host.Sockets) {
		return 0, false
	}
	return i, true
}

func (l *Library) GetProcessorHandles(socket smi.SocketHandle, buf []smi.ProcessorHandle) (uint32, smi.Return) {
	if !l.ready() {
		return 0, smi.ERROR_NOT_INIT
	}
	s, ok := l.socket(socket)
	if !ok {
		return 0, smi.ERROR_INVAL
	}
	if ret := failure(l.host.Sockets[s].Failures, QueryProcessors); ret != smi.SUCCESS {
		return 0, ret
	}
	var handles []smi.ProcessorHandle
	for i, ref := range l.processors {
		if ref.socket == s {
			handles = append(handles, smi.ProcessorHandle(processorHandleBase+i))
		}
	}
	if buf == nil {
		return uint32(len(handles)), smi.SUCCESS
	}
	return uint32(copy(buf, handles)), smi.SUCCESS
}

func (l *Library) GetAllProcessorHandles(buf []smi.ProcessorHandle) (uint32, smi.Return) {
	if !l.ready() {
		return 0, smi.ERROR_NOT_INIT
	}
	if ret := failure(l.host.Failures, QuerySockets); ret != smi.SUCCESS {
		return 0, ret
	}
	for _, socket := range l.host.Sockets {
		if ret := failure(socket.Failures, QueryProcessors); ret != smi.SUCCESS {
			return 0, ret
		}
	}
	if buf == nil {
		return uint32(len(l.processors)), smi.SUCCESS
	}
	n := min(len(buf), len(l.processors))
	for i := 0; i < n; i++ {
		buf[i] = smi.ProcessorHandle(processorHandleBase + i)
	}
	return uint32(n), smi.SUCCESS
}

// lookup resolves a processor handle and applies the failure configured for
// query, if any.
func (l *Library) lookup(h smi.ProcessorHandle, query string) (*Processor, smi.Return) {
	if !l.ready() {
		return nil, smi.ERROR_NOT_INIT
	}
	i := int(h) - processorHandleBase
	if i < 0 || i >= len(l.processors) {
		return nil, smi.ERROR_INVAL
	}
	ref := l.processors[i]
	proc := &l.host.Sockets[ref.socket].Processors[ref.index]
	if ret := failure(proc.Failures, query); ret != smi.SUCCESS {
		return nil, ret
	}
	return proc, smi.SUCCESS
}

func (l *Library) GetProcessorType(h smi.ProcessorHandle) (smi.ProcessorType, smi.Return) {
	proc, ret := l.lookup(h, QueryType)
	if ret != smi.SUCCESS {
		return smi.ProcessorTypeUnknown, ret
	}
	t, err := smi.ParseProcessorType(proc.Type)
	if err != nil {
		return smi.ProcessorTypeUnknown, smi.ERROR_UNEXPECTED_DATA
	}
	return t, smi.SUCCESS
}

func (l *Library) GetGpuDeviceUUID(h smi.ProcessorHandle) (string, smi.Return) {
	proc, ret := l.lookup(h, QueryUUID)
	if ret != smi.SUCCESS {
		return "", ret
	}
	if proc.UUID == "" {
		return "", smi.ERROR_NOT_SUPPORTED
	}
	return proc.UUID, smi.SUCCESS
}

func (l *Library) GetGpuVendorName(h smi.ProcessorHandle) (string, smi.Return) {
	proc, ret := l.lookup(h, QueryVendorName)
	if ret != smi.SUCCESS {
		return "", ret
	}
	return proc.Vendor, smi.SUCCESS
}

func (l *Library) GetGpuVirtualizationMode(h smi.ProcessorHandle) (smi.VirtualizationMode, smi.Return) {
	proc, ret := l.lookup(h, QueryVirtualizationMode)
	if ret != smi.SUCCESS {
		return smi.VirtualizationModeUnknown, ret
	}
	return smi.VirtualizationMode(proc.VirtualizationMode), smi.SUCCESS
}

func (l *Library) GetGpuMetricsInfo(h smi.ProcessorHandle) (smi.GPUMetrics, smi.Return) {
	proc, ret := l.lookup(h, QueryMetrics)
	if ret != smi.SUCCESS {
		return smi.GPUMetrics{}, ret
	}
	return proc.Metrics.toSMI(), smi.SUCCESS
}

func (l *Library) GetGpuKFDInfo(h smi.ProcessorHandle) (smi.KFDInfo, smi.Return) {
	proc, ret := l.lookup(h, QueryKFDInfo)
	if ret != smi.SUCCESS {
		return smi.KFDInfo{}, ret
	}
	return smi.KFDInfo{
		KfdID:              proc.KFD.KfdID,
		NodeID:             proc.KFD.NodeID,
		CurrentPartitionID: proc.KFD.CurrentPartitionID,
	}, smi.SUCCESS
}
