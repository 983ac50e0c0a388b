package discovery

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpu-metrics-reporter/internal/errors"
	"gpu-metrics-reporter/internal/fixture"
	"gpu-metrics-reporter/internal/smi"
	"gpu-metrics-reporter/internal/smi/mock"
)

func gpu(uuid string) fixture.Processor {
	return fixture.Processor{Type: "amd_gpu", UUID: uuid, Vendor: "AMD"}
}

func cpu() fixture.Processor {
	return fixture.Processor{Type: "amd_cpu"}
}

// openHost returns an initialized fixture library wrapped in a recording mock.
func openHost(t *testing.T, host *fixture.Host) *mock.Interface {
	t.Helper()
	require.NoError(t, host.Validate())
	lib := mock.Wrap(fixture.New(host))
	require.Equal(t, smi.SUCCESS, lib.Init(smi.InitAMDGPUs))
	return lib
}

func twoSocketHost() *fixture.Host {
	return &fixture.Host{Sockets: []fixture.Socket{
		{Processors: []fixture.Processor{gpu("uuid-0"), cpu(), gpu("uuid-1")}},
		{Processors: []fixture.Processor{gpu("uuid-2")}},
	}}
}

func TestNew_SelectsStrategy(t *testing.T) {
	e, err := New("hierarchical", Limits{}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyHierarchical, e.Name())

	e, err = New(" FLAT ", Limits{}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyFlat, e.Name())

	e, err = New("", Limits{}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyHierarchical, e.Name())

	_, err = New("tree", Limits{}, false, nil)
	assert.Error(t, err)
}

func TestHierarchical_FiltersGPUsInOrder(t *testing.T) {
	lib := openHost(t, twoSocketHost())

	devices, err := (&Hierarchical{}).Enumerate(lib)
	require.NoError(t, err)
	require.Len(t, devices, 3)
	for i, d := range devices {
		assert.Equal(t, i, d.Index)
		assert.Empty(t, d.UUID)
	}
	assert.NotEqual(t, devices[0].Handle, devices[1].Handle)

	// Two-phase query per list: sockets twice, processors twice per socket.
	assert.Equal(t, 2, lib.CallCount("GetSocketHandles"))
	assert.Equal(t, 4, lib.CallCount("GetProcessorHandles"))
	assert.Equal(t, 4, lib.CallCount("GetProcessorType"))
	assert.Zero(t, lib.CallCount("GetGpuDeviceUUID"))
}

func TestHierarchical_ResolvesUUIDs(t *testing.T) {
	lib := openHost(t, twoSocketHost())

	devices, err := (&Hierarchical{ResolveUUID: true}).Enumerate(lib)
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.Equal(t, "uuid-0", devices[0].UUID)
	assert.Equal(t, "uuid-1", devices[1].UUID)
	assert.Equal(t, "uuid-2", devices[2].UUID)
}

func TestHierarchical_NoSockets(t *testing.T) {
	lib := openHost(t, &fixture.Host{})

	devices, err := (&Hierarchical{}).Enumerate(lib)
	require.NoError(t, err)
	assert.Empty(t, devices)
	// Nothing to fill after a zero count.
	assert.Equal(t, 1, lib.CallCount("GetSocketHandles"))
}

func TestHierarchical_FailuresAreAllOrNothing(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(h *fixture.Host)
		status smi.Return
	}{
		{
			name:   "sockets",
			mutate: func(h *fixture.Host) { h.Failures = map[string]string{"sockets": "ERROR_NO_PERM"} },
			status: smi.ERROR_NO_PERM,
		},
		{
			name:   "processors of second socket",
			mutate: func(h *fixture.Host) { h.Sockets[1].Failures = map[string]string{"processors": "ERROR_BUSY"} },
			status: smi.ERROR_BUSY,
		},
		{
			name:   "processor type",
			mutate: func(h *fixture.Host) { h.Sockets[0].Processors[1].Failures = map[string]string{"type": "ERROR_IO"} },
			status: smi.ERROR_IO,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			host := twoSocketHost()
			tc.mutate(host)
			lib := openHost(t, host)

			devices, err := (&Hierarchical{}).Enumerate(lib)
			require.Error(t, err)
			assert.Nil(t, devices)
			assert.True(t, errors.IsKind(err, errors.KindDiscovery))
			assert.True(t, stderrors.Is(err, tc.status))
		})
	}
}

func TestHierarchical_UUIDFailureAborts(t *testing.T) {
	host := twoSocketHost()
	host.Sockets[1].Processors[0].Failures = map[string]string{"uuid": "ERROR_NOT_SUPPORTED"}
	lib := openHost(t, host)

	_, err := (&Hierarchical{ResolveUUID: true}).Enumerate(lib)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, smi.ERROR_NOT_SUPPORTED))
}

func TestHierarchical_RejectsTooManySockets(t *testing.T) {
	host := &fixture.Host{Sockets: make([]fixture.Socket, 3)}
	lib := openHost(t, host)

	_, err := (&Hierarchical{Limits: Limits{MaxSockets: 2}}).Enumerate(lib)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrTooManySockets))
	assert.Equal(t, 1, lib.CallCount("GetSocketHandles"))
}

func TestHierarchical_RejectsTooManyGPUs(t *testing.T) {
	lib := openHost(t, twoSocketHost())

	_, err := (&Hierarchical{Limits: Limits{MaxDevices: 2}}).Enumerate(lib)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindDiscovery))
	assert.True(t, stderrors.Is(err, ErrTooManyDevices))
}

func TestHierarchical_TrimsShortFill(t *testing.T) {
	lib := openHost(t, twoSocketHost())
	lib.GetSocketHandlesFunc = func(buf []smi.SocketHandle) (uint32, smi.Return) {
		if buf == nil {
			return 2, smi.SUCCESS
		}
		buf[0] = 0x1000
		return 1, smi.SUCCESS
	}

	devices, err := (&Hierarchical{}).Enumerate(lib)
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}

func TestFlat_TakesEveryProcessor(t *testing.T) {
	lib := openHost(t, twoSocketHost())

	devices, err := (&Flat{}).Enumerate(lib)
	require.NoError(t, err)
	require.Len(t, devices, 4)
	for i, d := range devices {
		assert.Equal(t, i, d.Index)
	}
	assert.Equal(t, 2, lib.CallCount("GetAllProcessorHandles"))
	assert.Zero(t, lib.CallCount("GetProcessorType"))
	assert.Zero(t, lib.CallCount("GetSocketHandles"))
}

func TestFlat_Failure(t *testing.T) {
	lib := openHost(t, twoSocketHost())
	lib.GetAllProcessorHandlesFunc = func([]smi.ProcessorHandle) (uint32, smi.Return) {
		return 0, smi.ERROR_DRIVER_NOT_LOADED
	}

	devices, err := (&Flat{}).Enumerate(lib)
	require.Error(t, err)
	assert.Nil(t, devices)
	assert.True(t, errors.IsKind(err, errors.KindDiscovery))
	assert.True(t, stderrors.Is(err, smi.ERROR_DRIVER_NOT_LOADED))
}

func TestFlat_RejectsTooManyDevices(t *testing.T) {
	lib := openHost(t, twoSocketHost())

	_, err := (&Flat{Limits: Limits{MaxDevices: 3}}).Enumerate(lib)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrTooManyDevices))
	assert.Equal(t, 1, lib.CallCount("GetAllProcessorHandles"))
}
