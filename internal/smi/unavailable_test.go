//go:build !(linux && cgo && amdsmi)

package smi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnavailable(t *testing.T) {
	lib := New(WithLibraryPath("/opt/rocm/lib/libamd_smi.so"))

	assert.Equal(t, ERROR_FAIL_LOAD_MODULE, lib.Init(InitAMDGPUs))
	assert.Equal(t, ERROR_NOT_INIT, lib.ShutDown())

	n, ret := lib.GetSocketHandles(nil)
	assert.Zero(t, n)
	assert.Equal(t, ERROR_NOT_INIT, ret)

	_, ret = lib.GetGpuMetricsInfo(0)
	assert.Equal(t, ERROR_NOT_INIT, ret)
}
