package smi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnStringAndError(t *testing.T) {
	assert.Equal(t, "SUCCESS", SUCCESS.String())
	assert.Equal(t, "ERROR_NO_PERM", ERROR_NO_PERM.String())
	assert.Equal(t, "Return(12345)", Return(12345).String())

	assert.Equal(t, "permission denied", ERROR_NO_PERM.Error())
	assert.Equal(t, "unrecognized status 12345", Return(12345).Error())
}

func TestReturnIsError(t *testing.T) {
	var err error = ERROR_BUSY
	assert.ErrorIs(t, err, ERROR_BUSY)
	assert.NotErrorIs(t, err, ERROR_NO_PERM)
}

func TestParseReturn(t *testing.T) {
	tests := []struct {
		in   string
		want Return
	}{
		{"SUCCESS", SUCCESS},
		{"ERROR_NO_PERM", ERROR_NO_PERM},
		{"no_perm", ERROR_NO_PERM},
		{" not_supported ", ERROR_NOT_SUPPORTED},
		{"error_not_init", ERROR_NOT_INIT},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReturn(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseReturn("ERROR_SOMETHING_ELSE")
	require.Error(t, err)
}

func TestEveryReturnHasNameAndMessage(t *testing.T) {
	for r, name := range returnNames {
		got, err := ParseReturn(name)
		require.NoError(t, err, name)
		assert.Equal(t, r, got)
		assert.Contains(t, returnMessages, r, name)
	}
}

func TestProcessorType(t *testing.T) {
	for _, name := range processorTypeNames {
		pt, err := ParseProcessorType(name)
		require.NoError(t, err)
		assert.Equal(t, name, pt.String())
	}
	assert.Equal(t, "amd_gpu", ProcessorTypeAMDGPU.String())
	assert.Equal(t, "ProcessorType(99)", ProcessorType(99).String())

	_, err := ParseProcessorType("AMD_GPU")
	assert.Error(t, err)
}

func TestVirtualizationModeString(t *testing.T) {
	assert.Equal(t, "baremetal", VirtualizationModeBaremetal.String())
	assert.Equal(t, "guest", VirtualizationModeGuest.String())
	assert.Equal(t, "unknown", VirtualizationMode(42).String())
}
