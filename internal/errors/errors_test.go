package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStatus = stderrors.New("permission denied")

func TestError_Message(t *testing.T) {
	assert.Equal(t, "initialize AMDSMI library: permission denied", Init("initialize AMDSMI library", errStatus).Error())
	assert.Equal(t, "get GPU metrics for device 3: permission denied", Query("get GPU metrics", 3, errStatus).Error())
	assert.Equal(t, "discover GPUs", Discovery("discover GPUs", nil).Error())
}

func TestError_UnwrapAndKind(t *testing.T) {
	err := fmt.Errorf("run: %w", Discovery("get socket handles", errStatus))

	assert.True(t, stderrors.Is(err, errStatus))
	assert.True(t, IsKind(err, KindDiscovery))
	assert.False(t, IsKind(err, KindInit))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindDiscovery, kind)

	_, ok = KindOf(errStatus)
	assert.False(t, ok)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(Init("initialize", errStatus)))
	assert.Equal(t, 1, ExitCode(fmt.Errorf("wrapped: %w", Query("get partition id", 0, errStatus))))
	assert.Equal(t, 1, ExitCode(errStatus))
}
