package pool

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolErrorMatchesByCode(t *testing.T) {
	err := newPoolError(codeAcquireTimeout, "no connection within %s", "30s")

	assert.True(t, errors.Is(err, ErrAcquireTimeout))
	assert.False(t, errors.Is(err, ErrPoolClosed))
	assert.Equal(t, "acquire_timeout", err.Code())
}

func TestPoolErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := wrapPoolError(cause, codeBackendConnect, "backend connect failed")

	assert.True(t, errors.Is(err, ErrBackendConnect))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")

	var pe *PoolError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "backend_connect", pe.Code())
}

func TestPoolErrorThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("acquire: %w", newPoolError(codeAcquireTimeout, "timed out"))

	assert.True(t, IsPoolError(err))
	assert.True(t, IsTimeout(err))
	assert.False(t, IsInvalidRelease(err))
}

func TestIsPoolError(t *testing.T) {
	assert.True(t, IsPoolError(ErrInvalidRelease))
	assert.False(t, IsPoolError(errors.New("plain error")))
	assert.False(t, IsPoolError(nil))
}
