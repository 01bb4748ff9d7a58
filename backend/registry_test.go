package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guileen/dbpool/pool"
)

func TestRegistryResolvesBuiltinKinds(t *testing.T) {
	for _, kind := range []string{"postgres", "mysql", "sqlite"} {
		b, err := New(kind)
		require.NoError(t, err, "kind %s", kind)
		assert.NotNil(t, b)
	}
}

func TestRegistryRejectsUnknownKind(t *testing.T) {
	_, err := New("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend kind")
}

func TestKindsAreSorted(t *testing.T) {
	kinds := Kinds()
	assert.Contains(t, kinds, "mysql")
	assert.Contains(t, kinds, "postgres")
	assert.Contains(t, kinds, "sqlite")
	assert.IsIncreasing(t, kinds)
}

func TestOpenResolvesKindThroughRegistry(t *testing.T) {
	Register("memory-test", func() pool.Backend {
		return pool.BackendFuncs{
			ConnectFunc: func(ctx context.Context, connString string) (pool.Handle, error) {
				return struct{}{}, nil
			},
		}
	})

	cfg := pool.DefaultConfig("memory-test", "memory://")
	cfg.MinConnections = 1
	p, err := Open(cfg)
	require.NoError(t, err)
	defer p.Close()

	stats := p.Stats()
	assert.Equal(t, 1, stats.TotalConnections)
	assert.Equal(t, 0, stats.ActiveConnections)
}

func TestOpenRequiresKnownKindWhenBackendUnset(t *testing.T) {
	cfg := pool.DefaultConfig("unknown-kind", "conn://")
	_, err := Open(cfg)
	require.Error(t, err)
}
