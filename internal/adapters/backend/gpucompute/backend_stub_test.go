//go:build nogpu

package gpucompute_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/adapters/backend/gpucompute"
	"go.trai.ch/subdiv/internal/core/domain"
)

func TestStub_Unavailable(t *testing.T) {
	require.ErrorIs(t, gpucompute.Probe(context.Background()), domain.ErrBackendUnavailable)
	_, err := gpucompute.Create(context.Background(), domain.BackendConfig{})
	require.ErrorIs(t, err, domain.ErrBackendUnavailable)
}
