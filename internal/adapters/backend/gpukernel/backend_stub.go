//go:build !wgpunative

// Package gpukernel runs the stencil kernel through wgpu-native. Builds
// without the wgpunative tag do not link the native library.
package gpukernel

import (
	"context"
	"errors"

	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

var errDisabled = errors.Join(domain.ErrBackendUnavailable, zerr.New("built without wgpunative"))

// Probe always fails without the wgpunative tag.
func Probe(_ context.Context) error { return errDisabled }

// Create always fails without the wgpunative tag.
func Create(_ context.Context, _ domain.BackendConfig) (ports.ComputeBackend, error) {
	return nil, errDisabled
}
