//go:build nogpu

// Package gpucompute is unavailable in builds tagged nogpu.
package gpucompute

import (
	"context"
	"errors"

	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

var errDisabled = errors.Join(domain.ErrBackendUnavailable, zerr.New("built with nogpu"))

// Probe always fails in nogpu builds.
func Probe(_ context.Context) error { return errDisabled }

// Create always fails in nogpu builds.
func Create(_ context.Context, _ domain.BackendConfig) (ports.ComputeBackend, error) {
	return nil, errDisabled
}
