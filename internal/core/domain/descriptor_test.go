package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/core/domain"
)

func TestRefinementDescriptor_Validate(t *testing.T) {
	valid := domain.DefaultDescriptor()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*domain.RefinementDescriptor)
	}{
		{"unknown scheme", func(d *domain.RefinementDescriptor) { d.Scheme = "sqrt3" }},
		{"unknown boundary", func(d *domain.RefinementDescriptor) { d.BoundaryRule = "always" }},
		{"negative level", func(d *domain.RefinementDescriptor) { d.IsolationLevel = -1 }},
		{"level too deep", func(d *domain.RefinementDescriptor) { d.IsolationLevel = domain.MaxIsolationLevel + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := domain.DefaultDescriptor()
			tt.mutate(&d)
			assert.ErrorIs(t, d.Validate(), domain.ErrInvalidDescriptor)
		})
	}
}

func TestRefinementDescriptor_EffectiveAdaptive(t *testing.T) {
	d := domain.DefaultDescriptor()
	d.Adaptive = true
	assert.True(t, d.EffectiveAdaptive())

	d.Scheme = domain.SchemeLoop
	assert.False(t, d.EffectiveAdaptive())
}

func TestPlanKey_ValueEquality(t *testing.T) {
	topo, err := domain.NewTopology(4, []int{4}, []int{0, 1, 2, 3}, domain.CreaseData{})
	require.NoError(t, err)

	d := domain.DefaultDescriptor()
	same := domain.DefaultDescriptor()
	assert.Equal(t, domain.PlanKey(topo, d), domain.PlanKey(topo, same))

	deeper := d
	deeper.IsolationLevel++
	assert.NotEqual(t, domain.PlanKey(topo, d), domain.PlanKey(topo, deeper))

	// Adaptive has no effect on Loop, so the plan is shared.
	loop := d
	loop.Scheme = domain.SchemeLoop
	loopAdaptive := loop
	loopAdaptive.Adaptive = true
	assert.Equal(t, domain.PlanKey(topo, loop), domain.PlanKey(topo, loopAdaptive))
}
