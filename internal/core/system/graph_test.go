package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(specs []Spec, g *graph) []string {
	var out []string
	for _, ids := range g.order {
		for _, i := range ids {
			out = append(out, specs[i].Name)
		}
	}
	return out
}

func TestGraphOrdersByPhaseThenDependencies(t *testing.T) {
	specs := []Spec{
		{Name: "ui", Phase: PhasePresentation},
		{Name: "death", Phase: PhaseLateSimulation},
		{Name: "damage", Phase: PhaseSimulation, After: []string{"collision"}},
		{Name: "collision", Phase: PhaseSimulation},
		{Name: "objective", Phase: PhaseSimulation, Before: []string{"collision"}},
		{Name: "script", Phase: PhaseInitialization, Before: []string{"damage"}},
	}
	g, err := buildGraph(specs)
	require.NoError(t, err)
	assert.Equal(t, []string{"script", "objective", "collision", "damage", "death", "ui"}, names(specs, g))
}

func TestGraphTiesFollowRegistration(t *testing.T) {
	specs := []Spec{
		{Name: "c", Phase: PhaseSimulation},
		{Name: "a", Phase: PhaseSimulation},
		{Name: "b", Phase: PhaseSimulation},
	}
	g, err := buildGraph(specs)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, names(specs, g))
}

func TestGraphDetectsCycle(t *testing.T) {
	_, err := buildGraph([]Spec{
		{Name: "a", Phase: PhaseSimulation, After: []string{"c"}},
		{Name: "b", Phase: PhaseSimulation, After: []string{"a"}},
		{Name: "c", Phase: PhaseSimulation, After: []string{"b"}},
		{Name: "free", Phase: PhaseSimulation},
	})
	require.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "a, b, c")
}

func TestGraphRejectsUnknownAndDuplicate(t *testing.T) {
	_, err := buildGraph([]Spec{{Name: "a", Phase: PhaseSimulation, After: []string{"ghost"}}})
	assert.ErrorIs(t, err, ErrUnknownSystem)

	_, err = buildGraph([]Spec{{Name: "a"}, {Name: "a"}})
	assert.ErrorIs(t, err, ErrDuplicateSystem)
}

func TestGraphRejectsPhaseContradiction(t *testing.T) {
	_, err := buildGraph([]Spec{
		{Name: "early", Phase: PhaseSimulation, After: []string{"late"}},
		{Name: "late", Phase: PhasePresentation},
	})
	assert.ErrorIs(t, err, ErrPhaseConflict)

	_, err = buildGraph([]Spec{
		{Name: "late", Phase: PhasePresentation, Before: []string{"early"}},
		{Name: "early", Phase: PhaseSimulation},
	})
	assert.ErrorIs(t, err, ErrPhaseConflict)
}

func TestGraphCrossPhaseOrderingIsImplied(t *testing.T) {
	specs := []Spec{
		{Name: "late", Phase: PhasePresentation, After: []string{"early"}},
		{Name: "early", Phase: PhaseSimulation, Before: []string{"late"}},
	}
	g, err := buildGraph(specs)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, names(specs, g))
	assert.Empty(t, g.preds[0])
}
