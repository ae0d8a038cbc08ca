package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleCountsFirstOutcomeOnly(t *testing.T) {
	mp := MissionProgress{Required: 2}

	require.True(t, mp.Settle(11, ObjectiveComplete))
	assert.False(t, mp.Settle(11, ObjectiveComplete), "repeat completion")
	assert.False(t, mp.Settle(11, ObjectiveFailed), "completed objective cannot fail")
	require.True(t, mp.Settle(12, ObjectiveFailed))
	assert.False(t, mp.Settle(12, ObjectiveComplete), "failed objective cannot complete")
	assert.False(t, mp.Settle(13, ObjectiveActive))

	assert.Equal(t, uint16(1), mp.Completed)
	assert.Equal(t, uint16(1), mp.Failed)
	assert.Equal(t, uint32(12), mp.LastObjective)
	st, ok := mp.Outcome(12)
	require.True(t, ok)
	assert.Equal(t, ObjectiveFailed, st)
	_, ok = mp.Outcome(13)
	assert.False(t, ok)
}

func TestSettleStopsWhenFull(t *testing.T) {
	var mp MissionProgress
	for id := uint32(0); id < MaxObjectives; id++ {
		require.True(t, mp.Settle(id, ObjectiveComplete))
	}
	assert.True(t, mp.Full())
	assert.False(t, mp.Settle(MaxObjectives, ObjectiveComplete))
	assert.Equal(t, uint16(MaxObjectives), mp.Completed)
}

func TestFragmentAddDedupesAndCaps(t *testing.T) {
	inv := FragmentInventory{Total: 3}
	assert.True(t, inv.Add(0))
	assert.False(t, inv.Add(0))
	assert.True(t, inv.Add(7))
	assert.True(t, inv.Add(9))
	assert.False(t, inv.Add(10), "at total")
	assert.Equal(t, uint16(3), inv.Collected)
	assert.True(t, inv.Has(7))
	assert.False(t, inv.Has(10))

	var open FragmentInventory
	assert.Equal(t, uint16(MaxFragments), open.Capacity())
}
