package invariant

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampWithinRange(t *testing.T) {
	assert.Equal(t, 0.5, Clamp(0.5, 0.25, 1.0, "multiplier"))
	assert.Equal(t, 3, Clamp(3, 0, 10, "count"))
}

func TestClampOutOfRange(t *testing.T) {
	if Enabled {
		assert.Panics(t, func() { Clamp(2.0, 0.25, 1.0, "multiplier") })
		return
	}
	assert.Equal(t, 1.0, Clamp(2.0, 0.25, 1.0, "multiplier"))
	assert.Equal(t, 0.25, Clamp(0.1, 0.25, 1.0, "multiplier"))
}

func TestClampNaN(t *testing.T) {
	if Enabled {
		assert.Panics(t, func() { Clamp(math.NaN(), 0, 1, "health") })
		return
	}
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 1, "health"))
	assert.Equal(t, float32(2), Clamp(float32(math.NaN()), 2, 4, "health"))
}

func TestAssertHoldsQuietly(t *testing.T) {
	assert.NotPanics(t, func() { Assert(true, "never") })
}
