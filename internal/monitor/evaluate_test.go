package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pairwatch-telegram-bot/internal/types"
)

func TestEvaluateAbove(t *testing.T) {
	a := types.Alert{ID: "a1", Condition: types.ConditionAbove, Target: 100, ReferencePrice: 90}

	assert.False(t, Evaluate(a, 95))
	assert.True(t, Evaluate(a, 101))
	assert.True(t, Evaluate(a, 100.0001))
}

func TestEvaluateAboveBoundary(t *testing.T) {
	a := types.Alert{ID: "a2", Condition: types.ConditionAbove, Target: 100}

	// hitting the target exactly never fires
	assert.False(t, Evaluate(a, 100))
}

func TestEvaluateBelow(t *testing.T) {
	a := types.Alert{ID: "b1", Condition: types.ConditionBelow, Target: 50, ReferencePrice: 60}

	assert.False(t, Evaluate(a, 55))
	assert.False(t, Evaluate(a, 50))
	assert.True(t, Evaluate(a, 49.99))
}

func TestEvaluatePercentGain(t *testing.T) {
	a := types.Alert{ID: "p1", Condition: types.ConditionPercent, Target: 10, ReferencePrice: 50}

	assert.False(t, Evaluate(a, 54), "+8%% is short of the threshold")
	assert.True(t, Evaluate(a, 55), "exactly +10%% fires")
	assert.True(t, Evaluate(a, 60), "+20%% fires")
	assert.False(t, Evaluate(a, 44), "a drop never satisfies a gain threshold")
}

func TestEvaluatePercentLoss(t *testing.T) {
	a := types.Alert{ID: "p2", Condition: types.ConditionPercent, Target: -10, ReferencePrice: 50}

	assert.True(t, Evaluate(a, 44), "-12%% fires")
	assert.False(t, Evaluate(a, 46), "-8%% is short of the threshold")
	assert.True(t, Evaluate(a, 45), "exactly -10%% fires")
	assert.False(t, Evaluate(a, 60), "a gain never satisfies a loss threshold")
}

func TestEvaluatePercentZeroTargetNeverTriggers(t *testing.T) {
	a := types.Alert{ID: "p3", Condition: types.ConditionPercent, Target: 0, ReferencePrice: 50}

	for _, price := range []float64{0, 1, 50, 100, 1e9} {
		assert.False(t, Evaluate(a, price), "price %f", price)
	}
}

func TestEvaluatePercentZeroReferenceIsAnomalyNotTrigger(t *testing.T) {
	a := types.Alert{ID: "p4", Condition: types.ConditionPercent, Target: 10, ReferencePrice: 0}

	assert.False(t, Evaluate(a, 100))
}

func TestEvaluateUnknownCondition(t *testing.T) {
	a := types.Alert{ID: "x1", Condition: "sideways", Target: 10}

	assert.False(t, Evaluate(a, 100))
}

func TestPercentSinceCreation(t *testing.T) {
	a := types.Alert{ReferencePrice: 50}

	assert.InDelta(t, -12.0, PercentSinceCreation(a, 44), 1e-9)
	assert.InDelta(t, 10.0, PercentSinceCreation(a, 55), 1e-9)

	broken := types.Alert{ReferencePrice: 0}
	assert.Equal(t, 0.0, PercentSinceCreation(broken, 44))
}
