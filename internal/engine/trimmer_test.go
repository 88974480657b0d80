package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocByID(t *testing.T, res TrimResult, id string) Allocation {
	t.Helper()
	for _, a := range res.Allocations {
		if a.DeviceID == id {
			return a
		}
	}
	t.Fatalf("no allocation for %s", id)
	return Allocation{}
}

func TestTrimToBudgetUnderBudgetIsNoOp(t *testing.T) {
	items := []TrimDevice{
		{DeviceID: "tv", Hours: 2, Watts: 1000, Priority: 3},
		{DeviceID: "fan", Hours: 4, Watts: 100, Priority: 2},
	}

	// 2 kWh + 0.4 kWh at 50/kWh = 120, well under 150.
	res := TrimToBudget(items, 150, 50, nil)

	require.True(t, res.BudgetMet)
	assert.Equal(t, 2.0, allocByID(t, res, "tv").Hours)
	assert.Equal(t, 4.0, allocByID(t, res, "fan").Hours)
	assert.Equal(t, 120.0, res.TotalCost)
	assert.Equal(t, 2.4, res.TotalKWh)
}

func TestTrimToBudgetACScenario(t *testing.T) {
	// 1.5 kW at 8h and 50/kWh costs 600 against a 100 budget; the trimmer
	// must land at 1.3h = 97.50.
	items := []TrimDevice{
		{DeviceID: "ac1", Hours: 8, Watts: 1500, Priority: 5},
	}

	res := TrimToBudget(items, 100, 50, nil)

	require.True(t, res.BudgetMet)
	ac := allocByID(t, res, "ac1")
	assert.Equal(t, 1.3, ac.Hours)
	assert.Equal(t, 97.5, ac.Cost)
	assert.LessOrEqual(t, res.TotalCost, 100.0)
}

func TestTrimToBudgetRespectsFloors(t *testing.T) {
	items := []TrimDevice{
		{DeviceID: "a", Hours: 2, Watts: 1000, Priority: 3, FloorHours: 1},
		{DeviceID: "b", Hours: 3, Watts: 1000, Priority: 3, FloorHours: 1},
	}

	// Total 50 against 40; reachable without breaking either floor.
	res := TrimToBudget(items, 40, 10, nil)

	require.True(t, res.BudgetMet)
	assert.LessOrEqual(t, res.TotalCost, 40.0)
	assert.GreaterOrEqual(t, allocByID(t, res, "a").Hours, 1.0)
	assert.GreaterOrEqual(t, allocByID(t, res, "b").Hours, 1.0)
}

func TestTrimToBudgetPriorityFairness(t *testing.T) {
	// Both devices start at the same cost; the priority-1 device must shed
	// a strictly larger fraction of its hours.
	items := []TrimDevice{
		{DeviceID: "essential", Hours: 1.2, Watts: 1000, Priority: 5},
		{DeviceID: "optional", Hours: 1.2, Watts: 1000, Priority: 1},
	}

	res := TrimToBudget(items, 80, 50, nil)

	require.True(t, res.BudgetMet)
	essential := allocByID(t, res, "essential")
	optional := allocByID(t, res, "optional")

	cutEssential := (1.2 - essential.Hours) / 1.2
	cutOptional := (1.2 - optional.Hours) / 1.2
	assert.Greater(t, cutOptional, cutEssential)
}

func TestTrimToBudgetPriorityMonotonicity(t *testing.T) {
	run := func(priority int) float64 {
		items := []TrimDevice{
			{DeviceID: "fixed", Hours: 1.2, Watts: 1000, Priority: 5},
			{DeviceID: "varies", Hours: 1.2, Watts: 1000, Priority: priority},
		}
		res := TrimToBudget(items, 80, 50, nil)
		return allocByID(t, res, "varies").Hours
	}

	// Raising priority, all else fixed, never decreases the final hours.
	prev := run(1)
	for p := 2; p <= 5; p++ {
		cur := run(p)
		assert.GreaterOrEqual(t, cur, prev, "priority %d", p)
		prev = cur
	}
}

func TestTrimToBudgetIdempotent(t *testing.T) {
	items := []TrimDevice{
		{DeviceID: "ac1", Hours: 8, Watts: 1500, Priority: 5},
		{DeviceID: "tv", Hours: 6, Watts: 120, Priority: 2},
	}

	first := TrimToBudget(items, 100, 50, nil)
	require.True(t, first.BudgetMet)

	again := make([]TrimDevice, 0, len(first.Allocations))
	for _, a := range first.Allocations {
		watts := 1500.0
		priority := 5
		if a.DeviceID == "tv" {
			watts, priority = 120, 2
		}
		again = append(again, TrimDevice{DeviceID: a.DeviceID, Hours: a.Hours, Watts: watts, Priority: priority})
	}

	second := TrimToBudget(again, 100, 50, nil)
	assert.Equal(t, first.Allocations, second.Allocations)
	assert.Equal(t, first.TotalCost, second.TotalCost)
}

func TestTrimToBudgetStrictEnforcementIgnoresFloors(t *testing.T) {
	// At its floor the device still costs 100 against a budget of 10; Tier 2
	// may force even an essential device toward zero.
	items := []TrimDevice{
		{DeviceID: "heater", Hours: 2, Watts: 1000, Priority: 5, FloorHours: 2},
	}

	res := TrimToBudget(items, 10, 50, nil)

	require.True(t, res.BudgetMet)
	assert.Less(t, allocByID(t, res, "heater").Hours, 2.0)
}

func TestTrimToBudgetSoftViolation(t *testing.T) {
	// Tier 2 is bounded at 50 steps of 0.1h; from 10h it can only reach 5h,
	// which still costs 250. The trimmer returns its best effort.
	items := []TrimDevice{
		{DeviceID: "pump", Hours: 10, Watts: 1000, Priority: 5, FloorHours: 10},
	}

	res := TrimToBudget(items, 10, 50, nil)

	assert.False(t, res.BudgetMet)
	require.Len(t, res.Allocations, 1)
	assert.Greater(t, res.TotalCost, 10.0)
	assert.Less(t, res.Allocations[0].Hours, 10.0)
}

func TestTrimToBudgetDoesNotMutateInput(t *testing.T) {
	items := []TrimDevice{
		{DeviceID: "ac1", Hours: 8, Watts: 1500, Priority: 5},
	}

	TrimToBudget(items, 100, 50, nil)
	assert.Equal(t, 8.0, items[0].Hours)
}
