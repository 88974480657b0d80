package engine

import (
	"log/slog"
	"math"
	"sort"
)

const (
	tier1MaxPasses = 100
	tier2MaxSteps  = 50
	tier2Step      = 0.1

	costEpsilon = 1e-9
)

// TrimDevice is one device's working allocation fed to the trimmer
type TrimDevice struct {
	DeviceID   string
	Hours      float64
	Watts      float64
	Priority   int
	FloorHours float64 // minimum hours from frequency rules, 0 if none
}

// TrimResult is the trimmed day. BudgetMet is false only when both tiers
// were exhausted without bringing the total under budget (a soft violation).
type TrimResult struct {
	Allocations []Allocation
	TotalCost   float64
	TotalKWh    float64
	BudgetMet   bool
}

// TrimToBudget reduces a day's proposed allocations until their total cost
// is at or below budget, whenever structurally possible.
//
// Tier 1 respects per-device floors and shrinks larger allocations by larger
// steps, scaled so higher priority devices shed hours more slowly. Tier 2,
// entered only if Tier 1 falls short, ignores floors and repeatedly shaves
// the largest remaining allocation. Both tiers are iteration-bounded, so the
// trimmer always terminates and never fails outright.
//
// Hours are rounded to one decimal and costs to two only in the final output;
// intermediate iterations work on unrounded values.
func TrimToBudget(items []TrimDevice, budget, pricePerKWh float64, logger *slog.Logger) TrimResult {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Private working copy; the caller's slice is never retained.
	work := make([]TrimDevice, len(items))
	copy(work, items)

	total := totalCost(work, pricePerKWh)
	if total <= budget+costEpsilon {
		return finalize(work, pricePerKWh, true)
	}

	// Tier 1: floor-respecting banded reduction.
	for pass := 0; pass < tier1MaxPasses && total > budget+costEpsilon; pass++ {
		sort.SliceStable(work, func(i, j int) bool {
			return work[i].Hours > work[j].Hours
		})

		changed := false
		for i := range work {
			it := &work[i]
			if it.Hours <= it.FloorHours+costEpsilon {
				continue
			}

			next := it.Hours - reductionStep(it.Hours)*priorityScale(it.Priority)
			if it.Hours <= 0.5 {
				// Smallest band: drop straight to the floor.
				next = it.FloorHours
			}
			if next < it.FloorHours {
				next = it.FloorHours
			}
			if next >= it.Hours-costEpsilon {
				continue
			}

			it.Hours = next
			changed = true
			total = totalCost(work, pricePerKWh)
			if total <= budget+costEpsilon {
				return finalize(work, pricePerKWh, true)
			}
		}

		if !changed {
			// No device can shrink further without breaking its floor.
			break
		}
	}

	// Tier 2: strict enforcement, floors ignored.
	for step := 0; step < tier2MaxSteps && total > budget+costEpsilon; step++ {
		largest := -1
		for i := range work {
			if work[i].Hours > costEpsilon && (largest < 0 || work[i].Hours > work[largest].Hours) {
				largest = i
			}
		}
		if largest < 0 {
			break
		}

		work[largest].Hours = math.Max(0, work[largest].Hours-tier2Step)
		total = totalCost(work, pricePerKWh)
	}

	met := total <= budget+costEpsilon
	if !met {
		logger.Warn("daily budget unattainable after strict enforcement",
			"budget", budget, "bestCost", total)
	}
	return finalize(work, pricePerKWh, met)
}

// reductionStep shrinks larger allocations by larger absolute amounts
func reductionStep(hours float64) float64 {
	switch {
	case hours > 8:
		return 0.5
	case hours > 4:
		return 0.3
	case hours > 2:
		return 0.2
	default:
		return 0.1
	}
}

// priorityScale slows shedding for essential devices: a priority-5 device
// loses hours at just over half the rate of a priority-1 device
func priorityScale(priority int) float64 {
	return 1.0 - float64(clampPriority(priority))*0.1
}

func totalCost(items []TrimDevice, pricePerKWh float64) float64 {
	total := 0.0
	for _, it := range items {
		total += it.Watts / 1000 * it.Hours * pricePerKWh
	}
	return total
}

// finalize rounds hours to one decimal place, recomputes cost and energy
// from the rounded hours, and sums the day's totals from the rounded members
func finalize(items []TrimDevice, pricePerKWh float64, met bool) TrimResult {
	res := TrimResult{
		Allocations: make([]Allocation, 0, len(items)),
		BudgetMet:   met,
	}

	for _, it := range items {
		hours := round1(it.Hours)
		kwh := it.Watts / 1000 * hours
		res.Allocations = append(res.Allocations, Allocation{
			DeviceID:  it.DeviceID,
			Hours:     hours,
			Cost:      round2(kwh * pricePerKWh),
			EnergyKWh: round2(kwh),
		})
	}

	for _, a := range res.Allocations {
		res.TotalCost += a.Cost
		res.TotalKWh += a.EnergyKWh
	}
	res.TotalCost = round2(res.TotalCost)
	res.TotalKWh = round2(res.TotalKWh)
	return res
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
