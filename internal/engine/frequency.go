package engine

import "math/rand"

// maxActiveDaysPerWeek caps rarely and frequently devices. The two classes
// share the same cap; see DESIGN.md for the divergence note.
const maxActiveDaysPerWeek = 3

// ecoEmissionCap is the share of baseline hours a high or very-high
// emission device keeps in the emission-minimizing plan
const ecoEmissionCap = 0.3

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 5 {
		return 5
	}
	return p
}

// priorityShare scales hours by how essential the device is: 0.2 for
// priority 1 up to 1.0 for priority 5
func priorityShare(p int) float64 {
	return float64(clampPriority(p)) / 5
}

// DailyFloor returns the minimum hours a daily device must keep each day.
// Non-daily frequencies bear no floor.
func DailyFloor(d Device) float64 {
	if d.Frequency != FrequencyDaily {
		return 0
	}
	return d.BaselineHours * priorityShare(d.Priority) * 0.6
}

func highEmission(level EmissionLevel) bool {
	return level == EmissionHigh || level == EmissionVeryHigh
}

// ApplyFrequency shapes one day's proposed hours to the device's frequency
// contract. The weekly 3-day cap for rarely/frequently devices is a separate
// pass over the whole horizon; see EnforceWeeklyCaps.
func ApplyFrequency(d Device, proposed float64, weekend bool, plan PlanType) float64 {
	switch d.Frequency {
	case FrequencyDaily:
		hours := proposed
		if floor := DailyFloor(d); hours < floor {
			hours = floor
		}
		// The eco cap wins over the floor for dirty devices.
		if plan == PlanEco && highEmission(d.Emission()) {
			if limit := d.BaselineHours * ecoEmissionCap; hours > limit {
				hours = limit
			}
		}
		return hours

	case FrequencyWeekends:
		if !weekend {
			return 0
		}
		if plan == PlanEco {
			if highEmission(d.Emission()) {
				return d.BaselineHours * 0.3
			}
			return d.BaselineHours * 0.8
		}
		return d.BaselineHours * priorityShare(d.Priority)

	default: // rarely, frequently: per-day stage passes through
		return proposed
	}
}

// EnforceWeeklyCaps partitions the horizon into consecutive 7-day weeks and,
// for each rarely/frequently device, keeps at most maxActiveDaysPerWeek
// active days per week, chosen uniformly at random among the active days.
// days is indexed 0-based and mutated in place; rng must not be nil.
func EnforceWeeklyCaps(days []map[string]float64, devices []Device, rng *rand.Rand) {
	for _, d := range devices {
		if d.Frequency != FrequencyRarely && d.Frequency != FrequencyFrequently {
			continue
		}

		for weekStart := 0; weekStart < len(days); weekStart += 7 {
			weekEnd := weekStart + 7
			if weekEnd > len(days) {
				weekEnd = len(days)
			}

			active := []int{}
			for i := weekStart; i < weekEnd; i++ {
				if days[i][d.ID] > 0 {
					active = append(active, i)
				}
			}
			if len(active) <= maxActiveDaysPerWeek {
				continue
			}

			rng.Shuffle(len(active), func(i, j int) {
				active[i], active[j] = active[j], active[i]
			})
			for _, i := range active[maxActiveDaysPerWeek:] {
				days[i][d.ID] = 0
			}
		}
	}
}
