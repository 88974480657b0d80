package engine

import "strings"

// wetConditions make cooling devices pointless for the day
var wetConditions = []string{"rain", "storm", "thunder", "drizzle", "shower", "overcast"}

// warmConditions make heating devices pointless for the day
var warmConditions = []string{"sun", "clear", "hot", "heat"}

// ExcludedDevices decides which devices are unusable on a given day.
// Cooling devices are excluded on cold or wet days, heating devices on hot
// or sunny days, neutral devices never. Pure and total.
func ExcludedDevices(day WeatherDay, devices []Device, th Thresholds) map[string]bool {
	excluded := make(map[string]bool)
	condition := strings.ToLower(day.Condition)

	for _, d := range devices {
		switch d.Sensitivity() {
		case SensitivityCooling:
			if day.AvgTempC < th.ColdBelowC || containsAny(condition, wetConditions) {
				excluded[d.ID] = true
			}
		case SensitivityHeating:
			if day.AvgTempC > th.HotAboveC || containsAny(condition, warmConditions) {
				excluded[d.ID] = true
			}
		}
	}

	return excluded
}
