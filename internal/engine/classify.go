package engine

import "strings"

// Classification is case-insensitive substring matching over the device's
// type label and name. First matching rule wins; unmatched input always
// falls to the lowest-impact default.

var coolingKeywords = []string{"air conditioner", "air-conditioner", "ac unit", "fan", "cooler"}

var heatingKeywords = []string{"heater", "radiator"}

// waterKeywords disqualify a device from the heating class: a water heater
// warms water, not the room, so weather never makes it pointless
var waterKeywords = []string{"water", "geyser", "boiler", "kettle"}

// ClassifyWeatherSensitivity maps a device label to cooling, heating or neutral
func ClassifyWeatherSensitivity(label string) WeatherSensitivity {
	l := strings.ToLower(label)

	if containsAny(l, coolingKeywords) {
		return SensitivityCooling
	}
	if containsAny(l, heatingKeywords) && !containsAny(l, waterKeywords) {
		return SensitivityHeating
	}
	return SensitivityNeutral
}

var veryHighEmissionKeywords = []string{"gas", "water heater", "geyser", "boiler"}

var highEmissionKeywords = []string{"air conditioner", "air-conditioner", "ac unit", "heater", "dryer", "oven", "stove"}

var mediumEmissionKeywords = []string{"tv", "television", "microwave", "washing machine", "washer", "dishwasher"}

// ClassifyEmission maps a device label to an emission level, defaulting to low
func ClassifyEmission(label string) EmissionLevel {
	l := strings.ToLower(label)

	switch {
	case containsAny(l, veryHighEmissionKeywords):
		return EmissionVeryHigh
	case containsAny(l, highEmissionKeywords):
		return EmissionHigh
	case containsAny(l, mediumEmissionKeywords):
		return EmissionMedium
	default:
		return EmissionLow
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
