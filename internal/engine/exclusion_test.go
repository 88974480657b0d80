package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExcludedDevices(t *testing.T) {
	ac := Device{ID: "ac1", Name: "Bedroom AC", Type: "Air Conditioner", Priority: 5}
	heater := Device{ID: "h1", Name: "Room Heater", Type: "Room Heater", Priority: 3}
	tv := Device{ID: "tv1", Name: "Living Room TV", Type: "Television", Priority: 2}
	devices := []Device{ac, heater, tv}

	th := DefaultThresholds()

	tests := []struct {
		name      string
		day       WeatherDay
		wantAC    bool
		wantHeat  bool
	}{
		{
			name:     "cold rainy day excludes cooling regardless of priority",
			day:      WeatherDay{AvgTempC: 15, Condition: "rain"},
			wantAC:   true,
			wantHeat: false,
		},
		{
			name:     "cold clear day excludes cooling and heating",
			day:      WeatherDay{AvgTempC: 12, Condition: "clear sky"},
			wantAC:   true,
			wantHeat: true, // "clear" reads as warm conditions
		},
		{
			name:     "warm overcast day excludes cooling by condition",
			day:      WeatherDay{AvgTempC: 24, Condition: "overcast"},
			wantAC:   true,
			wantHeat: false,
		},
		{
			name:     "hot day excludes heating by temperature",
			day:      WeatherDay{AvgTempC: 31, Condition: "cloudy"},
			wantAC:   false,
			wantHeat: true,
		},
		{
			name:     "mild cloudy day excludes nothing",
			day:      WeatherDay{AvgTempC: 22, Condition: "cloudy"},
			wantAC:   false,
			wantHeat: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			excluded := ExcludedDevices(tt.day, devices, th)
			assert.Equal(t, tt.wantAC, excluded["ac1"], "cooling device")
			assert.Equal(t, tt.wantHeat, excluded["h1"], "heating device")
			assert.False(t, excluded["tv1"], "neutral devices are never excluded")
		})
	}
}

func TestExclusionThresholdsAreConfigurable(t *testing.T) {
	ac := Device{ID: "ac1", Type: "Air Conditioner"}
	day := WeatherDay{AvgTempC: 19, Condition: "cloudy"}

	loose := Thresholds{ColdBelowC: 18, HotAboveC: 27}
	strict := Thresholds{ColdBelowC: 20, HotAboveC: 25}

	assert.False(t, ExcludedDevices(day, []Device{ac}, loose)["ac1"])
	assert.True(t, ExcludedDevices(day, []Device{ac}, strict)["ac1"])
}
