package weather

import (
	"math"
	"time"

	"github.com/wattplan/wattplan/internal/engine"
)

// Seasonal climate-zone averages, used for days beyond the real-forecast
// horizon. Deliberately coarse: the engine only needs plausible temperatures
// and conditions to drive the exclusion filter.

type climateZone struct {
	meanTempC  float64 // annual mean at sea level
	amplitudeC float64 // summer/winter swing around the mean
	humidity   float64
	conditions []string // cycled deterministically across fallback days
}

var (
	tropicalZone = climateZone{
		meanTempC:  27,
		amplitudeC: 3,
		humidity:   75,
		conditions: []string{"partly cloudy", "clear sky", "rain showers", "partly cloudy", "thunderstorm"},
	}
	temperateZone = climateZone{
		meanTempC:  12,
		amplitudeC: 10,
		humidity:   65,
		conditions: []string{"partly cloudy", "overcast", "clear sky", "rain", "partly cloudy"},
	}
	polarZone = climateZone{
		meanTempC:  -5,
		amplitudeC: 15,
		humidity:   70,
		conditions: []string{"overcast", "snow", "clear sky", "partly cloudy"},
	}
)

func zoneFor(lat float64) climateZone {
	switch abs := math.Abs(lat); {
	case abs < 23.5:
		return tropicalZone
	case abs < 60:
		return temperateZone
	default:
		return polarZone
	}
}

// SeasonalDay fabricates a typical day for the location and date. The result
// is deterministic: the same inputs always produce the same day, which keeps
// plan generation reproducible when the forecast horizon runs out.
func SeasonalDay(dayIndex int, date time.Time, lat float64) engine.WeatherDay {
	zone := zoneFor(lat)

	// Annual temperature cycle peaking around mid-July in the northern
	// hemisphere and mid-January in the southern.
	yearFrac := float64(date.YearDay()) / 365
	phase := 2 * math.Pi * (yearFrac - 0.54)
	if lat < 0 {
		phase += math.Pi
	}
	avg := zone.meanTempC + zone.amplitudeC*math.Cos(phase)

	condition := zone.conditions[(dayIndex-1)%len(zone.conditions)]

	return engine.WeatherDay{
		Day:       dayIndex,
		Date:      date,
		TempMinC:  math.Round((avg-4)*10) / 10,
		TempMaxC:  math.Round((avg+4)*10) / 10,
		AvgTempC:  math.Round(avg*10) / 10,
		Humidity:  zone.humidity,
		Condition: condition,
	}
}
