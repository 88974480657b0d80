package engine

import "time"

// PlanType identifies one of the three plan variants
type PlanType string

const (
	PlanCost    PlanType = "cost"    // Minimize spend
	PlanEco     PlanType = "eco"     // Minimize environmental impact
	PlanBalance PlanType = "balance" // Blend of cost and eco
)

// Frequency defines how often a device is expected to run
type Frequency string

const (
	FrequencyDaily      Frequency = "daily"      // Every day, with a floor
	FrequencyWeekends   Frequency = "weekends"   // Weekend days only
	FrequencyRarely     Frequency = "rarely"     // At most 3 days per week
	FrequencyFrequently Frequency = "frequently" // At most 3 days per week
)

// WeatherSensitivity classifies how weather affects a device's usefulness
type WeatherSensitivity string

const (
	SensitivityCooling WeatherSensitivity = "cooling"
	SensitivityHeating WeatherSensitivity = "heating"
	SensitivityNeutral WeatherSensitivity = "neutral"
)

// EmissionLevel classifies a device's environmental impact
type EmissionLevel string

const (
	EmissionVeryHigh EmissionLevel = "very-high"
	EmissionHigh     EmissionLevel = "high"
	EmissionMedium   EmissionLevel = "medium"
	EmissionLow      EmissionLevel = "low"
)

// Device represents a household electrical device to be planned.
// Immutable for the duration of a planning run.
type Device struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"` // free text, used for classification
	Watts         float64   `json:"watts"`
	BaselineHours float64   `json:"baselineHours"` // user-declared hours per day, 0-24
	Priority      int       `json:"priority"`      // 1-5, 5 = most essential
	Frequency     Frequency `json:"frequency"`
}

// Sensitivity returns the device's weather-sensitivity label
func (d Device) Sensitivity() WeatherSensitivity {
	return ClassifyWeatherSensitivity(d.Type + " " + d.Name)
}

// Emission returns the device's emission-level label
func (d Device) Emission() EmissionLevel {
	return ClassifyEmission(d.Type + " " + d.Name)
}

// WeatherDay holds one day of the weather outlook, produced externally
// and read-only to the engine
type WeatherDay struct {
	Day         int       `json:"day"` // 1-based day index
	Date        time.Time `json:"date"`
	TempMinC    float64   `json:"tempMin"`
	TempMaxC    float64   `json:"tempMax"`
	AvgTempC    float64   `json:"avgTemp"`
	Humidity    float64   `json:"humidity"` // percentage 0-100
	WeatherCode int       `json:"weatherCode"`
	Condition   string    `json:"condition"` // textual descriptor, e.g. "light rain"
}

// Allocation is one device's hours, cost and energy for a specific day.
// Invariant: Cost = (Watts/1000) * Hours * pricePerKWh; EnergyKWh = (Watts/1000) * Hours.
type Allocation struct {
	DeviceID  string  `json:"deviceId"`
	Hours     float64 `json:"hours"`
	Cost      float64 `json:"cost"`
	EnergyKWh float64 `json:"energyKwh"`
}

// DaySchedule is one day of a month plan
type DaySchedule struct {
	Day         int          `json:"day"`
	Date        time.Time    `json:"date"`
	Weekend     bool         `json:"weekend"`
	Allocations []Allocation `json:"allocations"`
	TotalCost   float64      `json:"totalCost"`
	TotalKWh    float64      `json:"totalKwh"`
	// OverBudget marks a soft violation: the trimmer exhausted every
	// reduction tier without meeting the day's budget.
	OverBudget bool `json:"overBudget,omitempty"`
}

// MonthPlan is a completed plan variant. Never mutated after the scheduler
// completes; blending produces a new MonthPlan.
type MonthPlan struct {
	ID          string             `json:"id"`
	Type        PlanType           `json:"type"`
	Days        []DaySchedule      `json:"dailySchedules"`
	TotalCost   float64            `json:"totalCost"`
	TotalKWh    float64            `json:"totalKwh"`
	DailyBudget float64            `json:"dailyBudget"`
	PricePerKWh float64            `json:"pricePerKwh"`
	Metrics     map[string]float64 `json:"metrics"`
	DeviceIDs   []string           `json:"devices"`
}

// Thresholds configure the weather exclusion filter
type Thresholds struct {
	ColdBelowC float64 // cooling devices excluded below this temperature
	HotAboveC  float64 // heating devices excluded above this temperature
}

// DefaultThresholds returns the reference exclusion thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{ColdBelowC: 18, HotAboveC: 27}
}

// Proposal maps a 1-based day index to proposed hours per device id.
// Usually AI-suggested; the engine enforces all hard constraints on it.
type Proposal map[int]map[string]float64

// Hours returns the proposed hours for a device on a day, 0 if absent
func (p Proposal) Hours(day int, deviceID string) float64 {
	if p == nil {
		return 0
	}
	return p[day][deviceID]
}

// BaselineProposal builds the deterministic fallback proposal: every device
// at its user-declared baseline hours on every day of the horizon
func BaselineProposal(devices []Device, days int) Proposal {
	p := make(Proposal, days)
	for day := 1; day <= days; day++ {
		dh := make(map[string]float64, len(devices))
		for _, d := range devices {
			dh[d.ID] = d.BaselineHours
		}
		p[day] = dh
	}
	return p
}
