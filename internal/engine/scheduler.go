package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

var (
	ErrNoDevices          = errors.New("no devices configured")
	ErrNoPrice            = errors.New("price per kWh must be positive")
	ErrNoBudget           = errors.New("monthly budget must be positive")
	ErrWeatherUnavailable = errors.New("upstream weather data unavailable for the full horizon")
)

// DefaultHorizonDays is the planning horizon
const DefaultHorizonDays = 30

// PlanConfig parametrizes one plan variant. The same scheduler builds every
// variant; only the configuration differs.
type PlanConfig struct {
	Type          PlanType
	MonthlyBudget float64
	PricePerKWh   float64
	StartDate     time.Time
	Days          int        // horizon length, DefaultHorizonDays if 0
	Thresholds    Thresholds // zero value replaced by DefaultThresholds
	Rand          *rand.Rand // weekly-cap day selection; seeded from time if nil
	Logger        *slog.Logger
}

// DailyBudget is the per-day spend ceiling
func (c PlanConfig) DailyBudget() float64 {
	days := c.Days
	if days <= 0 {
		days = DefaultHorizonDays
	}
	return c.MonthlyBudget / float64(days)
}

// BuildMonthPlan drives the full pipeline for one plan variant: weather
// exclusion, frequency enforcement, the weekly-cap pass, and per-day budget
// trimming, then assembles the month's aggregates. Each day's trimming
// operates on a private copy of that day's allocations; no state is shared
// between days beyond the frequency week partition.
func BuildMonthPlan(devices []Device, weatherDays []WeatherDay, proposal Proposal, cfg PlanConfig) (*MonthPlan, error) {
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}
	if cfg.PricePerKWh <= 0 {
		return nil, ErrNoPrice
	}
	if cfg.MonthlyBudget <= 0 {
		return nil, ErrNoBudget
	}

	days := cfg.Days
	if days <= 0 {
		days = DefaultHorizonDays
	}
	if len(weatherDays) < days {
		return nil, fmt.Errorf("%w: have %d of %d days", ErrWeatherUnavailable, len(weatherDays), days)
	}

	th := cfg.Thresholds
	if th == (Thresholds{}) {
		th = DefaultThresholds()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if proposal == nil {
		proposal = BaselineProposal(devices, days)
	}

	// First pass: per-day enforced hours for the whole horizon.
	dayHours := make([]map[string]float64, days)
	dayExcluded := make([]map[string]bool, days)
	for i := 0; i < days; i++ {
		wd := weatherDays[i]
		date := cfg.StartDate.AddDate(0, 0, i)
		weekend := isWeekend(date)
		excluded := ExcludedDevices(wd, devices, th)

		hours := make(map[string]float64, len(devices))
		for _, d := range devices {
			if excluded[d.ID] {
				continue
			}
			hours[d.ID] = ApplyFrequency(d, proposal.Hours(i+1, d.ID), weekend, cfg.Type)
		}
		dayHours[i] = hours
		dayExcluded[i] = excluded
	}

	// Second pass: cap rarely/frequently devices to 3 active days per week.
	EnforceWeeklyCaps(dayHours, devices, rng)

	// Third pass: trim each day to its budget and assemble the schedule.
	plan := &MonthPlan{
		Type:        cfg.Type,
		Days:        make([]DaySchedule, 0, days),
		DailyBudget: round2(cfg.DailyBudget()),
		PricePerKWh: cfg.PricePerKWh,
	}
	for _, d := range devices {
		plan.DeviceIDs = append(plan.DeviceIDs, d.ID)
	}

	dailyBudget := cfg.DailyBudget()
	for i := 0; i < days; i++ {
		date := cfg.StartDate.AddDate(0, 0, i)

		items := make([]TrimDevice, 0, len(devices))
		for _, d := range devices {
			h, ok := dayHours[i][d.ID]
			if !ok || h <= 0 {
				continue
			}
			items = append(items, TrimDevice{
				DeviceID:   d.ID,
				Hours:      h,
				Watts:      d.Watts,
				Priority:   d.Priority,
				FloorHours: DailyFloor(d),
			})
		}

		res := TrimToBudget(items, dailyBudget, cfg.PricePerKWh, logger)
		if !res.BudgetMet {
			logger.Warn("day exceeds budget after trimming",
				"plan", string(cfg.Type), "day", i+1, "cost", res.TotalCost, "budget", dailyBudget)
		}

		plan.Days = append(plan.Days, DaySchedule{
			Day:         i + 1,
			Date:        date,
			Weekend:     isWeekend(date),
			Allocations: res.Allocations,
			TotalCost:   res.TotalCost,
			TotalKWh:    res.TotalKWh,
			OverBudget:  !res.BudgetMet,
		})
		plan.TotalCost += res.TotalCost
		plan.TotalKWh += res.TotalKWh
	}

	plan.TotalCost = round2(plan.TotalCost)
	plan.TotalKWh = round2(plan.TotalKWh)
	plan.Metrics = planMetrics(plan, devices, cfg.MonthlyBudget)
	return plan, nil
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// planMetrics summarizes a finished plan; the keys differ per variant
func planMetrics(plan *MonthPlan, devices []Device, monthlyBudget float64) map[string]float64 {
	m := map[string]float64{
		"totalCost":    plan.TotalCost,
		"totalKwh":     plan.TotalKWh,
		"avgDailyCost": round2(plan.TotalCost / float64(len(plan.Days))),
	}

	switch plan.Type {
	case PlanCost, PlanBalance:
		if monthlyBudget > 0 {
			m["budgetUtilisation"] = round2(plan.TotalCost / monthlyBudget)
		}
	}

	if plan.Type == PlanEco || plan.Type == PlanBalance {
		dirty := make(map[string]bool, len(devices))
		for _, d := range devices {
			if highEmission(d.Emission()) {
				dirty[d.ID] = true
			}
		}
		highKWh := 0.0
		for _, day := range plan.Days {
			for _, a := range day.Allocations {
				if dirty[a.DeviceID] {
					highKWh += a.EnergyKWh
				}
			}
		}
		m["highEmissionKwh"] = round2(highKWh)
		if plan.TotalKWh > 0 {
			m["highEmissionShare"] = round2(highKWh / plan.TotalKWh)
		}
	}

	return m
}
