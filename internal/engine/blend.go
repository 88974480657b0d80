package engine

import (
	"fmt"
	"log/slog"
	"sort"
)

// BlendPlans combines two completed plans into the balance variant: for each
// day it takes the union of device ids, averages their hours (absence counts
// as zero), and re-trims against the blended daily budget. The sources are
// not modified; blending always builds a fresh MonthPlan.
func BlendPlans(a, b *MonthPlan, devices []Device, logger *slog.Logger) (*MonthPlan, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("blend requires two completed plans")
	}
	if len(a.Days) != len(b.Days) {
		return nil, fmt.Errorf("blend requires equal horizons: %d vs %d days", len(a.Days), len(b.Days))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	byID := make(map[string]Device, len(devices))
	for _, d := range devices {
		byID[d.ID] = d
	}

	dailyBudget := (a.DailyBudget + b.DailyBudget) / 2
	price := (a.PricePerKWh + b.PricePerKWh) / 2

	plan := &MonthPlan{
		Type:        PlanBalance,
		Days:        make([]DaySchedule, 0, len(a.Days)),
		DailyBudget: round2(dailyBudget),
		PricePerKWh: price,
	}

	seen := make(map[string]bool)
	for i := range a.Days {
		dayA, dayB := a.Days[i], b.Days[i]

		avg := make(map[string]float64)
		for _, alloc := range dayA.Allocations {
			avg[alloc.DeviceID] += alloc.Hours / 2
		}
		for _, alloc := range dayB.Allocations {
			avg[alloc.DeviceID] += alloc.Hours / 2
		}

		ids := make([]string, 0, len(avg))
		for id := range avg {
			ids = append(ids, id)
			seen[id] = true
		}
		sort.Strings(ids)

		items := make([]TrimDevice, 0, len(ids))
		for _, id := range ids {
			if avg[id] <= 0 {
				continue
			}
			d, ok := byID[id]
			if !ok {
				logger.Warn("blended plan references unknown device", "deviceId", id)
				continue
			}
			items = append(items, TrimDevice{
				DeviceID:   id,
				Hours:      avg[id],
				Watts:      d.Watts,
				Priority:   d.Priority,
				FloorHours: DailyFloor(d),
			})
		}

		res := TrimToBudget(items, dailyBudget, price, logger)
		plan.Days = append(plan.Days, DaySchedule{
			Day:         dayA.Day,
			Date:        dayA.Date,
			Weekend:     dayA.Weekend,
			Allocations: res.Allocations,
			TotalCost:   res.TotalCost,
			TotalKWh:    res.TotalKWh,
			OverBudget:  !res.BudgetMet,
		})
		plan.TotalCost += res.TotalCost
		plan.TotalKWh += res.TotalKWh
	}

	for id := range seen {
		plan.DeviceIDs = append(plan.DeviceIDs, id)
	}
	sort.Strings(plan.DeviceIDs)

	plan.TotalCost = round2(plan.TotalCost)
	plan.TotalKWh = round2(plan.TotalKWh)
	plan.Metrics = planMetrics(plan, devices, dailyBudget*float64(len(plan.Days)))
	return plan, nil
}
