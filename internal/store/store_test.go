package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattplan/wattplan/internal/engine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "wattplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDeviceRoundTrip(t *testing.T) {
	s := newTestStore(t)

	d := &engine.Device{
		ID: "ac1", Name: "Bedroom AC", Type: "Air Conditioner",
		Watts: 1500, BaselineHours: 8, Priority: 5, Frequency: engine.FrequencyDaily,
	}
	require.NoError(t, s.SaveDevice(d))

	got, err := s.GetDevice("ac1")
	require.NoError(t, err)
	assert.Equal(t, *d, *got)

	devices, err := s.GetDevices()
	require.NoError(t, err)
	require.Len(t, devices, 1)

	require.NoError(t, s.DeleteDevice("ac1"))
	_, err = s.GetDevice("ac1")
	assert.Error(t, err)
}

func TestDevicesOrderedByPriority(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveDevice(&engine.Device{ID: "tv", Name: "TV", Type: "Television", Watts: 120, Priority: 2, Frequency: engine.FrequencyDaily}))
	require.NoError(t, s.SaveDevice(&engine.Device{ID: "fridge", Name: "Fridge", Type: "Refrigerator", Watts: 200, Priority: 5, Frequency: engine.FrequencyDaily}))

	devices, err := s.GetDevices()
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "fridge", devices[0].ID)
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	set := &Settings{
		MonthlyBudget: 45000, PricePerKWh: 225,
		Latitude: 6.5244, Longitude: 3.3792,
		ColdBelowC: 19, HotAboveC: 28, AIModel: "gpt-4o-mini",
	}
	require.NoError(t, s.SaveSettings(set))

	got, err := s.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, *set, *got)
	assert.Equal(t, engine.Thresholds{ColdBelowC: 19, HotAboveC: 28}, got.Thresholds())
}

func TestSettingsThresholdsDefault(t *testing.T) {
	set := Settings{}
	assert.Equal(t, engine.DefaultThresholds(), set.Thresholds())
}

func TestPlanRoundTrip(t *testing.T) {
	s := newTestStore(t)

	plan := &engine.MonthPlan{
		ID:   "p1",
		Type: engine.PlanCost,
		Days: []engine.DaySchedule{{
			Day: 1, Weekend: false,
			Allocations: []engine.Allocation{{DeviceID: "ac1", Hours: 1.3, Cost: 97.5, EnergyKWh: 1.95}},
			TotalCost:   97.5, TotalKWh: 1.95,
		}},
		TotalCost: 97.5, TotalKWh: 1.95, DailyBudget: 100, PricePerKWh: 50,
		Metrics:   map[string]float64{"totalCost": 97.5},
		DeviceIDs: []string{"ac1"},
	}
	require.NoError(t, s.SavePlan(plan))

	got, err := s.LatestPlan(engine.PlanCost)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)
	assert.Equal(t, plan.Days[0].Allocations, got.Days[0].Allocations)
	assert.Equal(t, plan.Metrics, got.Metrics)

	_, err = s.LatestPlan(engine.PlanEco)
	assert.Error(t, err, "no eco plan stored yet")
}

func TestDeviceTips(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveDeviceTips(map[string]string{"ac1": "raise the thermostat", "tv": "use eco mode"}))

	tips, err := s.GetDeviceTips()
	require.NoError(t, err)
	assert.Equal(t, "raise the thermostat", tips["ac1"])
	assert.Len(t, tips, 2)
}

func TestWeatherCache(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	days := []engine.WeatherDay{{Day: 1, Date: start, AvgTempC: 30, Condition: "partly cloudy"}}
	require.NoError(t, s.CacheOutlook(6.5244, 3.3792, start, days))

	got, err := s.CachedOutlook(6.5244, 3.3792, start, time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 30.0, got[0].AvgTempC)

	// Stale entries read as a miss.
	_, err = s.CachedOutlook(6.5244, 3.3792, start, -time.Second)
	assert.Error(t, err)
}
