package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattplan/wattplan/internal/engine"
)

func TestParseSuggestionPlain(t *testing.T) {
	resp := `{"plan":{"day1":{"devices":{"ac1":{"hours":2.5,"cost":187.5},"tv":{"hours":4,"cost":24}},"totalCost":211.5},` +
		`"day2":{"devices":{"ac1":{"hours":3,"cost":225}},"totalCost":225}},` +
		`"deviceTips":{"ac1":"Run at 24C overnight"}}`

	s, err := ParseSuggestion(resp)
	require.NoError(t, err)

	assert.Equal(t, 2.5, s.Proposal.Hours(1, "ac1"))
	assert.Equal(t, 4.0, s.Proposal.Hours(1, "tv"))
	assert.Equal(t, 3.0, s.Proposal.Hours(2, "ac1"))
	assert.Equal(t, "Run at 24C overnight", s.DeviceTips["ac1"])
}

func TestParseSuggestionMarkdownWrapped(t *testing.T) {
	resp := "Here is your optimized plan:\n\n```json\n" +
		`{"plan":{"day1":{"devices":{"fan":{"hours":6,"cost":9}},"totalCost":9}}}` +
		"\n```\n\nLet me know if you want adjustments!"

	s, err := ParseSuggestion(resp)
	require.NoError(t, err)
	assert.Equal(t, 6.0, s.Proposal.Hours(1, "fan"))
}

func TestParseSuggestionToleratesBadFields(t *testing.T) {
	resp := `{"plan":{
		"day1":{"devices":{"tv":{"hours":"3.5","cost":"abc"}},"totalCost":"n/a"},
		"day2":{"devices":{"tv":{"hours":"not a number"}}},
		"dayX":{"devices":{"tv":{"hours":2}}},
		"day4":{}
	}}`

	s, err := ParseSuggestion(resp)
	require.NoError(t, err)

	// Quoted numbers parse, garbage becomes zero, malformed day keys drop.
	assert.Equal(t, 3.5, s.Proposal.Hours(1, "tv"))
	assert.Equal(t, 0.0, s.Proposal.Hours(2, "tv"))
	assert.Equal(t, 0.0, s.Proposal.Hours(4, "tv"))
}

func TestParseSuggestionMissingDaysAndDevices(t *testing.T) {
	resp := `{"plan":{"day7":{"devices":{"tv":{"hours":1}}}}}`

	s, err := ParseSuggestion(resp)
	require.NoError(t, err)

	// Absent entries read as zero; the engine lifts floors afterwards.
	assert.Equal(t, 1.0, s.Proposal.Hours(7, "tv"))
	assert.Equal(t, 0.0, s.Proposal.Hours(7, "ac1"))
	assert.Equal(t, 0.0, s.Proposal.Hours(1, "tv"))
}

func TestParseSuggestionNoJSON(t *testing.T) {
	_, err := ParseSuggestion("I'm sorry, I can't produce a plan right now.")
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	req := PlanRequest{
		Devices: []engine.Device{
			{ID: "ac1", Type: "Air Conditioner", Watts: 1500, BaselineHours: 8, Priority: 5, Frequency: engine.FrequencyDaily},
		},
		MonthlyBudget: 45000,
		DailyBudget:   1500,
		PricePerKWh:   225,
		PlanType:      engine.PlanEco,
		Days:          30,
	}

	prompt, err := BuildPrompt(req)
	require.NoError(t, err)

	assert.Contains(t, prompt, "ac1")
	assert.Contains(t, prompt, "environmental impact")
	assert.Contains(t, prompt, "day30")
	assert.Contains(t, prompt, `"hours"`)
}
