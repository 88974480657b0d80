package advisor

import (
	"encoding/json"
	"fmt"
	"strings"
)

var planGoals = map[string]string{
	"cost":    "minimize total monthly spend while keeping essential devices usable",
	"eco":     "minimize environmental impact, cutting hours on high-emission devices hardest",
	"balance": "balance cost savings against everyday comfort",
}

// BuildPrompt renders the structured request into the model prompt. The
// payload travels as JSON so the model sees exact wattages and budgets.
func BuildPrompt(req PlanRequest) (string, error) {
	days := req.Days
	if days <= 0 {
		days = 30
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding request payload: %w", err)
	}

	goal := planGoals[string(req.PlanType)]
	if goal == "" {
		goal = planGoals["cost"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are planning household electricity usage for the next %d days.\n", days)
	fmt.Fprintf(&b, "Goal: %s.\n", goal)
	fmt.Fprintf(&b, "The daily spend ceiling is %.2f at %.2f per kWh.\n\n", req.DailyBudget, req.PricePerKWh)
	b.WriteString("Household data (devices, weather outlook, budget):\n")
	b.Write(payload)
	b.WriteString("\n\nRespond with JSON only, shaped exactly like:\n")
	b.WriteString(`{"plan":{"day1":{"devices":{"<deviceId>":{"hours":1.5,"cost":12.0}},"totalCost":12.0},` +
		`"day2":{...}},"deviceTips":{"<deviceId>":"one short usage tip"}}` + "\n")
	fmt.Fprintf(&b, "Include every day from day1 to day%d. Hours are decimal hours per device per day.\n", days)

	return b.String(), nil
}
