// Package advisor talks to the text-generation collaborator that proposes
// per-day device hours. The engine never trusts the proposal: every hard
// constraint is re-enforced downstream, so this package only needs to get
// a best-effort proposal out of free-form model output.
package advisor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/wattplan/wattplan/internal/engine"
)

const defaultModel = "gpt-4o-mini"

// Advisor wraps a text-generation model behind the proposal contract
type Advisor struct {
	model  llms.Model
	logger *slog.Logger
}

// New creates an advisor around any langchaingo model
func New(model llms.Model, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Advisor{model: model, logger: logger}
}

// NewOpenAI creates an advisor backed by an OpenAI-compatible endpoint.
// Model defaults to defaultModel when empty; the API key is read from
// OPENAI_API_KEY when apiKey is empty.
func NewOpenAI(apiKey, model string, logger *slog.Logger) (*Advisor, error) {
	if model == "" {
		model = defaultModel
	}

	opts := []openai.Option{openai.WithModel(model)}
	if apiKey != "" {
		opts = append(opts, openai.WithToken(apiKey))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}
	return New(client, logger), nil
}

// SuggestPlan asks the model for a 30-day device-hours proposal. The
// response may be free-form text; the parser tolerates missing days,
// missing devices and non-numeric fields by substituting zeros.
func (a *Advisor) SuggestPlan(ctx context.Context, req PlanRequest) (*Suggestion, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, a.model, prompt,
		llms.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("generating proposal: %w", err)
	}

	suggestion, err := ParseSuggestion(resp)
	if err != nil {
		return nil, fmt.Errorf("parsing proposal: %w", err)
	}

	a.logger.Debug("advisor proposal parsed",
		"plan", string(req.PlanType), "days", len(suggestion.Proposal), "tips", len(suggestion.DeviceTips))
	return suggestion, nil
}

// PlanRequest is the structured payload handed to the model
type PlanRequest struct {
	Devices       []engine.Device     `json:"devices"`
	Weather       []engine.WeatherDay `json:"weather"`
	MonthlyBudget float64             `json:"monthlyBudget"`
	DailyBudget   float64             `json:"dailyBudget"`
	PricePerKWh   float64             `json:"pricePerKwh"`
	PlanType      engine.PlanType     `json:"planType"`
	Days          int                 `json:"days"`
}

// Suggestion is the parsed best-effort model output
type Suggestion struct {
	Proposal   engine.Proposal
	DeviceTips map[string]string
}
