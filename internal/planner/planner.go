// Package planner orchestrates one full planning run: it obtains the AI
// proposal (or the deterministic fallback), builds the cost and eco plans
// concurrently, and blends them into the balance plan.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wattplan/wattplan/internal/advisor"
	"github.com/wattplan/wattplan/internal/engine"
)

// ProposalSource abstracts the text-generation collaborator so runs can be
// tested without a live model
type ProposalSource interface {
	SuggestPlan(ctx context.Context, req advisor.PlanRequest) (*advisor.Suggestion, error)
}

// Config for one planning run
type Config struct {
	MonthlyBudget float64
	PricePerKWh   float64
	StartDate     time.Time
	Days          int
	Thresholds    engine.Thresholds
	Advisor       ProposalSource // nil: use the baseline proposal
	Seed          int64          // 0: time-seeded weekly-cap randomness
	Logger        *slog.Logger
}

// Result carries the three plan variants of a run
type Result struct {
	Cost       *engine.MonthPlan
	Eco        *engine.MonthPlan
	Balance    *engine.MonthPlan
	DeviceTips map[string]string
	// Warnings lists soft budget violations so callers can alert the user.
	Warnings []string
}

// Generate runs the full pipeline. An advisor failure is not fatal: the run
// falls back to the frequency-derived baseline proposal and carries on.
func Generate(ctx context.Context, devices []engine.Device, weatherDays []engine.WeatherDay, cfg Config) (*Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	days := cfg.Days
	if days <= 0 {
		days = engine.DefaultHorizonDays
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	proposal, tips := obtainProposal(ctx, devices, weatherDays, cfg, days, logger)

	planCfg := func(pt engine.PlanType, seedOffset int64) engine.PlanConfig {
		return engine.PlanConfig{
			Type:          pt,
			MonthlyBudget: cfg.MonthlyBudget,
			PricePerKWh:   cfg.PricePerKWh,
			StartDate:     cfg.StartDate,
			Days:          days,
			Thresholds:    cfg.Thresholds,
			Rand:          rand.New(rand.NewSource(seed + seedOffset)),
			Logger:        logger,
		}
	}

	// Cost and eco are independent; only the blend waits on both.
	var costPlan, ecoPlan *engine.MonthPlan
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		costPlan, err = engine.BuildMonthPlan(devices, weatherDays, proposal, planCfg(engine.PlanCost, 0))
		if err != nil {
			return fmt.Errorf("cost plan: %w", err)
		}
		return gctx.Err()
	})
	g.Go(func() error {
		var err error
		ecoPlan, err = engine.BuildMonthPlan(devices, weatherDays, proposal, planCfg(engine.PlanEco, 1))
		if err != nil {
			return fmt.Errorf("eco plan: %w", err)
		}
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	balance, err := engine.BlendPlans(costPlan, ecoPlan, devices, logger)
	if err != nil {
		return nil, fmt.Errorf("balance plan: %w", err)
	}

	costPlan.ID = uuid.New().String()
	ecoPlan.ID = uuid.New().String()
	balance.ID = uuid.New().String()

	res := &Result{Cost: costPlan, Eco: ecoPlan, Balance: balance, DeviceTips: tips}
	for _, p := range []*engine.MonthPlan{costPlan, ecoPlan, balance} {
		for _, day := range p.Days {
			if day.OverBudget {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("%s plan day %d exceeds the daily budget (%.2f > %.2f)",
						p.Type, day.Day, day.TotalCost, p.DailyBudget))
			}
		}
	}

	logger.Info("planning run complete",
		"costTotal", costPlan.TotalCost, "ecoTotal", ecoPlan.TotalCost,
		"balanceTotal", balance.TotalCost, "warnings", len(res.Warnings))
	return res, nil
}

func obtainProposal(ctx context.Context, devices []engine.Device, weatherDays []engine.WeatherDay, cfg Config, days int, logger *slog.Logger) (engine.Proposal, map[string]string) {
	if cfg.Advisor == nil {
		return nil, nil
	}

	suggestion, err := cfg.Advisor.SuggestPlan(ctx, advisor.PlanRequest{
		Devices:       devices,
		Weather:       weatherDays,
		MonthlyBudget: cfg.MonthlyBudget,
		DailyBudget:   cfg.MonthlyBudget / float64(days),
		PricePerKWh:   cfg.PricePerKWh,
		PlanType:      engine.PlanCost,
		Days:          days,
	})
	if err != nil {
		// Collaborator failures fall back to deterministic defaults.
		logger.Warn("advisor unavailable, using baseline proposal", "err", err)
		return nil, nil
	}
	return suggestion.Proposal, suggestion.DeviceTips
}
