package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/wattplan/wattplan/internal/advisor"
	"github.com/wattplan/wattplan/internal/api"
	"github.com/wattplan/wattplan/internal/engine"
	"github.com/wattplan/wattplan/internal/planner"
	"github.com/wattplan/wattplan/internal/store"
	"github.com/wattplan/wattplan/internal/weather"
)

func main() {
	var port int
	var dbPath string
	var refreshSpec string

	rootCmd := &cobra.Command{
		Use:   "wattpland",
		Short: "WattPlan HTTP server with scheduled plan refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				home, _ := os.UserHomeDir()
				dbPath = filepath.Join(home, ".wattplan", "wattplan.db")
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			st, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer st.Close()

			var adv planner.ProposalSource
			if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
				a, err := advisor.NewOpenAI(apiKey, "", logger)
				if err != nil {
					logger.Warn("advisor unavailable, plans use the baseline proposal", "err", err)
				} else {
					adv = a
				}
			}

			c := cron.New()
			if _, err := c.AddFunc(refreshSpec, func() {
				if err := refreshPlans(st, adv, logger); err != nil {
					logger.Error("scheduled plan refresh", "err", err)
				}
			}); err != nil {
				return fmt.Errorf("registering refresh job: %w", err)
			}
			c.Start()
			defer c.Stop()

			srv := api.NewServer(st, adv, logger)

			addr := fmt.Sprintf(":%d", port)
			logger.Info("wattpland starting", "addr", addr, "db", dbPath, "refresh", refreshSpec)

			return http.ListenAndServe(addr, srv.Handler())
		},
	}

	rootCmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP port")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Database path")
	rootCmd.Flags().StringVar(&refreshSpec, "refresh", "0 5 * * *", "Cron spec for the daily plan refresh")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// refreshPlans regenerates and persists all three plan variants, so the
// API always serves a plan that starts today
func refreshPlans(st *store.Store, adv planner.ProposalSource, logger *slog.Logger) error {
	ctx := context.Background()

	settings, err := st.GetSettings()
	if err != nil {
		return fmt.Errorf("getting settings: %w", err)
	}
	if settings.MonthlyBudget <= 0 || settings.PricePerKWh <= 0 {
		logger.Info("skipping plan refresh, budget or price not configured")
		return nil
	}

	devices, err := st.GetDevices()
	if err != nil {
		return fmt.Errorf("getting devices: %w", err)
	}
	if len(devices) == 0 {
		logger.Info("skipping plan refresh, no devices configured")
		return nil
	}

	start := api.StartOfToday()
	client := weather.NewClient(settings.Latitude, settings.Longitude)
	weatherDays, err := client.Outlook(ctx, start, engine.DefaultHorizonDays)
	if err != nil {
		return fmt.Errorf("fetching weather: %w", err)
	}

	res, err := planner.Generate(ctx, devices, weatherDays, planner.Config{
		MonthlyBudget: settings.MonthlyBudget,
		PricePerKWh:   settings.PricePerKWh,
		StartDate:     start,
		Thresholds:    settings.Thresholds(),
		Advisor:       adv,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("generating plans: %w", err)
	}

	for _, plan := range []*engine.MonthPlan{res.Cost, res.Eco, res.Balance} {
		if err := st.SavePlan(plan); err != nil {
			return fmt.Errorf("saving %s plan: %w", plan.Type, err)
		}
	}
	if len(res.DeviceTips) > 0 {
		if err := st.SaveDeviceTips(res.DeviceTips); err != nil {
			logger.Warn("saving device tips", "err", err)
		}
	}

	logger.Info("plans refreshed", "devices", len(devices), "days", len(weatherDays))
	return nil
}
