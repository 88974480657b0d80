package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wattplan/wattplan/internal/advisor"
	"github.com/wattplan/wattplan/internal/engine"
	"github.com/wattplan/wattplan/internal/planner"
	"github.com/wattplan/wattplan/internal/store"
	"github.com/wattplan/wattplan/internal/weather"
)

var (
	cfgFile string
	dbPath  string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wattplan",
		Short: "WattPlan - Monthly electricity plans that fit your budget",
		Long: `WattPlan builds 30-day usage plans for your household devices,
balancing your monthly budget against comfort and emissions.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wattplan/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default is $HOME/.wattplan/wattplan.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(deviceCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(weatherCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".wattplan")
		os.MkdirAll(configDir, 0755)

		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("wattplan")
	viper.AutomaticEnv()
	viper.ReadInConfig()

	if dbPath == "" {
		home, _ := os.UserHomeDir()
		dbPath = filepath.Join(home, ".wattplan", "wattplan.db")
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newAdvisor returns nil when no API key is configured; planning then
// starts from the baseline proposal
func newAdvisor(logger *slog.Logger) planner.ProposalSource {
	apiKey := viper.GetString("openai_api_key")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil
	}

	adv, err := advisor.NewOpenAI(apiKey, viper.GetString("openai_model"), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: advisor unavailable: %v\n", err)
		return nil
	}
	return adv
}

func initCmd() *cobra.Command {
	var budget, price, lat, lon float64

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize WattPlan with household settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			settings := &store.Settings{
				MonthlyBudget: budget,
				PricePerKWh:   price,
				Latitude:      lat,
				Longitude:     lon,
			}

			if err := st.SaveSettings(settings); err != nil {
				return err
			}

			fmt.Println("✓ Initialized household settings")
			fmt.Printf("Database: %s\n", dbPath)
			fmt.Printf("Monthly budget: %.2f, price per kWh: %.2f\n", budget, price)
			fmt.Println("\nNext steps:")
			fmt.Println("  1. Add devices: wattplan device add")
			fmt.Println("  2. Generate plans: wattplan plan")

			return nil
		},
	}

	cmd.Flags().Float64VarP(&budget, "budget", "b", 0, "Monthly electricity budget (required)")
	cmd.Flags().Float64VarP(&price, "price", "p", 0, "Electricity price per kWh (required)")
	cmd.Flags().Float64Var(&lat, "lat", 6.5244, "Latitude for weather")
	cmd.Flags().Float64Var(&lon, "lon", 3.3792, "Longitude for weather")

	cmd.MarkFlagRequired("budget")
	cmd.MarkFlagRequired("price")

	return cmd
}

func deviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manage household devices",
	}

	cmd.AddCommand(deviceAddCmd())
	cmd.AddCommand(deviceListCmd())
	cmd.AddCommand(deviceRemoveCmd())

	return cmd
}

func deviceAddCmd() *cobra.Command {
	var name, deviceType, frequency string
	var watts, hours float64
	var priority int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new device",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			device := &engine.Device{
				ID:            uuid.New().String(),
				Name:          name,
				Type:          deviceType,
				Watts:         watts,
				BaselineHours: hours,
				Priority:      priority,
				Frequency:     engine.Frequency(frequency),
			}

			if err := st.SaveDevice(device); err != nil {
				return err
			}

			fmt.Printf("✓ Added device: %s\n", name)
			fmt.Printf("  ID: %s\n", device.ID)
			fmt.Printf("  Power: %.0fW, baseline: %.1fh/day\n", watts, hours)
			fmt.Printf("  Weather sensitivity: %s, emissions: %s\n", device.Sensitivity(), device.Emission())

			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Device name (required)")
	cmd.Flags().StringVarP(&deviceType, "type", "t", "", "Device type, e.g. 'Air Conditioner'")
	cmd.Flags().Float64VarP(&watts, "watts", "w", 0, "Power rating in watts (required)")
	cmd.Flags().Float64Var(&hours, "hours", 1.0, "Baseline usage hours per day")
	cmd.Flags().IntVar(&priority, "priority", 3, "Priority (1=optional, 5=essential)")
	cmd.Flags().StringVarP(&frequency, "frequency", "f", "daily", "Usage frequency (daily, weekends, rarely, frequently)")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("watts")

	return cmd
}

func deviceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			devices, err := st.GetDevices()
			if err != nil {
				return err
			}

			if len(devices) == 0 {
				fmt.Println("No devices configured")
				return nil
			}

			fmt.Printf("%-25s %-38s %8s %8s %4s %-10s\n", "NAME", "ID", "WATTS", "HOURS", "PRI", "FREQ")
			fmt.Println("---------------------------------------------------------------------------------------------------")

			for _, d := range devices {
				fmt.Printf("%-25s %-38s %7.0fW %7.1fh %4d %-10s\n",
					d.Name, d.ID, d.Watts, d.BaselineHours, d.Priority, d.Frequency)
			}

			return nil
		},
	}
}

func deviceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteDevice(args[0]); err != nil {
				return err
			}

			fmt.Printf("✓ Removed device: %s\n", args[0])
			return nil
		},
	}
}

func planCmd() *cobra.Command {
	var startDate string
	var seed int64

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate cost, eco and balance plans for the next 30 days",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			logger := newLogger()

			st, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer st.Close()

			settings, err := st.GetSettings()
			if err != nil {
				return fmt.Errorf("getting settings: %w (run 'wattplan init' first)", err)
			}

			devices, err := st.GetDevices()
			if err != nil {
				return fmt.Errorf("getting devices: %w", err)
			}
			if len(devices) == 0 {
				return fmt.Errorf("no devices configured (use 'wattplan device add')")
			}

			start := startOfToday()
			if startDate != "" {
				start, err = time.Parse("2006-01-02", startDate)
				if err != nil {
					return fmt.Errorf("invalid start date (use YYYY-MM-DD): %w", err)
				}
			}

			client := weather.NewClient(settings.Latitude, settings.Longitude)
			weatherDays, err := client.Outlook(ctx, start, engine.DefaultHorizonDays)
			if err != nil {
				return fmt.Errorf("fetching weather: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Planning %d days from %s for %d devices\n",
				len(weatherDays), start.Format("2006-01-02"), len(devices))

			res, err := planner.Generate(ctx, devices, weatherDays, planner.Config{
				MonthlyBudget: settings.MonthlyBudget,
				PricePerKWh:   settings.PricePerKWh,
				StartDate:     start,
				Thresholds:    settings.Thresholds(),
				Advisor:       newAdvisor(logger),
				Seed:          seed,
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			for _, plan := range []*engine.MonthPlan{res.Cost, res.Eco, res.Balance} {
				if err := st.SavePlan(plan); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: saving %s plan: %v\n", plan.Type, err)
				}
			}
			if len(res.DeviceTips) > 0 {
				if err := st.SaveDeviceTips(res.DeviceTips); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: saving device tips: %v\n", err)
				}
			}

			for _, warning := range res.Warnings {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]*engine.MonthPlan{
				"cost":    res.Cost,
				"eco":     res.Eco,
				"balance": res.Balance,
			})
		},
	}

	cmd.Flags().StringVarP(&startDate, "start", "s", "", "Plan start date (YYYY-MM-DD, default today)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for reproducible plans (0 = random)")

	return cmd
}

func weatherCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Show the weather outlook used for planning",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			settings, err := st.GetSettings()
			if err != nil {
				return fmt.Errorf("getting settings: %w (run 'wattplan init' first)", err)
			}

			client := weather.NewClient(settings.Latitude, settings.Longitude)
			outlook, err := client.Outlook(context.Background(), startOfToday(), days)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(outlook)
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", engine.DefaultHorizonDays, "Number of days")

	return cmd
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
