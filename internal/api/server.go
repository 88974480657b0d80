package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/wattplan/wattplan/internal/engine"
	"github.com/wattplan/wattplan/internal/planner"
	"github.com/wattplan/wattplan/internal/store"
	"github.com/wattplan/wattplan/internal/weather"
)

// weatherCacheMaxAge keeps outlooks fresh enough for same-day planning
const weatherCacheMaxAge = 6 * time.Hour

// Server exposes the planning engine over HTTP
type Server struct {
	store   *store.Store
	advisor planner.ProposalSource // may be nil; runs fall back to baseline
	logger  *slog.Logger
}

// NewServer creates the API server
func NewServer(st *store.Store, adv planner.ProposalSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, advisor: adv, logger: logger}
}

// Handler builds the route tree
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/devices", s.handleGetDevices)
		r.Post("/devices", s.handleCreateDevice)
		r.Get("/devices/{id}", s.handleGetDevice)
		r.Put("/devices/{id}", s.handleUpdateDevice)
		r.Delete("/devices/{id}", s.handleDeleteDevice)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)

		r.Get("/weather", s.handleGetWeather)
		r.Get("/tips", s.handleGetTips)

		r.Post("/plans/generate", s.handleGeneratePlans)
		r.Get("/plans/{type}", s.handleGetPlan)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": "1.0.0",
	})
}

func (s *Server) handleGetDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.store.GetDevices()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, devices)
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var device engine.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if device.Name == "" || device.Watts <= 0 {
		respondError(w, http.StatusBadRequest, "device needs a name and a positive wattage")
		return
	}

	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	if device.Frequency == "" {
		device.Frequency = engine.FrequencyDaily
	}

	if err := s.store.SaveDevice(&device); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, device)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.store.GetDevice(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "device not found")
		return
	}
	respondJSON(w, http.StatusOK, device)
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var device engine.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	device.ID = chi.URLParam(r, "id")
	if err := s.store.SaveDevice(&device); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, device)
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteDevice(id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "deleted", "id": id})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings()
	if err != nil {
		respondError(w, http.StatusNotFound, "settings not configured")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings store.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.SaveSettings(&settings); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleGetWeather(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings()
	if err != nil {
		respondError(w, http.StatusNotFound, "settings not configured")
		return
	}

	days, err := s.outlook(r, settings)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to fetch weather: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, days)
}

func (s *Server) handleGetTips(w http.ResponseWriter, r *http.Request) {
	tips, err := s.store.GetDeviceTips()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tips)
}

func (s *Server) handleGeneratePlans(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings()
	if err != nil {
		respondError(w, http.StatusBadRequest, "settings not configured (set budget and price first)")
		return
	}
	if settings.PricePerKWh <= 0 || settings.MonthlyBudget <= 0 {
		respondError(w, http.StatusBadRequest, "monthly budget and price per kWh must be set")
		return
	}

	devices, err := s.store.GetDevices()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(devices) == 0 {
		respondError(w, http.StatusBadRequest, "no devices configured")
		return
	}

	weatherDays, err := s.outlook(r, settings)
	if err != nil {
		respondError(w, http.StatusBadGateway, "weather unavailable: "+err.Error())
		return
	}

	res, err := planner.Generate(r.Context(), devices, weatherDays, planner.Config{
		MonthlyBudget: settings.MonthlyBudget,
		PricePerKWh:   settings.PricePerKWh,
		StartDate:     StartOfToday(),
		Thresholds:    settings.Thresholds(),
		Advisor:       s.advisor,
		Logger:        s.logger,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for _, plan := range []*engine.MonthPlan{res.Cost, res.Eco, res.Balance} {
		if err := s.store.SavePlan(plan); err != nil {
			s.logger.Error("persisting plan", "type", string(plan.Type), "err", err)
		}
	}
	if len(res.DeviceTips) > 0 {
		if err := s.store.SaveDeviceTips(res.DeviceTips); err != nil {
			s.logger.Error("persisting device tips", "err", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"cost":     res.Cost,
		"eco":      res.Eco,
		"balance":  res.Balance,
		"warnings": res.Warnings,
	})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planType := engine.PlanType(chi.URLParam(r, "type"))
	switch planType {
	case engine.PlanCost, engine.PlanEco, engine.PlanBalance:
	default:
		respondError(w, http.StatusBadRequest, "plan type must be cost, eco or balance")
		return
	}

	plan, err := s.store.LatestPlan(planType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "no plan generated yet")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// outlook serves the cached weather outlook, refreshing it when stale
func (s *Server) outlook(r *http.Request, settings *store.Settings) ([]engine.WeatherDay, error) {
	start := StartOfToday()

	if days, err := s.store.CachedOutlook(settings.Latitude, settings.Longitude, start, weatherCacheMaxAge); err == nil {
		return days, nil
	}

	client := weather.NewClient(settings.Latitude, settings.Longitude)
	days, err := client.Outlook(r.Context(), start, engine.DefaultHorizonDays)
	if err != nil {
		return nil, err
	}

	if err := s.store.CacheOutlook(settings.Latitude, settings.Longitude, start, days); err != nil {
		s.logger.Warn("caching weather outlook", "err", err)
	}
	return days, nil
}

// StartOfToday is the canonical plan start used by the server and the
// daemon's scheduled refresh
func StartOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
