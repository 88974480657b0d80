package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wattplan/wattplan/internal/engine"
)

// Store handles persistent storage using SQLite
type Store struct {
	db *sql.DB
}

// Settings holds household-level planning configuration
type Settings struct {
	MonthlyBudget float64 `json:"monthlyBudget"`
	PricePerKWh   float64 `json:"pricePerKwh"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ColdBelowC    float64 `json:"coldBelowC"`
	HotAboveC     float64 `json:"hotAboveC"`
	AIModel       string  `json:"aiModel"`
}

// Thresholds converts the stored values into engine thresholds,
// falling back to the defaults when unset
func (s Settings) Thresholds() engine.Thresholds {
	th := engine.Thresholds{ColdBelowC: s.ColdBelowC, HotAboveC: s.HotAboveC}
	if th == (engine.Thresholds{}) {
		return engine.DefaultThresholds()
	}
	return th
}

// NewStore creates a new store and initializes the database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initialize creates the database schema
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		watts REAL NOT NULL,
		baseline_hours REAL DEFAULT 1.0,
		priority INTEGER DEFAULT 3,
		frequency TEXT DEFAULT 'daily',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		id TEXT PRIMARY KEY,
		monthly_budget REAL DEFAULT 0,
		price_per_kwh REAL DEFAULT 0,
		latitude REAL DEFAULT 6.5244,
		longitude REAL DEFAULT 3.3792,
		cold_below_c REAL DEFAULT 18,
		hot_above_c REAL DEFAULT 27,
		ai_model TEXT DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS device_tips (
		device_id TEXT PRIMARY KEY,
		tip TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS weather_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		start_date TEXT NOT NULL,
		days TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(latitude, longitude, start_date)
	);

	CREATE INDEX IF NOT EXISTS idx_plans_type ON plans(type, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveDevice saves or updates a device
func (s *Store) SaveDevice(d *engine.Device) error {
	query := `INSERT OR REPLACE INTO devices
		(id, name, type, watts, baseline_hours, priority, frequency, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, d.ID, d.Name, d.Type, d.Watts, d.BaselineHours,
		d.Priority, string(d.Frequency), time.Now())
	return err
}

// GetDevices retrieves all devices, most essential first
func (s *Store) GetDevices() ([]engine.Device, error) {
	query := `SELECT id, name, type, watts, baseline_hours, priority, frequency
		FROM devices ORDER BY priority DESC, name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := []engine.Device{}
	for rows.Next() {
		var d engine.Device
		var frequency string
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.Watts, &d.BaselineHours, &d.Priority, &frequency); err != nil {
			return nil, err
		}
		d.Frequency = engine.Frequency(frequency)
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// GetDevice retrieves a single device by ID
func (s *Store) GetDevice(id string) (*engine.Device, error) {
	query := `SELECT id, name, type, watts, baseline_hours, priority, frequency
		FROM devices WHERE id = ?`

	var d engine.Device
	var frequency string
	err := s.db.QueryRow(query, id).Scan(&d.ID, &d.Name, &d.Type, &d.Watts,
		&d.BaselineHours, &d.Priority, &frequency)
	if err != nil {
		return nil, err
	}
	d.Frequency = engine.Frequency(frequency)
	return &d, nil
}

// DeleteDevice deletes a device by ID
func (s *Store) DeleteDevice(id string) error {
	_, err := s.db.Exec(`DELETE FROM devices WHERE id = ?`, id)
	return err
}

// SaveSettings saves the household settings
func (s *Store) SaveSettings(set *Settings) error {
	query := `INSERT OR REPLACE INTO settings
		(id, monthly_budget, price_per_kwh, latitude, longitude, cold_below_c, hot_above_c, ai_model, updated_at)
		VALUES ('default', ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, set.MonthlyBudget, set.PricePerKWh, set.Latitude,
		set.Longitude, set.ColdBelowC, set.HotAboveC, set.AIModel, time.Now())
	return err
}

// GetSettings retrieves the household settings
func (s *Store) GetSettings() (*Settings, error) {
	query := `SELECT monthly_budget, price_per_kwh, latitude, longitude, cold_below_c, hot_above_c, ai_model
		FROM settings WHERE id = 'default'`

	var set Settings
	err := s.db.QueryRow(query).Scan(&set.MonthlyBudget, &set.PricePerKWh,
		&set.Latitude, &set.Longitude, &set.ColdBelowC, &set.HotAboveC, &set.AIModel)
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// SavePlan persists a completed plan variant
func (s *Store) SavePlan(plan *engine.MonthPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}

	query := `INSERT OR REPLACE INTO plans (id, type, payload, created_at) VALUES (?, ?, ?, ?)`
	_, err = s.db.Exec(query, plan.ID, string(plan.Type), string(payload), time.Now())
	return err
}

// LatestPlan retrieves the most recently stored plan of a variant
func (s *Store) LatestPlan(planType engine.PlanType) (*engine.MonthPlan, error) {
	query := `SELECT payload FROM plans WHERE type = ? ORDER BY created_at DESC LIMIT 1`

	var payload string
	if err := s.db.QueryRow(query, string(planType)).Scan(&payload); err != nil {
		return nil, err
	}

	var plan engine.MonthPlan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	return &plan, nil
}

// SaveDeviceTips stores the advisor's per-device usage tips
func (s *Store) SaveDeviceTips(tips map[string]string) error {
	for deviceID, tip := range tips {
		query := `INSERT OR REPLACE INTO device_tips (device_id, tip, updated_at) VALUES (?, ?, ?)`
		if _, err := s.db.Exec(query, deviceID, tip, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

// GetDeviceTips retrieves all stored device tips
func (s *Store) GetDeviceTips() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT device_id, tip FROM device_tips`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tips := map[string]string{}
	for rows.Next() {
		var id, tip string
		if err := rows.Scan(&id, &tip); err != nil {
			return nil, err
		}
		tips[id] = tip
	}
	return tips, rows.Err()
}

// CacheOutlook stores a fetched weather outlook
func (s *Store) CacheOutlook(lat, lon float64, start time.Time, days []engine.WeatherDay) error {
	payload, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("encoding outlook: %w", err)
	}

	query := `INSERT OR REPLACE INTO weather_cache (latitude, longitude, start_date, days, fetched_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err = s.db.Exec(query, lat, lon, start.Format("2006-01-02"), string(payload), time.Now())
	return err
}

// CachedOutlook retrieves a cached weather outlook, if fresh enough
func (s *Store) CachedOutlook(lat, lon float64, start time.Time, maxAge time.Duration) ([]engine.WeatherDay, error) {
	query := `SELECT days, fetched_at FROM weather_cache
		WHERE latitude = ? AND longitude = ? AND start_date = ?`

	var payload string
	var fetchedAt time.Time
	err := s.db.QueryRow(query, lat, lon, start.Format("2006-01-02")).Scan(&payload, &fetchedAt)
	if err != nil {
		return nil, err
	}
	if time.Since(fetchedAt) > maxAge {
		return nil, sql.ErrNoRows
	}

	var days []engine.WeatherDay
	if err := json.Unmarshal([]byte(payload), &days); err != nil {
		return nil, fmt.Errorf("decoding outlook: %w", err)
	}
	return days, nil
}
