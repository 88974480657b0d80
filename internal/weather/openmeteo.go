// Package weather supplies the engine's fixed-length daily outlook: real
// Open-Meteo forecast days first, seasonal averages for the remainder of
// the horizon.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wattplan/wattplan/internal/engine"
)

const openMeteoAPIBase = "https://api.open-meteo.com/v1/forecast"

// maxForecastDays is Open-Meteo's real-forecast horizon
const maxForecastDays = 16

// Client fetches the daily weather outlook for a location
type Client struct {
	httpClient *http.Client
	latitude   float64
	longitude  float64
}

// NewClient creates an Open-Meteo client for a location
func NewClient(lat, lon float64) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		latitude:   lat,
		longitude:  lon,
	}
}

// openMeteoResponse represents the API response
type openMeteoResponse struct {
	Daily struct {
		Time        []string  `json:"time"`
		MaxTemp     []float64 `json:"temperature_2m_max"`
		MinTemp     []float64 `json:"temperature_2m_min"`
		Humidity    []float64 `json:"relative_humidity_2m_mean"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"daily"`
}

// Outlook returns one WeatherDay per day of the horizon starting at start.
// Days beyond the provider's forecast horizon are filled with seasonal
// averages for the location, so the result always has exactly days entries.
func (c *Client) Outlook(ctx context.Context, start time.Time, days int) ([]engine.WeatherDay, error) {
	forecastDays := days
	if forecastDays > maxForecastDays {
		forecastDays = maxForecastDays
	}

	out, err := c.forecast(ctx, start, forecastDays)
	if err != nil {
		return nil, err
	}

	for len(out) < days {
		i := len(out)
		out = append(out, SeasonalDay(i+1, start.AddDate(0, 0, i), c.latitude))
	}
	return out, nil
}

func (c *Client) forecast(ctx context.Context, start time.Time, days int) ([]engine.WeatherDay, error) {
	params := url.Values{}
	params.Add("latitude", fmt.Sprintf("%.4f", c.latitude))
	params.Add("longitude", fmt.Sprintf("%.4f", c.longitude))
	params.Add("daily", "temperature_2m_max,temperature_2m_min,relative_humidity_2m_mean,weather_code")
	params.Add("forecast_days", fmt.Sprintf("%d", days))
	params.Add("timezone", "auto")

	fullURL := fmt.Sprintf("%s?%s", openMeteoAPIBase, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather API returned status %d: %s", resp.StatusCode, string(body))
	}

	var meteoResp openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&meteoResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	out := make([]engine.WeatherDay, 0, len(meteoResp.Daily.Time))
	for i := range meteoResp.Daily.Time {
		date, err := time.Parse("2006-01-02", meteoResp.Daily.Time[i])
		if err != nil {
			continue
		}

		wd := engine.WeatherDay{
			Day:      len(out) + 1,
			Date:     date,
			TempMaxC: meteoResp.Daily.MaxTemp[i],
			TempMinC: meteoResp.Daily.MinTemp[i],
		}
		wd.AvgTempC = (wd.TempMaxC + wd.TempMinC) / 2
		if i < len(meteoResp.Daily.Humidity) {
			wd.Humidity = meteoResp.Daily.Humidity[i]
		}
		if i < len(meteoResp.Daily.WeatherCode) {
			wd.WeatherCode = meteoResp.Daily.WeatherCode[i]
			wd.Condition = CodeCondition(wd.WeatherCode)
		}

		out = append(out, wd)
	}

	return out, nil
}

// CodeCondition translates a WMO weather code into the textual descriptor
// the exclusion filter matches on
func CodeCondition(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 2:
		return "partly cloudy"
	case code == 3:
		return "overcast"
	case code <= 48:
		return "fog"
	case code <= 57:
		return "drizzle"
	case code <= 67:
		return "rain"
	case code <= 77:
		return "snow"
	case code <= 82:
		return "rain showers"
	case code <= 86:
		return "snow showers"
	default:
		return "thunderstorm"
	}
}
