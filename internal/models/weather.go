package models

// Observation is a snapshot of current conditions for one city at lookup time.
// Built fresh per lookup and discarded after the report is rendered.
type Observation struct {
	City         string  `json:"city"`
	Country      string  `json:"country"`
	TemperatureC float64 `json:"temperatureC"`
	FeelsLikeC   float64 `json:"feelsLikeC"`
	HumidityPct  int     `json:"humidityPct"`
	WindKph      float64 `json:"windKph"`
	WindDir      string  `json:"windDir"`
	Condition    string  `json:"condition"`
	IsDay        bool    `json:"isDay"`
	AQI          int     `json:"aqi"` // US EPA index 1-6, 0 when upstream omitted it
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	LastUpdated  string  `json:"lastUpdated"` // as reported upstream, e.g. "2026-08-31 14:00"
}

// Insights is the four-field narrative derived from one observation.
type Insights struct {
	Analysis        string `json:"analysis"`
	Recommendations string `json:"recommendations"`
	HealthAdvice    string `json:"health_advice"`
	Activities      string `json:"activities"`
}

// Insight source labels reported in Report.InsightsSource.
const (
	InsightsFromModel    = "model"
	InsightsFromFallback = "fallback"
	InsightsDisabled     = "disabled"
)

// Report is the full payload rendered for one lookup.
type Report struct {
	Observation    Observation `json:"observation"`
	Summary        string      `json:"summary"`
	Insights       Insights    `json:"insights"`
	InsightsSource string      `json:"insightsSource"`
}
