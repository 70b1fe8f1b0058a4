package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/weathersearch/weathersearch/internal/client"
	"github.com/weathersearch/weathersearch/internal/models"
	"github.com/weathersearch/weathersearch/internal/validation"
)

// LookupService is the slice of the service layer the handlers need.
type LookupService interface {
	Lookup(ctx context.Context, city string) (models.Report, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	service          LookupService
	client           client.WeatherClient
	logger           *zap.Logger
	insightsEnabled  bool
	cityMinLength    int
	cityMaxLength    int
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(service LookupService, weatherClient client.WeatherClient, logger *zap.Logger, insightsEnabled bool, cityMinLength, cityMaxLength int) *Handler {
	return &Handler{
		service:         service,
		client:          weatherClient,
		logger:          logger,
		insightsEnabled: insightsEnabled,
		cityMinLength:   cityMinLength,
		cityMaxLength:   cityMaxLength,
	}
}

// shuttingDown is set on SIGTERM so /health drains load balancer traffic.
var shuttingDown atomic.Bool

// SetShuttingDown sets the drain flag consulted by the health handler.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// GetWeather handles GET /weather/{city}. Renders the full report or a
// classified error; no failure here ends the serving loop.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	rawCity := mux.Vars(r)["city"]
	city, err := validation.ValidateCity(rawCity, h.cityMinLength, h.cityMaxLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_CITY", err.Error())
		return
	}

	report, err := h.service.Lookup(r.Context(), city)
	if err != nil {
		writeLookupError(w, r, city, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// writeLookupError maps the weather-fetch error taxonomy onto responses:
// city-not-found is user-correctable, everything else is surfaced generically.
func writeLookupError(w http.ResponseWriter, r *http.Request, city string, err error) {
	logger := loggerFromRequest(r)

	switch {
	case errors.Is(err, client.ErrCityNotFound):
		writeError(w, r, http.StatusNotFound, "CITY_NOT_FOUND",
			"City '"+city+"' not found. Please check the spelling and try again.")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT",
			"Weather lookup timed out. Please try again.")
	default:
		category := client.CategorizeError(err)
		if category == client.ErrorCategoryNetwork {
			writeError(w, r, http.StatusBadGateway, "NETWORK_ERROR",
				"Unable to fetch weather data. Please check your internet connection.")
		} else {
			writeError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR",
				"Unable to fetch weather data. Please try again later.")
		}
		if logger != nil {
			logger.Warn("weather fetch failed",
				zap.String("city", city),
				zap.String("category", string(category)),
				zap.Error(err))
		}
	}
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{
		"weatherApi": "healthy",
		"insights":   "enabled",
	}
	if result.status == "degraded" {
		checks["weatherApi"] = "unhealthy"
	}
	if !h.insightsEnabled {
		checks["insights"] = "disabled"
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "weathersearch",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > weather API key invalid > healthy. Insight availability is
// reported in checks but never degrades the service; weather display works
// without it.
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	if IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if err := h.client.ValidateAPIKey(ctx); err != nil {
		return healthResult{"degraded", http.StatusServiceUnavailable, "api_key_invalid"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard envelope with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

func loggerFromRequest(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		return logger
	}
	return nil
}
