package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/weathersearch/weathersearch/internal/client"
	"github.com/weathersearch/weathersearch/internal/models"
)

type fakeService struct {
	report models.Report
	err    error
}

func (f *fakeService) Lookup(ctx context.Context, city string) (models.Report, error) {
	if f.err != nil {
		return models.Report{}, f.err
	}
	return f.report, nil
}

type fakeClient struct {
	validateErr error
}

func (f *fakeClient) GetCurrentWeather(ctx context.Context, city string) (models.Observation, error) {
	return models.Observation{}, nil
}

func (f *fakeClient) ValidateAPIKey(ctx context.Context) error { return f.validateErr }

func sampleReport() models.Report {
	return models.Report{
		Observation: models.Observation{
			City:         "London",
			Country:      "United Kingdom",
			TemperatureC: 7,
			FeelsLikeC:   5,
			IsDay:        true,
			AQI:          2,
		},
		Summary: "During the day in London, residents can expect cold conditions.",
		Insights: models.Insights{
			Analysis:        "a",
			Recommendations: "r",
			HealthAdvice:    "h",
			Activities:      "x",
		},
		InsightsSource: models.InsightsFromModel,
	}
}

func newTestRouter(h *Handler, limiter *rate.Limiter) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/", h.GetIndex).Methods("GET")
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	weather := router.PathPrefix("/weather").Subrouter()
	weather.Use(RateLimitMiddleware(limiter))
	weather.HandleFunc("/{city}", h.GetWeather).Methods("GET")
	return router
}

func decodeErrorCode(t *testing.T, body string) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return resp.Error.Code
}

func TestGetWeather_Success(t *testing.T) {
	h := NewHandler(&fakeService{report: sampleReport()}, &fakeClient{}, zap.NewNop(), true, 1, 100)
	router := newTestRouter(h, nil)

	req := httptest.NewRequest("GET", "/weather/London", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var report models.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Observation.City != "London" {
		t.Errorf("City = %q, want London", report.Observation.City)
	}
	if report.InsightsSource != models.InsightsFromModel {
		t.Errorf("InsightsSource = %q, want model", report.InsightsSource)
	}
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("missing X-Correlation-ID header")
	}
}

func TestGetWeather_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "city not found maps to 404",
			err:        fmt.Errorf("fetch weather for x: %w", client.ErrCityNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "CITY_NOT_FOUND",
		},
		{
			name:       "upstream failure maps to 502",
			err:        fmt.Errorf("fetch weather for x: %w", client.ErrUpstreamFailure),
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_ERROR",
		},
		{
			name:       "invalid key maps to 502",
			err:        fmt.Errorf("fetch weather for x: %w", client.ErrInvalidAPIKey),
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_ERROR",
		},
		{
			name:       "transport failure maps to 502 network",
			err:        errors.New("http request failed: connection refused"),
			wantStatus: http.StatusBadGateway,
			wantCode:   "NETWORK_ERROR",
		},
		{
			name:       "deadline maps to 504",
			err:        fmt.Errorf("request timeout: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "UPSTREAM_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeService{err: tt.err}, &fakeClient{}, zap.NewNop(), true, 1, 100)
			router := newTestRouter(h, nil)

			req := httptest.NewRequest("GET", "/weather/somewhere", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if code := decodeErrorCode(t, rec.Body.String()); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestGetWeather_InvalidCity(t *testing.T) {
	h := NewHandler(&fakeService{report: sampleReport()}, &fakeClient{}, zap.NewNop(), true, 1, 100)
	router := newTestRouter(h, nil)

	for _, city := range []string{"%20%20", "London%3Bdrop"} {
		req := httptest.NewRequest("GET", "/weather/"+city, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("city %q: status = %d, want 400", city, rec.Code)
			continue
		}
		if code := decodeErrorCode(t, rec.Body.String()); code != "INVALID_CITY" {
			t.Errorf("city %q: error code = %q, want INVALID_CITY", city, code)
		}
	}
}

func TestGetWeather_RateLimited(t *testing.T) {
	h := NewHandler(&fakeService{report: sampleReport()}, &fakeClient{}, zap.NewNop(), true, 1, 100)
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	router := newTestRouter(h, limiter)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest("GET", "/weather/London", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest("GET", "/weather/London", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if code := decodeErrorCode(t, second.Body.String()); code != "RATE_LIMITED" {
		t.Errorf("error code = %q, want RATE_LIMITED", code)
	}
}

func TestGetHealth(t *testing.T) {
	t.Run("healthy with insights enabled", func(t *testing.T) {
		h := NewHandler(&fakeService{}, &fakeClient{}, zap.NewNop(), true, 1, 100)
		rec := httptest.NewRecorder()
		h.GetHealth(rec, httptest.NewRequest("GET", "/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, `"status":"healthy"`) {
			t.Errorf("body = %s, want healthy status", body)
		}
		if !strings.Contains(body, `"insights":"enabled"`) {
			t.Errorf("body = %s, want insights enabled", body)
		}
	})

	t.Run("insights disabled is still healthy", func(t *testing.T) {
		h := NewHandler(&fakeService{}, &fakeClient{}, zap.NewNop(), false, 1, 100)
		rec := httptest.NewRecorder()
		h.GetHealth(rec, httptest.NewRequest("GET", "/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; missing model key must not degrade weather lookup", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"insights":"disabled"`) {
			t.Errorf("body = %s, want insights disabled", rec.Body.String())
		}
	})

	t.Run("invalid weather key degrades", func(t *testing.T) {
		h := NewHandler(&fakeService{}, &fakeClient{validateErr: client.ErrInvalidAPIKey}, zap.NewNop(), true, 1, 100)
		rec := httptest.NewRecorder()
		h.GetHealth(rec, httptest.NewRequest("GET", "/health", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"status":"degraded"`) {
			t.Errorf("body = %s, want degraded", rec.Body.String())
		}
	})

	t.Run("shutting down", func(t *testing.T) {
		SetShuttingDown(true)
		defer SetShuttingDown(false)

		h := NewHandler(&fakeService{}, &fakeClient{}, zap.NewNop(), true, 1, 100)
		rec := httptest.NewRecorder()
		h.GetHealth(rec, httptest.NewRequest("GET", "/health", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"status":"shutting-down"`) {
			t.Errorf("body = %s, want shutting-down", rec.Body.String())
		}
	})
}

func TestGetIndex(t *testing.T) {
	h := NewHandler(&fakeService{}, &fakeClient{}, zap.NewNop(), true, 1, 100)
	rec := httptest.NewRecorder()
	h.GetIndex(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "WeatherSearch") {
		t.Errorf("index page missing title; body starts %q", body[:min(len(body), 120)])
	}
	if strings.Contains(body, "AI insights are disabled") {
		t.Error("index page warns about disabled insights while enabled")
	}
}

func TestGetIndex_DisabledInsightsNotice(t *testing.T) {
	h := NewHandler(&fakeService{}, &fakeClient{}, zap.NewNop(), false, 1, 100)
	rec := httptest.NewRecorder()
	h.GetIndex(rec, httptest.NewRequest("GET", "/", nil))

	if !strings.Contains(rec.Body.String(), "AI insights are disabled") {
		t.Error("index page should mention disabled insights when no model key is set")
	}
}
