package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/weathersearch/weathersearch/internal/client"
	"github.com/weathersearch/weathersearch/internal/describe"
	"github.com/weathersearch/weathersearch/internal/insight"
	"github.com/weathersearch/weathersearch/internal/models"
	"github.com/weathersearch/weathersearch/internal/observability"
)

// WeatherService orchestrates one lookup: fetch the observation, compose the
// summary, then ask the insight generator. Strictly sequential; a lookup holds
// no state that outlives the call and nothing is cached between lookups.
type WeatherService struct {
	client    client.WeatherClient
	generator insight.Generator
}

// NewWeatherService creates a WeatherService around a weather client and an
// insight generator. Pass insight.Disabled() when no model key is configured.
func NewWeatherService(client client.WeatherClient, generator insight.Generator) *WeatherService {
	return &WeatherService{
		client:    client,
		generator: generator,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// Lookup builds the full report for one city. The returned error is always a
// weather-fetch failure (classifiable via client.CategorizeError); insight
// failures degrade silently into the fixed fallback object and are only
// reflected in Report.InsightsSource.
func (s *WeatherService) Lookup(ctx context.Context, city string) (models.Report, error) {
	key := normalizeCity(city)
	start := time.Now()
	logger := loggerFromContext(ctx)

	observability.LookupsTotal.Inc()

	obs, err := s.client.GetCurrentWeather(ctx, key)
	if err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(client.CategorizeError(err))).Inc()
		return models.Report{}, fmt.Errorf("fetch weather for %s: %w", key, err)
	}

	report := models.Report{
		Observation: obs,
		Summary:     describe.Summary(obs),
	}

	if !s.generator.Enabled() {
		report.Insights = insight.FallbackInsights()
		report.InsightsSource = models.InsightsDisabled
		if logger != nil {
			logger.Debug("insights disabled, serving fallback", zap.String("city", key))
		}
		return report, nil
	}

	insights, insightErr := s.generator.Analyze(ctx, obs)
	report.Insights = insights
	if insightErr != nil {
		report.InsightsSource = models.InsightsFromFallback
		if logger != nil {
			logger.Warn("insight generation degraded to fallback",
				zap.String("city", key), zap.Error(insightErr))
		}
	} else {
		report.InsightsSource = models.InsightsFromModel
	}

	if logger != nil {
		logger.Debug("lookup served",
			zap.String("city", key),
			zap.String("insights", report.InsightsSource),
			zap.Duration("duration", time.Since(start)))
	}
	return report, nil
}

// normalizeCity normalizes city strings by trimming whitespace and lowercasing.
// Keeps upstream queries consistent regardless of input format.
func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
