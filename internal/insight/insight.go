// Package insight turns an observation into the four-field narrative
// (analysis, recommendations, health advice, activities). The heavy lifting is
// delegated to an external chat-completion model; every failure on that path
// degrades to a fixed fallback object so weather display is never blocked.
package insight

import (
	"context"
	"errors"

	"github.com/weathersearch/weathersearch/internal/models"
)

// Generator produces insights for one observation. Implementations must not
// retry and must return FallbackInsights alongside the error on any failure.
type Generator interface {
	Analyze(ctx context.Context, obs models.Observation) (models.Insights, error)
	Enabled() bool
}

// ErrDisabled is returned by the disabled generator when no model key is configured.
var ErrDisabled = errors.New("insight generation disabled")

// FallbackInsights is the fixed four-field object served whenever the model
// call fails or its reply cannot be parsed.
func FallbackInsights() models.Insights {
	return models.Insights{
		Analysis:        "Unable to analyze weather conditions.",
		Recommendations: "Recommendations unavailable.",
		HealthAdvice:    "Health advice unavailable.",
		Activities:      "Activity suggestions unavailable.",
	}
}

type disabledGenerator struct{}

// Disabled returns a Generator used when no model API key is configured.
// Weather lookups keep working; insights report as disabled.
func Disabled() Generator {
	return disabledGenerator{}
}

func (disabledGenerator) Enabled() bool { return false }

func (disabledGenerator) Analyze(ctx context.Context, obs models.Observation) (models.Insights, error) {
	return FallbackInsights(), ErrDisabled
}
