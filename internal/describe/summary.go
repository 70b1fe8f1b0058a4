package describe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/weathersearch/weathersearch/internal/models"
)

// summaryFallback is returned when the observation is too incomplete to narrate.
const summaryFallback = "Unable to generate weather summary: observation is missing a city name."

// Summary composes one human-readable paragraph from an observation, combining
// the rule-based descriptors with the raw metrics. The paragraph always names
// the city, the time of day, the comfort level and both temperature readings.
// Incomplete observations get a fixed fallback sentence, never an error.
func Summary(obs models.Observation) string {
	if strings.TrimSpace(obs.City) == "" {
		return summaryFallback
	}

	timeOfDay := TimeOfDay(obs.IsDay)
	comfort := strings.ToLower(ComfortLevel(obs.FeelsLikeC))
	windDesc := Wind(obs.WindKph)

	condition := strings.ToLower(strings.TrimSpace(obs.Condition))
	if condition == "" {
		condition = "unreported"
	}

	var b strings.Builder
	fmt.Fprintf(&b,
		"During the %s in %s, residents can expect %s conditions with %s skies. "+
			"The temperature stands at %s°C, but with the wind chill, it feels like %s°C. "+
			"Humidity levels are at %d%%, and there is a %s blowing at %s km/h",
		timeOfDay, obs.City, comfort, condition,
		formatTemp(obs.TemperatureC), formatTemp(obs.FeelsLikeC),
		obs.HumidityPct, windDesc, formatTemp(obs.WindKph),
	)
	if obs.FeelsLikeC < obs.TemperatureC {
		b.WriteString(", which adds to the cold sensation")
	}
	b.WriteString(". ")
	b.WriteString(outdoorTip(obs.TemperatureC, obs.FeelsLikeC))
	b.WriteString(" if you're heading outdoors.")
	return b.String()
}

// outdoorTip picks the closing advice clause: layering below feels-like 10,
// hydration above 25, otherwise enjoyment.
func outdoorTip(tempC, feelsLikeC float64) string {
	switch {
	case feelsLikeC < 10:
		return "Remember to layer up"
	case tempC > 25:
		return "Stay hydrated"
	default:
		return "Enjoy the pleasant weather"
	}
}

// formatTemp renders a metric without trailing zeros, so 5 reads "5" and
// 5.5 reads "5.5".
func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
