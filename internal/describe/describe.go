// Package describe holds the rule-based descriptors for weather metrics.
// Everything here is a pure function over one metric; the texts are fixed
// and byte-identical for identical inputs.
package describe

import "strings"

// Comfort maps a feels-like temperature in Celsius to one of seven contiguous
// comfort bands. Boundaries at -20, 0, 15, 25, 30 and 40 are closed on the
// lower end; the outermost bands are open-ended.
func Comfort(feelsLikeC float64) string {
	switch {
	case feelsLikeC < -20:
		return "Extremely Cold – Extreme precautions necessary, high frostbite risk"
	case feelsLikeC < 0:
		return "Very Cold to Frigid – Frostbite risk, dress in thermal layers"
	case feelsLikeC < 15:
		return "Cold – Need warm clothing, exposure could be uncomfortable"
	case feelsLikeC < 25:
		return "Cool to Mild – Generally comfortable, light to medium layers needed"
	case feelsLikeC < 30:
		return "Warm – Pleasant for most, dress lightly, stay hydrated"
	case feelsLikeC < 40:
		return "Hot – Can be uncomfortable, important to stay cool and hydrated"
	default:
		return "Extremely Hot – Dangerous heat levels, risk of heat-related illnesses"
	}
}

// comfortSeparator splits the band name from its guidance text in Comfort output.
const comfortSeparator = " – "

// ComfortLevel returns just the band name from Comfort, e.g. "Cold" for 5.
func ComfortLevel(feelsLikeC float64) string {
	level, _, _ := strings.Cut(Comfort(feelsLikeC), comfortSeparator)
	return level
}

// Wind maps a wind speed in kph to one of five descriptors. Boundaries at
// 5, 12, 20 and 30 kph are closed on the lower end.
func Wind(windKph float64) string {
	switch {
	case windKph < 5:
		return "very light breeze"
	case windKph < 12:
		return "gentle breeze"
	case windKph < 20:
		return "moderate wind"
	case windKph < 30:
		return "strong wind"
	default:
		return "very strong wind"
	}
}

// aqiDescriptions is the US EPA index table. Keys outside 1-6 are unknown.
var aqiDescriptions = map[int]string{
	1: "Good - Air quality is satisfactory, and air pollution poses little or no risk.",
	2: "Moderate - Air quality is acceptable. However, there may be a risk for some people, particularly those who are unusually sensitive to air pollution.",
	3: "Unhealthy for Sensitive Groups - Members of sensitive groups may experience health effects. The general public is less likely to be affected.",
	4: "Unhealthy - Some members of the general public may experience health effects; members of sensitive groups may experience more serious health effects",
	5: "Very Unhealthy - Health alert: The risk of health effects is increased for everyone.",
	6: "Hazardous - Health warnings of emergency conditions. The entire population is more likely to be affected.",
}

// AirQuality returns the US EPA band text for an index of 1-6, or "Unknown"
// for any other value rather than failing.
func AirQuality(aqi int) string {
	if desc, ok := aqiDescriptions[aqi]; ok {
		return desc
	}
	return "Unknown"
}

// TimeOfDay returns "day" or "night".
func TimeOfDay(isDay bool) string {
	if isDay {
		return "day"
	}
	return "night"
}
