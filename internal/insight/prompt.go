package insight

import (
	"fmt"
	"strings"

	"github.com/weathersearch/weathersearch/internal/describe"
	"github.com/weathersearch/weathersearch/internal/models"
)

const systemPrompt = "You are WeatherSearch's expert meteorologist specializing in providing detailed, actionable weather insights with health and activity recommendations."

// buildPrompt embeds the observation's metrics and the rule-based descriptors
// into the analysis request. The model is told to answer with a JSON object
// holding exactly the four insight fields; parseInsights enforces that shape.
func buildPrompt(obs models.Observation) string {
	comfort := describe.Comfort(obs.FeelsLikeC)
	wind := describe.Wind(obs.WindKph)
	air := describe.AirQuality(obs.AQI)
	timeOfDay := describe.TimeOfDay(obs.IsDay)

	var b strings.Builder
	b.WriteString("Analyze the following weather data and provide detailed recommendations.\n\n")
	b.WriteString("Current Weather Conditions:\n")
	fmt.Fprintf(&b, "- City: %s, %s\n", obs.City, obs.Country)
	fmt.Fprintf(&b, "- Temperature: %.1f°C\n", obs.TemperatureC)
	fmt.Fprintf(&b, "- Feels Like: %.1f°C (%s)\n", obs.FeelsLikeC, comfort)
	fmt.Fprintf(&b, "- Humidity: %d%%\n", obs.HumidityPct)
	fmt.Fprintf(&b, "- Time: %stime\n", timeOfDay)
	fmt.Fprintf(&b, "- Condition: %s\n", obs.Condition)
	fmt.Fprintf(&b, "- Wind Speed: %.1f km/h (%s)\n", obs.WindKph, wind)
	fmt.Fprintf(&b, "- AQI Level: %d (%s)\n", obs.AQI, air)
	b.WriteString("\nReturn a JSON object with these keys, providing specific and actionable information:\n\n")
	fmt.Fprintf(&b, "1. \"analysis\": Combine temperature metrics, weather conditions, time of day, and air quality into a comprehensive weather summary. Example: \"In the %s, %s is experiencing %s conditions at %.1f°C, %s. Air quality is %s\"\n\n",
		timeOfDay, obs.City, strings.ToLower(obs.Condition), obs.TemperatureC, comfort, air)
	fmt.Fprintf(&b, "2. \"recommendations\": Suggest specific clothing and comfort measures based on the comfort level (%s), the weather conditions (%s), the wind, and the time of day.\n\n",
		comfort, obs.Condition)
	fmt.Fprintf(&b, "3. \"health_advice\": Provide health precautions based on temperature safety (%s), air quality considerations (%s), UV protection needs, and wind chill or heat index factors.\n\n",
		comfort, air)
	b.WriteString("4. \"activities\": Recommend suitable activities considering the comfort level, AQI restrictions, and the time of day.\n\n")
	b.WriteString("Format your response exactly like this:\n")
	b.WriteString(`{
    "analysis": "Detailed current conditions analysis",
    "recommendations": "Specific clothing and comfort advice",
    "health_advice": "Health precautions based on AQI and weather",
    "activities": "Suitable activity recommendations"
}`)
	b.WriteString("\n\nEnsure each section is detailed yet concise (2-3 sentences max) and directly relates to the provided weather data. Respond with JSON only, no other text.")
	return b.String()
}
