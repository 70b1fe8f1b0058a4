package insight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/weathersearch/weathersearch/internal/models"
)

const validReply = `{
  "analysis": "London is experiencing partly cloudy conditions at 7°C.",
  "recommendations": "Wear a warm coat and layers.",
  "health_advice": "Air quality is acceptable for most people.",
  "activities": "A brisk daytime walk is a good option."
}`

func TestParseInsights_Valid(t *testing.T) {
	got, err := parseInsights(validReply)
	if err != nil {
		t.Fatalf("parseInsights() error = %v", err)
	}
	if got.Analysis == "" || got.Recommendations == "" || got.HealthAdvice == "" || got.Activities == "" {
		t.Errorf("parseInsights() returned empty field: %+v", got)
	}
	if !strings.Contains(got.Analysis, "London") {
		t.Errorf("Analysis = %q, want London mention", got.Analysis)
	}
}

func TestParseInsights_FencedBlock(t *testing.T) {
	fenced := "```json\n" + validReply + "\n```"
	got, err := parseInsights(fenced)
	if err != nil {
		t.Fatalf("parseInsights() error = %v", err)
	}
	if !strings.Contains(got.Recommendations, "warm coat") {
		t.Errorf("Recommendations = %q, want parsed content", got.Recommendations)
	}
}

func TestParseInsights_RejectsBadReplies(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"plain prose", "Sorry, I cannot help with that."},
		{"empty string", ""},
		{"unknown field", `{"analysis":"a","recommendations":"r","health_advice":"h","activities":"x","extra":"boom"}`},
		{"missing field", `{"analysis":"a","recommendations":"r","health_advice":"h"}`},
		{"empty field", `{"analysis":"","recommendations":"r","health_advice":"h","activities":"x"}`},
		{"trailing content", validReply + `{"analysis":"second object"}`},
		{"code-like payload", `__import__("os").system("rm -rf /")`},
		{"json array", `[{"analysis":"a"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseInsights(tt.content); err == nil {
				t.Errorf("parseInsights(%q) expected error, got nil", tt.content)
			}
		})
	}
}

func TestFallbackInsights_AllFieldsPopulated(t *testing.T) {
	want := models.Insights{
		Analysis:        "Unable to analyze weather conditions.",
		Recommendations: "Recommendations unavailable.",
		HealthAdvice:    "Health advice unavailable.",
		Activities:      "Activity suggestions unavailable.",
	}
	if got := FallbackInsights(); got != want {
		t.Errorf("FallbackInsights() = %+v, want %+v", got, want)
	}
}

func TestDisabledGenerator(t *testing.T) {
	gen := Disabled()
	if gen.Enabled() {
		t.Error("Disabled().Enabled() = true, want false")
	}
	got, err := gen.Analyze(context.Background(), models.Observation{City: "London"})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Analyze() error = %v, want ErrDisabled", err)
	}
	if got != FallbackInsights() {
		t.Errorf("Analyze() = %+v, want fallback object", got)
	}
}

func TestBuildPrompt_EmbedsMetricsAndDescriptors(t *testing.T) {
	obs := models.Observation{
		City:         "London",
		Country:      "United Kingdom",
		TemperatureC: 7,
		FeelsLikeC:   5,
		HumidityPct:  81,
		WindKph:      8,
		Condition:    "Partly cloudy",
		IsDay:        true,
		AQI:          2,
	}
	prompt := buildPrompt(obs)

	wantFragments := []string{
		"London",
		"7.0°C",
		"5.0°C",
		"Cold – Need warm clothing",
		"gentle breeze",
		"Moderate - Air quality is acceptable",
		"daytime",
		`"analysis"`,
		`"recommendations"`,
		`"health_advice"`,
		`"activities"`,
	}
	for _, frag := range wantFragments {
		if !strings.Contains(prompt, frag) {
			t.Errorf("buildPrompt() missing %q", frag)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
