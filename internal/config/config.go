package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	OpenAIAPIKey      string
	OpenAIURL         string
	OpenAIModel       string
	OpenAITemperature float64
	OpenAITimeout     time.Duration

	RequestTimeout time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	CityMinLength int
	CityMaxLength int

	ShutdownTimeout            time.Duration
	ShutdownDrainTimeout       time.Duration
	ShutdownDrainCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	OpenAI struct {
		URL         string   `yaml:"url"`
		Model       string   `yaml:"model"`
		Temperature *float64 `yaml:"temperature"`
		Timeout     string   `yaml:"timeout"`
	} `yaml:"openai"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	RateLimit struct {
		RPS   int `yaml:"rps"`
		Burst int `yaml:"burst"`
	} `yaml:"rate_limit"`

	City struct {
		MinLength int `yaml:"min_length"`
		MaxLength int `yaml:"max_length"`
	} `yaml:"city"`

	Shutdown struct {
		Timeout            string `yaml:"timeout"`
		DrainTimeout       string `yaml:"drain_timeout"`
		DrainCheckInterval string `yaml:"drain_check_interval"`
	} `yaml:"shutdown"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev, missing
// file falls back to defaults) and config/secrets.yaml. The weather key comes
// from WEATHER_API_KEY env or the secrets file and is required: without it
// the process cannot start. OPENAI_API_KEY is optional; when absent, insight
// generation is disabled and weather lookup still works.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}

	var fc fileConfig
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	var sec secretsFile
	secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
	secretsData, err := os.ReadFile(secretsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read secrets file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(secretsData, &sec); err != nil {
			return nil, fmt.Errorf("parse secrets file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	if cfg.WeatherAPIKey == "" {
		cfg.WeatherAPIKey = sec.WeatherAPIKey
	}
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required: set it in the environment, a .env file, or config/secrets.yaml (weather_api_key)")
	}

	cfg.WeatherAPIURL = fc.WeatherAPI.URL
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.weatherapi.com/v1/current.json"
	}
	cfg.WeatherAPITimeout = parseDuration(fc.WeatherAPI.Timeout, 5*time.Second)

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = sec.OpenAIAPIKey
	}
	cfg.OpenAIURL = fc.OpenAI.URL
	if cfg.OpenAIURL == "" {
		cfg.OpenAIURL = "https://api.openai.com/v1"
	}
	cfg.OpenAIModel = fc.OpenAI.Model
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-3.5-turbo"
	}
	cfg.OpenAITemperature = 0.7
	if fc.OpenAI.Temperature != nil {
		cfg.OpenAITemperature = *fc.OpenAI.Temperature
	}
	cfg.OpenAITimeout = parseDuration(fc.OpenAI.Timeout, 20*time.Second)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 30*time.Second)

	cfg.RateLimitRPS = fc.RateLimit.RPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 10
	}
	cfg.RateLimitBurst = fc.RateLimit.Burst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 25
	}

	cfg.CityMinLength = fc.City.MinLength
	if cfg.CityMinLength <= 0 {
		cfg.CityMinLength = 1
	}
	cfg.CityMaxLength = fc.City.MaxLength
	if cfg.CityMaxLength <= 0 {
		cfg.CityMaxLength = 100
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownDrainTimeout = parseDuration(fc.Shutdown.DrainTimeout, 10*time.Second)
	cfg.ShutdownDrainCheckInterval = parseDuration(fc.Shutdown.DrainCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InsightsEnabled reports whether a generative-model key is configured.
func (c *Config) InsightsEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. The request timeout has to outlast
// the slowest upstream call or every lookup with insights would be cut short.
func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("weather_api.timeout must be positive")
	}
	if cfg.OpenAITimeout <= 0 {
		return fmt.Errorf("openai.timeout must be positive")
	}
	upstream := cfg.WeatherAPITimeout + cfg.OpenAITimeout
	if cfg.RequestTimeout <= upstream {
		cfg.RequestTimeout = upstream + time.Second
	}
	if cfg.CityMinLength > cfg.CityMaxLength {
		return fmt.Errorf("city.min_length (%d) exceeds city.max_length (%d)", cfg.CityMinLength, cfg.CityMaxLength)
	}
	return nil
}
