package dashboard

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config defines dashboard client configuration.
type Config struct {
	BaseURL     string `yaml:"base_url"`
	SessionFile string `yaml:"session_file"`
	Username    string `yaml:"username"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		BaseURL:     getenvDefault("DASHBOARD_BASE_URL", "http://localhost:8080"),
		SessionFile: getenvDefault("DASHBOARD_SESSION_FILE", filepath.FromSlash("var/dashboard/session.json")),
		Username:    os.Getenv("DASHBOARD_USERNAME"),
	}

	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.BaseURL == "" {
		return cfg, errors.New("dashboard: base url required")
	}
	if cfg.SessionFile == "" {
		return cfg, errors.New("dashboard: session file required")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
