package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	ServiceName    string

	// Platform selects the container platform adapter: "railway" or "docker".
	Platform string

	RailwayAPIURL        string
	RailwayAPIToken      string
	RailwayProjectID     string
	RailwayEnvironmentID string

	DockerHost    string
	DockerNetwork string

	GatewayImage string
	GatewayCmd   string

	// PairingExecTemplate is an operator-supplied shell command template used
	// as the third pairing fallback tier. Placeholders: {{service_id}},
	// {{service_name}}, {{command}}, {{channel}}, {{code}}. Empty disables
	// the tier.
	PairingExecTemplate string

	HealthCheckInterval time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		HTTPListenAddr:       getEnv("HTTP_LISTEN_ADDR", ":8090"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		ServiceName:          getEnv("SERVICE_NAME", "clawhost-api"),
		Platform:             getEnv("PLATFORM", "railway"),
		RailwayAPIURL:        getEnv("RAILWAY_API_URL", "https://backboard.railway.app/graphql/v2"),
		RailwayAPIToken:      getEnv("RAILWAY_API_TOKEN", ""),
		RailwayProjectID:     getEnv("RAILWAY_PROJECT_ID", ""),
		RailwayEnvironmentID: getEnv("RAILWAY_ENVIRONMENT_ID", ""),
		DockerHost:           getEnv("DOCKER_HOST", ""),
		DockerNetwork:        getEnv("DOCKER_NETWORK", "bridge"),
		GatewayImage:         getEnv("OPENCLAW_IMAGE", "ghcr.io/openclaw/openclaw:latest"),
		GatewayCmd:           getEnv("OPENCLAW_CMD", "openclaw"),
		PairingExecTemplate:  getEnv("PAIRING_EXEC_TEMPLATE", ""),
	}

	interval, err := time.ParseDuration(getEnv("HEALTH_CHECK_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("parse HEALTH_CHECK_INTERVAL: %w", err)
	}
	cfg.HealthCheckInterval = interval

	return cfg, nil
}

// Validate checks that the fields required by the given binary are set.
func (c *Config) Validate(binary string) error {
	switch binary {
	case "clawhost-api":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		switch c.Platform {
		case "railway":
			if c.RailwayAPIToken == "" {
				return fmt.Errorf("RAILWAY_API_TOKEN is required when PLATFORM=railway")
			}
			if c.RailwayProjectID == "" || c.RailwayEnvironmentID == "" {
				return fmt.Errorf("RAILWAY_PROJECT_ID and RAILWAY_ENVIRONMENT_ID are required when PLATFORM=railway")
			}
		case "docker":
		default:
			return fmt.Errorf("unknown PLATFORM %q (expected railway or docker)", c.Platform)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
