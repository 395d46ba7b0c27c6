package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// external agent service (free text -> structured workout/meal)
	WorkoutAgentURL           string `toml:"workout_agent_url"`
	MealAgentURL              string `toml:"meal_agent_url"`
	CallbackBaseURL           string `toml:"callback_base_url"`
	AgentTimeoutSeconds       int    `toml:"agent_timeout_seconds"`
	AgentTriggerPerMinAllowed int    `toml:"agent_trigger_per_min_allowed"`
}

// AgentTimeout returns the outbound agent request timeout,
// falling back to 10 seconds when not set in the config file.
func (c *Config) AgentTimeout() time.Duration {
	if c.AgentTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.AgentTimeoutSeconds) * time.Second
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, configPath string) (*Config, error) {
	var tomlFile Toml
	if _, err := toml.DecodeFile(configPath, &tomlFile); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", configPath, err)
	}

	cfg, err := tomlFile.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] is empty", env)
	}

	cfg.Environment = env
	return cfg, nil
}
