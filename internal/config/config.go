package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Training  TrainingConfig  `yaml:"training"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	// Driver selects the store: "postgres" or "sqlite".
	Driver string `yaml:"driver"`

	// Postgres fields.
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`

	// Path is the SQLite state directory.
	Path string `yaml:"path"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// TrainingConfig tunes the progression engine and session behavior.
type TrainingConfig struct {
	// Unit is the display unit system: "lb" or "kg". Weights are stored in
	// pounds regardless.
	Unit string `yaml:"unit"`
	// RoundIncrement is the plate rounding applied to every computed weight.
	RoundIncrement float64 `yaml:"round_increment"`
	// RestSeconds is the rest timer length between sets.
	RestSeconds int `yaml:"rest_seconds"`
	// PerRepStep is the training-max adjustment per rep of AMRAP delta.
	PerRepStep float64 `yaml:"per_rep_step"`
	// MaxSwingFraction caps one week's training-max movement.
	MaxSwingFraction float64 `yaml:"max_swing_fraction"`

	// Linear progression defaults for lifts without stored state.
	LinearIncrement      float64 `yaml:"linear_increment"`
	LinearThreshold      int     `yaml:"linear_threshold"`
	LinearDeloadFraction float64 `yaml:"linear_deload_fraction"`

	// Supersets pairs accessories with main lifts during workouts.
	Supersets bool `yaml:"supersets"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix TOPSET_ and underscore-separated paths:
//
//	TOPSET_SERVER_HOST, TOPSET_SERVER_PORT,
//	TOPSET_DB_DRIVER, TOPSET_DB_HOST, TOPSET_DB_PORT, TOPSET_DB_NAME,
//	TOPSET_DB_USER, TOPSET_DB_PASSWORD, TOPSET_DB_SSLMODE, TOPSET_DB_PATH,
//	TOPSET_AUTH_API_KEY
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TOPSET_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TOPSET_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TOPSET_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("TOPSET_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("TOPSET_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("TOPSET_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("TOPSET_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("TOPSET_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("TOPSET_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("TOPSET_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TOPSET_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data"
	}
	if c.Training.Unit == "" {
		c.Training.Unit = "lb"
	}
	if c.Training.RoundIncrement == 0 {
		c.Training.RoundIncrement = 5
	}
	if c.Training.RestSeconds == 0 {
		c.Training.RestSeconds = 90
	}
	if c.Training.PerRepStep == 0 {
		c.Training.PerRepStep = 2.5
	}
	if c.Training.MaxSwingFraction == 0 {
		c.Training.MaxSwingFraction = 0.10
	}
	if c.Training.LinearIncrement == 0 {
		c.Training.LinearIncrement = 5
	}
	if c.Training.LinearThreshold == 0 {
		c.Training.LinearThreshold = 3
	}
	if c.Training.LinearDeloadFraction == 0 {
		c.Training.LinearDeloadFraction = 0.10
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	switch c.Database.Driver {
	case "sqlite":
		// Path always has a default.
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required for postgres")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required for postgres")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required for postgres")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Training.Unit != "lb" && c.Training.Unit != "kg" {
		return fmt.Errorf("training.unit must be lb or kg, got %q", c.Training.Unit)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
