package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/edvart/inhouse-scheduler/internal/mvp"
)

type DatabaseConfig struct {
	Type string // "sqlite" or "postgres"
	URL  string // postgres DSN
	Path string // sqlite file
}

// FileConfig is the optional YAML file named by CONFIG_FILE. Keys missing
// from the file keep the values it was seeded with.
type FileConfig struct {
	Session struct {
		Time string `yaml:"time"`
	} `yaml:"session"`
	MVP mvp.Config `yaml:"mvp"`
}

type Config struct {
	Port        string
	Database    DatabaseConfig
	LogLevel    string
	LogFormat   string
	SessionTime string
	MVP         mvp.Config
	ShuffleSeed uint64 // 0 means unseeded

	RelayToken   string
	AdminUserIDs []string
	CORSOrigins  []string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
}

// Load reads configuration from a .env file (if present), the optional YAML
// file and the environment, in increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SessionTime: "20:00",
		MVP:         mvp.DefaultConfig(),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := loadFile(path, cfg)
		if err != nil {
			return nil, err
		}
		if fc.Session.Time != "" {
			cfg.SessionTime = fc.Session.Time
		}
		cfg.MVP = fc.MVP
	}

	cfg.Port = getEnv("PORT", "8080")
	cfg.Database = DatabaseConfig{
		Type: getEnv("DATABASE_TYPE", "sqlite"),
		URL:  getEnv("DATABASE_URL", ""),
		Path: getEnv("DATABASE_PATH", "./data/inhouse.db"),
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")
	cfg.SessionTime = getEnv("SESSION_TIME", cfg.SessionTime)
	cfg.MVP.WinnerQuota = getEnvAsInt("MVP_WINNER_QUOTA", cfg.MVP.WinnerQuota)
	cfg.MVP.LoserQuota = getEnvAsInt("MVP_LOSER_QUOTA", cfg.MVP.LoserQuota)
	cfg.MVP.AllowSelfTeamVote = getEnvAsBool("MVP_ALLOW_SELF_TEAM_VOTE", cfg.MVP.AllowSelfTeamVote)
	cfg.ShuffleSeed = getEnvAsUint("SHUFFLE_SEED", 0)
	cfg.RelayToken = getEnv("RELAY_TOKEN", "")
	cfg.AdminUserIDs = splitList(getEnv("ADMIN_USER_IDS", ""))
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", ""))
	cfg.VAPIDPublicKey = getEnv("VAPID_PUBLIC_KEY", "")
	cfg.VAPIDPrivateKey = getEnv("VAPID_PRIVATE_KEY", "")
	cfg.VAPIDSubject = getEnv("VAPID_SUBJECT", "mailto:admin@example.com")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Type {
	case "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_TYPE is postgres")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_TYPE %q", c.Database.Type)
	}
	if c.MVP.WinnerQuota < 0 || c.MVP.LoserQuota < 0 {
		return fmt.Errorf("mvp vote quotas must not be negative")
	}
	return nil
}

// DSN returns the data source for the configured database type.
func (d DatabaseConfig) DSN() string {
	if d.Type == "postgres" {
		return d.URL
	}
	return d.Path
}

// SetupLogging applies the log level and format to the global logrus logger.
func (c *Config) SetupLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func loadFile(path string, defaults *Config) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	fc := FileConfig{MVP: defaults.MVP}
	fc.Session.Time = defaults.SessionTime
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &fc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warnf("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getEnvAsUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if u, err := strconv.ParseUint(value, 10, 64); err == nil {
			return u
		}
		log.Warnf("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Warnf("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
