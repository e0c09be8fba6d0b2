package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"commenttogame/pkg/database"
)

const (
	envPrefix     = "CTG_"
	configPathEnv = "CTG_CONFIG"
)

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	IGDB     IGDBConfig     `koanf:"igdb"`
	RAWG     RAWGConfig     `koanf:"rawg"`
	Import   ImportConfig   `koanf:"import"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type AuthConfig struct {
	JWTSecret   string        `koanf:"jwt_secret" validate:"required,min=8"`
	JWTIssuer   string        `koanf:"jwt_issuer" validate:"required"`
	JWTDuration time.Duration `koanf:"jwt_ttl" validate:"gt=0"`
}

// IGDBConfig: IGDB is authenticated with Twitch client credentials.
type IGDBConfig struct {
	ClientID          string        `koanf:"client_id"`
	ClientSecret      string        `koanf:"client_secret"`
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	TokenURL          string        `koanf:"token_url" validate:"required,url"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
}

// Enabled reports whether credentials are configured.
func (c IGDBConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type RAWGConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
}

func (c RAWGConfig) Enabled() bool {
	return c.APIKey != ""
}

type ImportConfig struct {
	Concurrency int           `koanf:"concurrency" validate:"min=1,max=64"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path: database.DefaultConfig().Path,
		},
		Auth: AuthConfig{
			// dev default (change for demo / production)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "commenttogame",
			JWTDuration: 24 * time.Hour,
		},
		IGDB: IGDBConfig{
			BaseURL:           "https://api.igdb.com/v4",
			TokenURL:          "https://id.twitch.tv/oauth2/token",
			RequestsPerSecond: 4,
			Timeout:           15 * time.Second,
		},
		RAWG: RAWGConfig{
			BaseURL:           "https://api.rawg.io/api",
			RequestsPerSecond: 5,
			Timeout:           15 * time.Second,
		},
		Import: ImportConfig{
			Concurrency: 4,
			Timeout:     5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig layers defaults, an optional YAML file and CTG_* environment
// variables, then validates the result.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(findConfigFile())
}

// LoadConfigFile is LoadConfig with an explicit file; "" skips the file layer.
func LoadConfigFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// CTG_DATABASE_PATH -> database.path, CTG_IGDB_CLIENT_ID -> igdb.client_id
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps CTG_SECTION_SOME_KEY to section.some_key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, rest, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + rest
}

func findConfigFile() string {
	if p := os.Getenv(configPathEnv); p != "" {
		return p
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
