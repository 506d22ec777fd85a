package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/spf13/viper"
)

// BackendType identifies the document store backend
type BackendType string

const (
	BackendFirestore BackendType = "firestore"
	BackendPostgres  BackendType = "postgres"
	BackendRedis     BackendType = "redis"
	BackendBolt      BackendType = "bolt"
)

// Config holds all application configuration
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Auth    AuthConfig    `mapstructure:"auth"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StoreConfig selects and configures the document store
type StoreConfig struct {
	Backend   BackendType     `mapstructure:"backend"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Bolt      BoltConfig      `mapstructure:"bolt"`
}

// FirestoreConfig holds the Firebase web app settings
type FirestoreConfig struct {
	ProjectID string `mapstructure:"project_id"`
	APIKey    string `mapstructure:"api_key"`
}

// PostgresConfig holds the PostgreSQL connection
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig holds the Redis connection
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// BoltConfig holds the embedded database path. It also stores local accounts
// for the self-hosted backends.
type BoltConfig struct {
	Path string `mapstructure:"path"`
}

// AuthConfig holds the cached session of the signed-in user
type AuthConfig struct {
	UserID       string `mapstructure:"user_id"`
	Email        string `mapstructure:"email"`
	IDToken      string `mapstructure:"id_token"`
	RefreshToken string `mapstructure:"refresh_token"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Opener string       `mapstructure:"opener"` // command used to open links, empty for system default
	Links  []LinkConfig `mapstructure:"links"`
}

// LinkConfig is a quick link shown in the header
type LinkConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendBolt,
			Postgres: PostgresConfig{
				MaxConns: 10,
				MinConns: 1,
			},
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
			Bolt: BoltConfig{
				Path: defaultDataPath(),
			},
		},
		UI: UIConfig{
			Links: []LinkConfig{
				{Name: "HiAnime", URL: "https://hianime.to/home"},
				{Name: "IYF", URL: "https://www.iyf.tv/"},
			},
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "watchlist", "watchlist.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "watchlist", "watchlist.log")
	}
}

// defaultDataPath returns the default bbolt file path for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "watchlist", "watchlist.db")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "watchlist", "watchlist.db")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "watchlist")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "watchlist")
	}
}

// LoadConfig loads configuration from .env, the config file and environment
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// WATCHLIST_STORE_BACKEND overrides store.backend
	viper.SetEnvPrefix("WATCHLIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnv registers keys that have no default in the file so AutomaticEnv
// can see them during Unmarshal
func bindEnv() {
	for _, key := range []string{
		"store.backend",
		"store.firestore.project_id",
		"store.firestore.api_key",
		"store.postgres.dsn",
		"store.redis.addr",
		"store.redis.password",
		"store.redis.db",
		"store.bolt.path",
		"ui.opener",
		"logging.file",
		"logging.level",
	} {
		_ = viper.BindEnv(key)
	}
}

// Validate checks that the selected backend has what it needs
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFirestore:
		if c.Store.Firestore.ProjectID == "" || c.Store.Firestore.APIKey == "" {
			return fmt.Errorf("firestore backend requires store.firestore.project_id and store.firestore.api_key")
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("postgres backend requires store.postgres.dsn")
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("redis backend requires store.redis.addr")
		}
	case BackendBolt:
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}
	return nil
}

// UsesLocalAuth reports whether accounts live in the local bbolt file
func (c *Config) UsesLocalAuth() bool {
	return c.Store.Backend != BackendFirestore
}

// Session returns the cached session, or nil when nobody is signed in
func (c *Config) Session() *domain.AuthResult {
	if c.Auth.UserID == "" {
		return nil
	}
	return &domain.AuthResult{
		UserID:       c.Auth.UserID,
		Email:        c.Auth.Email,
		IDToken:      c.Auth.IDToken,
		RefreshToken: c.Auth.RefreshToken,
	}
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	viper.Set("store.backend", cfg.Store.Backend)
	viper.Set("store.firestore.project_id", cfg.Store.Firestore.ProjectID)
	viper.Set("store.firestore.api_key", cfg.Store.Firestore.APIKey)
	viper.Set("store.postgres.dsn", cfg.Store.Postgres.DSN)
	viper.Set("store.postgres.max_conns", cfg.Store.Postgres.MaxConns)
	viper.Set("store.postgres.min_conns", cfg.Store.Postgres.MinConns)
	viper.Set("store.redis.addr", cfg.Store.Redis.Addr)
	viper.Set("store.redis.password", cfg.Store.Redis.Password)
	viper.Set("store.redis.db", cfg.Store.Redis.DB)
	viper.Set("store.bolt.path", cfg.Store.Bolt.Path)

	setAuth(cfg.Auth)

	links := make([]map[string]string, 0, len(cfg.UI.Links))
	for _, l := range cfg.UI.Links {
		links = append(links, map[string]string{"name": l.Name, "url": l.URL})
	}
	viper.Set("ui.opener", cfg.UI.Opener)
	viper.Set("ui.links", links)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	return writeConfig()
}

func setAuth(a AuthConfig) {
	viper.Set("auth.user_id", a.UserID)
	viper.Set("auth.email", a.Email)
	viper.Set("auth.id_token", a.IDToken)
	viper.Set("auth.refresh_token", a.RefreshToken)
}

func writeConfig() error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// tokens live here
	if err := os.Chmod(configFile, 0600); err != nil {
		return fmt.Errorf("failed to restrict config file: %w", err)
	}
	return nil
}

// SessionFile persists the signed-in user in the config file. It implements
// auth.SessionStore.
type SessionFile struct{}

func (SessionFile) SaveSession(result *domain.AuthResult) error {
	if result == nil {
		return SessionFile{}.ClearSession()
	}
	setAuth(AuthConfig{
		UserID:       result.UserID,
		Email:        result.Email,
		IDToken:      result.IDToken,
		RefreshToken: result.RefreshToken,
	})
	return writeConfig()
}

// ClearSession removes the cached credentials while preserving other settings
func (SessionFile) ClearSession() error {
	setAuth(AuthConfig{})
	return writeConfig()
}
