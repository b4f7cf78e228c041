package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DefaultEnvFile is read when present; real environment variables win.
const DefaultEnvFile = "data/config.env"

// Config holds the application configuration.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`

	SteamUsername string `mapstructure:"STEAM_USERNAME"`
	SteamPassword string `mapstructure:"STEAM_PASSWORD"`

	FlatFeedEnabled     bool   `mapstructure:"STEAM_JSON"`
	FlatFeedURL         string `mapstructure:"STEAM_JSON_URL"`
	GiveawayFeedEnabled bool   `mapstructure:"STEAM_GAMERPOWER"`
	GiveawayFeedURL     string `mapstructure:"STEAM_GAMERPOWER_URL"`

	TimeoutSeconds      int `mapstructure:"TIMEOUT"`
	LoginTimeoutSeconds int `mapstructure:"LOGIN_TIMEOUT"`
	LoginAttempts       int `mapstructure:"LOGIN_ATTEMPTS"`
	ShortTimeoutSeconds int `mapstructure:"SHORT_TIMEOUT"`

	DataDir        string `mapstructure:"DATA_DIR"`
	BrowserDir     string `mapstructure:"BROWSER_DIR"`
	ScreenshotsDir string `mapstructure:"SCREENSHOTS_DIR"`

	Show   bool `mapstructure:"SHOW"`
	Width  int  `mapstructure:"WIDTH"`
	Height int  `mapstructure:"HEIGHT"`
	DryRun bool `mapstructure:"DRYRUN"`

	NotifyURL   string `mapstructure:"NOTIFY"`
	NotifyTitle string `mapstructure:"NOTIFY_TITLE"`

	LedgerBackend string `mapstructure:"LEDGER_BACKEND"` // "file", "postgres" or "redis"
	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	StatusAddr string `mapstructure:"STATUS_ADDR"`
}

// Load reads configuration from envFile (if it exists) and the environment.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Missing file is fine; configuration may come purely from the environment.
	_ = v.ReadInConfig()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STEAM_USERNAME", "")
	v.SetDefault("STEAM_PASSWORD", "")
	v.SetDefault("PASSWORD", "")
	v.SetDefault("STEAM_JSON", true)
	v.SetDefault("STEAM_JSON_URL", "https://raw.githubusercontent.com/vogler/free-games-claimer/main/steam-games.json")
	v.SetDefault("STEAM_GAMERPOWER", true)
	v.SetDefault("STEAM_GAMERPOWER_URL", "https://www.gamerpower.com/api/giveaways?platform=steam&type=game")
	v.SetDefault("TIMEOUT", 60)
	v.SetDefault("LOGIN_TIMEOUT", 180)
	v.SetDefault("LOGIN_ATTEMPTS", 3)
	v.SetDefault("SHORT_TIMEOUT", 5)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("BROWSER_DIR", "")
	v.SetDefault("SCREENSHOTS_DIR", "")
	v.SetDefault("SHOW", false)
	v.SetDefault("WIDTH", 1920)
	v.SetDefault("HEIGHT", 1080)
	v.SetDefault("DRYRUN", false)
	v.SetDefault("NOTIFY", "")
	v.SetDefault("NOTIFY_TITLE", "")
	v.SetDefault("LEDGER_BACKEND", "file")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STATUS_ADDR", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.SteamPassword == "" {
		cfg.SteamPassword = v.GetString("PASSWORD")
	}
	if cfg.BrowserDir == "" {
		cfg.BrowserDir = filepath.Join(cfg.DataDir, "browser")
	}
	if cfg.ScreenshotsDir == "" {
		cfg.ScreenshotsDir = filepath.Join(cfg.DataDir, "screenshots")
	}
	if cfg.LoginAttempts < 1 {
		cfg.LoginAttempts = 1
	}
	return &cfg, nil
}

// Timeout is the wait applied to required navigations.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoginTimeout bounds the whole login procedure.
func (c *Config) LoginTimeout() time.Duration {
	return time.Duration(c.LoginTimeoutSeconds) * time.Second
}

// ShortTimeout is the wait for optional page signals.
func (c *Config) ShortTimeout() time.Duration {
	return time.Duration(c.ShortTimeoutSeconds) * time.Second
}

// Headless reports whether the browser runs without a window.
func (c *Config) Headless() bool {
	return !c.Show
}

// LedgerPath is the JSON ledger document used by the file backend.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "steam.json")
}
