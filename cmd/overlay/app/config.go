package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/authority"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/constants"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Sources
	APIURL       string
	WikiAPIURL   string
	GameModes    []string
	RequestDelay time.Duration
	HTTPTimeout  time.Duration

	// Cache
	CacheDir string
	CacheTTL time.Duration
	NoCache  bool

	// Reconciliation
	CutoverDate        string
	OverlayPath        string
	WikiWrongPath      string
	SubstringMinTokens int
	TextCoverRatio     float64
	LargeItemPool      int
	Trust              []authority.Field

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (OVERLAY_ prefix)
// 3. .env files
// 4. Config file (~/.overlay.yaml or ./.overlay.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig(viper.New())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v.SetEnvPrefix("OVERLAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".overlay")
	}

	// Read config file (ignore error if not found)
	_ = v.ReadInConfig()

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		APIURL:       v.GetString("api_url"),
		WikiAPIURL:   v.GetString("wiki_api_url"),
		GameModes:    v.GetStringSlice("game_modes"),
		RequestDelay: v.GetDuration("request_delay"),
		HTTPTimeout:  v.GetDuration("http_timeout"),

		CacheDir: v.GetString("cache_dir"),
		CacheTTL: v.GetDuration("cache_ttl"),
		NoCache:  v.GetBool("no_cache"),

		CutoverDate:        v.GetString("cutover_date"),
		OverlayPath:        v.GetString("overlay_path"),
		WikiWrongPath:      v.GetString("wiki_wrong_path"),
		SubstringMinTokens: v.GetInt("substring_min_tokens"),
		TextCoverRatio:     v.GetFloat64("text_cover_ratio"),
		LargeItemPool:      v.GetInt("large_item_pool"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}
	if err := v.UnmarshalKey("trust", &config.Trust); err != nil {
		return nil, errors.NewConfigError("trust", "cannot decode trust rules", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", constants.TarkovDevAPIURL)
	v.SetDefault("wiki_api_url", constants.WikiAPIURL)
	v.SetDefault("game_modes", []string{string(tasks.GameModeRegular), string(tasks.GameModePvE)})
	v.SetDefault("request_delay", constants.DefaultRequestDelay)
	v.SetDefault("http_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("cache_dir", constants.DefaultCachePath)
	v.SetDefault("cache_ttl", constants.CacheTTL)
	v.SetDefault("cutover_date", constants.DefaultCutoverDate)
	v.SetDefault("overlay_path", constants.DefaultOverlayPath)
	v.SetDefault("wiki_wrong_path", constants.DefaultWikiWrongPath)
	v.SetDefault("substring_min_tokens", constants.SubstringMinTokens)
	v.SetDefault("text_cover_ratio", constants.TextCoverRatio)
	v.SetDefault("large_item_pool", constants.LargeItemPool)
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if _, err := c.Cutover(); err != nil {
		return errors.NewConfigError("cutover_date", fmt.Sprintf("%q is not a %s date", c.CutoverDate, constants.DateLayout), err)
	}
	for _, m := range c.GameModes {
		switch tasks.GameMode(m) {
		case tasks.GameModeRegular, tasks.GameModePvE:
		default:
			return errors.NewConfigError("game_modes", fmt.Sprintf("unknown game mode %q", m), nil)
		}
	}
	if c.TextCoverRatio < 0 || c.TextCoverRatio > 1 {
		return errors.NewConfigError("text_cover_ratio", "must be between 0 and 1", nil)
	}
	if c.RequestDelay < 0 {
		return errors.NewConfigError("request_delay", "must not be negative", nil)
	}
	return nil
}

// Cutover parses the configured cutover date.
func (c *Config) Cutover() (utc.Time, error) {
	if c.CutoverDate == "" {
		return utc.Time{}, nil
	}
	t, err := time.Parse(constants.DateLayout, c.CutoverDate)
	if err != nil {
		return utc.Time{}, err
	}
	return utc.New(t), nil
}

// Modes returns the configured game modes.
func (c *Config) Modes() []tasks.GameMode {
	out := make([]tasks.GameMode, 0, len(c.GameModes))
	for _, m := range c.GameModes {
		out = append(out, tasks.GameMode(m))
	}
	return out
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files. Variables
// already set win; .env.local is read first so it wins over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
