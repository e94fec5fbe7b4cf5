package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	State     StateConfig     `mapstructure:"state"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	OutputDir    string `mapstructure:"output_dir"`     // scratch directory for rendered charts
	Timezone     string `mapstructure:"timezone"`       // IANA name used for hour/day buckets
	FontPath     string `mapstructure:"font_path"`      // optional TTF replacing the embedded font
	BoldFontPath string `mapstructure:"bold_font_path"` // optional TTF for titles
	ValueUnit    string `mapstructure:"value_unit"`     // suffix in pie legends, "min" by default
	LogDir       string `mapstructure:"log_dir"`
	LogLevel     string `mapstructure:"log_level"`
}

// DatabaseConfig - usage metrics source
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres or sqlite
	DSN    string `mapstructure:"dsn"`
	Table  string `mapstructure:"table"`
	Schema string `mapstructure:"schema"`
}

// StorageConfig - where rendered charts are uploaded
type StorageConfig struct {
	Provider      string `mapstructure:"provider"` // s3, gcs, azure or local
	Bucket        string `mapstructure:"bucket"`   // bucket or Azure container
	Prefix        string `mapstructure:"prefix"`
	PublicBaseURL string `mapstructure:"public_base_url"`

	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"` // S3-compatible endpoint (MinIO, Supabase)
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`

	GCSCredentialsFile string `mapstructure:"gcs_credentials_file"`

	AzureAccount          string `mapstructure:"azure_account"`
	AzureKey              string `mapstructure:"azure_key"`
	AzureConnectionString string `mapstructure:"azure_connection_string"`

	LocalDir string `mapstructure:"local_dir"`
}

type WebhookConfig struct {
	URL           string  `mapstructure:"url"`
	Username      string  `mapstructure:"username"`
	Timeout       int     `mapstructure:"timeout"` // seconds
	MaxRetries    int     `mapstructure:"max_retries"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type ScheduleConfig struct {
	Hourly    bool   `mapstructure:"hourly"`
	DailyTime string `mapstructure:"daily_time"` // "HH:MM"
	WeeklyDay string `mapstructure:"weekly_day"` // "monday".."sunday"
	TopApps   int    `mapstructure:"top_apps"`
}

// StateConfig - ledger of already sent reports
type StateConfig struct {
	Backend       string `mapstructure:"backend"` // file or redis
	File          string `mapstructure:"file"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Exporter    string `mapstructure:"exporter"` // stdout or otlp
	Endpoint    string `mapstructure:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

// LoadOptions selects the sources read by Load.
type LoadOptions struct {
	// ConfigFile overrides the config.yaml search in "." and "etc".
	ConfigFile string
	// EnvFile is loaded into the process environment; missing files are ignored.
	EnvFile string
	// Flags are bound last and win over every other source when set.
	Flags *pflag.FlagSet
	// SkipValidation is for commands that need no database or destination.
	SkipValidation bool
}

// LoadConfig reads config the way the CLI does:
// 1. defaults
// 2. config.yaml
// 3. .env file and environment
// 4. command line flags
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	return Load(OptionsFromFlags(flags))
}

// OptionsFromFlags reads the --config and --env-file flags.
func OptionsFromFlags(flags *pflag.FlagSet) LoadOptions {
	opts := LoadOptions{EnvFile: ".env", Flags: flags}
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			opts.ConfigFile = f.Value.String()
		}
		if f := flags.Lookup("env-file"); f != nil && f.Value.String() != "" {
			opts.EnvFile = f.Value.String()
		}
	}
	return opts
}

func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("etc")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setupEnvAliases(v)

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if !opts.SkipValidation {
		if err := validateConfig(&cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// setupEnvAliases binds the short env names used in deployments.
// DATABASE_DSN style names are covered by AutomaticEnv.
func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("database.dsn", "DATABASE_DSN", "DATABASE_URL")
	v.BindEnv("webhook.url", "WEBHOOK_URL", "DISCORD_WEBHOOK_URL")
	v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")

	v.BindEnv("storage.access_key_id", "STORAGE_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
	v.BindEnv("storage.secret_access_key", "STORAGE_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("storage.region", "STORAGE_REGION", "AWS_REGION")
	v.BindEnv("storage.gcs_credentials_file", "STORAGE_GCS_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("storage.azure_connection_string", "STORAGE_AZURE_CONNECTION_STRING", "AZURE_STORAGE_CONNECTION_STRING")

	v.BindEnv("state.redis_addr", "STATE_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("state.redis_password", "STATE_REDIS_PASSWORD", "REDIS_PASSWORD")

	v.BindEnv("telemetry.endpoint", "TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.service_name", "TELEMETRY_SERVICE_NAME", "OTEL_SERVICE_NAME")
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.output_dir", "data_out/charts")
	v.SetDefault("app.timezone", "Local")
	v.SetDefault("app.font_path", "")
	v.SetDefault("app.bold_font_path", "")
	v.SetDefault("app.value_unit", "min")
	v.SetDefault("app.log_dir", "logs")
	v.SetDefault("app.log_level", "info")

	// Database
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table", "usage_metrics")
	v.SetDefault("database.schema", "public")

	// Storage
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "reports")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.use_path_style", false)
	v.SetDefault("storage.gcs_credentials_file", "")
	v.SetDefault("storage.azure_account", "")
	v.SetDefault("storage.azure_key", "")
	v.SetDefault("storage.azure_connection_string", "")
	v.SetDefault("storage.local_dir", "data_out/public")

	// Webhook
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.username", "Usage Report")
	v.SetDefault("webhook.timeout", 15)
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.rate_per_second", 1.0)

	// Telegram
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")

	// Schedule
	v.SetDefault("schedule.hourly", false)
	v.SetDefault("schedule.daily_time", "09:00")
	v.SetDefault("schedule.weekly_day", "monday")
	v.SetDefault("schedule.top_apps", 5)

	// State
	v.SetDefault("state.backend", "file")
	v.SetDefault("state.file", "data_in/sent_reports.json")
	v.SetDefault("state.redis_addr", "localhost:6379")
	v.SetDefault("state.redis_password", "")
	v.SetDefault("state.redis_db", 0)
	v.SetDefault("state.key_prefix", "usage-report")

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.service_name", "usage-report-bot")
}

func validateConfig(cfg *Config) error {
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	if cfg.Webhook.URL == "" && cfg.Telegram.BotToken == "" {
		return fmt.Errorf("at least one destination is required: webhook.url or telegram.bot_token")
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}

	if _, _, err := ParseDailyTime(cfg.Schedule.DailyTime); err != nil {
		return err
	}
	if _, err := ParseWeekday(cfg.Schedule.WeeklyDay); err != nil {
		return err
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	if cfg.Schedule.TopApps < 1 {
		return fmt.Errorf("schedule.top_apps must be positive, got %d", cfg.Schedule.TopApps)
	}
	return nil
}

// Location resolves app.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || strings.EqualFold(c.App.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid app.timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

// ParseDailyTime parses "HH:MM".
func ParseDailyTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid schedule.daily_time %q: expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// ParseWeekday accepts full English day names and three letter abbreviations.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid schedule.weekly_day %q", s)
}
