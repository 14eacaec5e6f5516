// Package config loads runtime settings for the pitch scorer from an optional
// YAML file, a .env file and PITCH_* environment variables.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// PITCH_CACHE_BUCKET overrides cache.bucket.
const EnvPrefix = "PITCH"

// Config is the fully resolved configuration.
type Config struct {
	Sheet    SheetConfig    `mapstructure:"sheet"`
	Google   GoogleConfig   `mapstructure:"google"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Media    MediaConfig    `mapstructure:"media"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Server   ServerConfig   `mapstructure:"server"`
	Events   EventsConfig   `mapstructure:"events"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
	LockFile string         `mapstructure:"lock_file"`
}

// SheetConfig locates the application sheet and names its special columns.
type SheetConfig struct {
	Link            string         `mapstructure:"link"`
	Tab             string         `mapstructure:"tab"`
	IDColumn        string         `mapstructure:"id_column"`
	VideoColumn     string         `mapstructure:"video_column"`
	ExcludedColumns []string       `mapstructure:"excluded_columns"`
	ColumnRenames   []ColumnRename `mapstructure:"column_renames"`
}

// ColumnRename replaces a raw header with the question text used downstream.
// Kept as a list rather than a map because viper lower-cases map keys.
type ColumnRename struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// RenameMap returns the renames as a lookup table.
func (s SheetConfig) RenameMap() map[string]string {
	m := make(map[string]string, len(s.ColumnRenames))
	for _, r := range s.ColumnRenames {
		m[r.From] = r.To
	}
	return m
}

// GoogleConfig holds service-account credentials for Sheets and Drive.
// CredentialsSSMParam is used when CredentialsFile is empty.
type GoogleConfig struct {
	CredentialsFile     string `mapstructure:"credentials_file"`
	CredentialsSSMParam string `mapstructure:"credentials_ssm_param"`
}

// CacheConfig selects the Remote Object Cache backend.
type CacheConfig struct {
	Backend  string `mapstructure:"backend"` // "s3" or "local"
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	LocalDir string `mapstructure:"local_dir"`
}

// MediaConfig controls where downloaded videos and extracted audio live.
type MediaConfig struct {
	WorkDir    string `mapstructure:"work_dir"`
	FFmpegPath string `mapstructure:"ffmpeg_path"`
}

// GeminiConfig configures the transcription and scoring models.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	APIKeySSMParam    string        `mapstructure:"api_key_ssm_param"`
	Model             string        `mapstructure:"model"`
	TranscribeModel   string        `mapstructure:"transcribe_model"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	UploadTimeout     time.Duration `mapstructure:"upload_timeout"`
}

// ScheduleConfig configures the daily batch trigger.
type ScheduleConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Hour         int           `mapstructure:"hour"`
	Minute       int           `mapstructure:"minute"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	StopTimeout  time.Duration `mapstructure:"stop_timeout"`
	Location     string        `mapstructure:"location"`
}

// ServerConfig configures the HTTP front-end.
type ServerConfig struct {
	Port       int    `mapstructure:"port"`
	CORSOrigin string `mapstructure:"cors_origin"`
	EnableGzip bool   `mapstructure:"enable_gzip"`
}

// EventsConfig enables batch completion events on EventBridge when BusName is set.
type EventsConfig struct {
	BusName string `mapstructure:"bus_name"`
	Source  string `mapstructure:"source"`
}

// MetricsConfig names the CloudWatch EMF namespace.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
	EMF       bool   `mapstructure:"emf"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// DefaultColumnRenames maps raw sheet headers to the question text the
// company profile formatter expects.
var DefaultColumnRenames = map[string]string{
	"How large do you think your solution's market is?": "How large do you think your solution's market is in Crores",
	"Large":                    "Large Competition",
	"Mid Size":                 "Mid Size Competition",
	"Small":                    "Small Competition",
	"Product":                  "How would you best describe the product status of your competition today?",
	"Technology":               "How would you best describe the tech status of your competition today?",
	"India":                    "Within India what geography and demography is your customer in?",
	"US":                       "Within US what geography and demography is your customer in?",
	"Urban":                    "In Urban what gender is your focus?",
	"Rural":                    "In Rural what gender is your focus?",
	"Engineering":              "What is the level of R&D in Engineering required in your company?",
	"Product.1":                "What is the level of Product R&D required in your company?",
	"Marketing":                "How is your marketing likely to be",
	"Product/Service Delivery": "How is your product delivery likely to be",
}

func defaultRenames() []ColumnRename {
	out := make([]ColumnRename, 0, len(DefaultColumnRenames))
	for from, to := range DefaultColumnRenames {
		out = append(out, ColumnRename{From: from, To: to})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// Column names in the application form.
const (
	DefaultIDColumn    = "Enter your application number here"
	DefaultVideoColumn = "Share a private YouTube link to a video pitch of your company"
)

// DefaultExcludedColumns are dropped from the company profile.
var DefaultExcludedColumns = []string{
	DefaultIDColumn,
	"Share a Google Sheet/Research Report that links to your estimates",
	"Submitted At",
	"Token",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sheet.tab", "Form Responses 1")
	v.SetDefault("sheet.id_column", DefaultIDColumn)
	v.SetDefault("sheet.video_column", DefaultVideoColumn)
	v.SetDefault("sheet.excluded_columns", DefaultExcludedColumns)

	v.SetDefault("cache.backend", "local")
	v.SetDefault("cache.local_dir", "data/cache")

	v.SetDefault("media.work_dir", "data/media")
	v.SetDefault("media.ffmpeg_path", "ffmpeg")

	v.SetDefault("gemini.model", "gemini-3-flash-preview")
	v.SetDefault("gemini.transcribe_model", "gemini-3-flash-preview")
	v.SetDefault("gemini.requests_per_minute", 30)
	v.SetDefault("gemini.upload_timeout", 5*time.Minute)

	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.hour", 2)
	v.SetDefault("schedule.minute", 0)
	v.SetDefault("schedule.poll_interval", 60*time.Second)
	v.SetDefault("schedule.stop_timeout", 5*time.Second)
	v.SetDefault("schedule.location", "Local")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.enable_gzip", true)

	v.SetDefault("events.source", "pitch-scorer")

	v.SetDefault("metrics.namespace", "PitchScorer")
	v.SetDefault("metrics.emf", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)

	v.SetDefault("lock_file", "data/pitch-scorer.lock")
}

// Load resolves configuration. configFile may be empty, in which case
// pitch-scorer.yaml is searched for in the working directory and ./configs.
// A .env file in the working directory is loaded first when present.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	return load(viper.New(), configFile)
}

func load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvs(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("pitch-scorer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if !v.IsSet("sheet.column_renames") {
		cfg.Sheet.ColumnRenames = defaultRenames()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// bindEnvs registers keys that have no default so AutomaticEnv can see them
// during Unmarshal.
func bindEnvs(v *viper.Viper) {
	for _, key := range []string{
		"sheet.link",
		"google.credentials_file",
		"google.credentials_ssm_param",
		"cache.bucket",
		"cache.prefix",
		"gemini.api_key",
		"gemini.api_key_ssm_param",
		"events.bus_name",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate checks ranges and backend-specific requirements. Missing
// credentials are not checked here; commands that do not talk to Google
// (e.g. checkpoint get) must still load.
func (c *Config) Validate() error {
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		return fmt.Errorf("schedule.hour must be 0-23, got %d", c.Schedule.Hour)
	}
	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		return fmt.Errorf("schedule.minute must be 0-59, got %d", c.Schedule.Minute)
	}
	if c.Schedule.PollInterval <= 0 {
		return fmt.Errorf("schedule.poll_interval must be positive")
	}
	if _, err := c.Schedule.TimeLocation(); err != nil {
		return fmt.Errorf("schedule.location: %w", err)
	}
	switch c.Cache.Backend {
	case "s3":
		if c.Cache.Bucket == "" {
			return fmt.Errorf("cache.bucket is required for the s3 backend")
		}
	case "local":
		if c.Cache.LocalDir == "" {
			return fmt.Errorf("cache.local_dir is required for the local backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q (want s3 or local)", c.Cache.Backend)
	}
	if c.Sheet.IDColumn == "" {
		return fmt.Errorf("sheet.id_column must not be empty")
	}
	return nil
}

// TimeLocation resolves the configured schedule time zone.
func (s ScheduleConfig) TimeLocation() (*time.Location, error) {
	switch s.Location {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	return time.LoadLocation(s.Location)
}
