package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Schedule.Hour)
	assert.Equal(t, 0, cfg.Schedule.Minute)
	assert.Equal(t, 60*time.Second, cfg.Schedule.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Schedule.StopTimeout)
	assert.Equal(t, "local", cfg.Cache.Backend)
	assert.Equal(t, DefaultIDColumn, cfg.Sheet.IDColumn)
	assert.Equal(t, DefaultVideoColumn, cfg.Sheet.VideoColumn)
	assert.ElementsMatch(t, DefaultExcludedColumns, cfg.Sheet.ExcludedColumns)
	assert.Equal(t, DefaultColumnRenames, cfg.Sheet.RenameMap())
	assert.Equal(t, "PitchScorer", cfg.Metrics.Namespace)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PITCH_CACHE_BACKEND", "s3")
	t.Setenv("PITCH_CACHE_BUCKET", "pitch-cache")
	t.Setenv("PITCH_SCHEDULE_HOUR", "4")
	t.Setenv("PITCH_SHEET_LINK", "https://docs.google.com/spreadsheets/d/abc/edit")

	cfg, err := load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.Cache.Backend)
	assert.Equal(t, "pitch-cache", cfg.Cache.Bucket)
	assert.Equal(t, 4, cfg.Schedule.Hour)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc/edit", cfg.Sheet.Link)
}

func TestLoad_FileKeepsRenameCase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pitch-scorer.yaml")
	yaml := `
sheet:
  tab: Applications
  column_renames:
    - from: Large
      to: Large Competition
schedule:
  hour: 3
  minute: 30
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "Applications", cfg.Sheet.Tab)
	assert.Equal(t, map[string]string{"Large": "Large Competition"}, cfg.Sheet.RenameMap())
	assert.Equal(t, 3, cfg.Schedule.Hour)
	assert.Equal(t, 30, cfg.Schedule.Minute)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Sheet:    SheetConfig{IDColumn: DefaultIDColumn},
			Cache:    CacheConfig{Backend: "local", LocalDir: "cache"},
			Schedule: ScheduleConfig{Hour: 2, PollInterval: time.Minute, Location: "UTC"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"hour", func(c *Config) { c.Schedule.Hour = 24 }, "schedule.hour"},
		{"minute", func(c *Config) { c.Schedule.Minute = -1 }, "schedule.minute"},
		{"poll", func(c *Config) { c.Schedule.PollInterval = 0 }, "poll_interval"},
		{"location", func(c *Config) { c.Schedule.Location = "Mars/Olympus" }, "schedule.location"},
		{"s3 bucket", func(c *Config) { c.Cache.Backend = "s3" }, "cache.bucket"},
		{"backend", func(c *Config) { c.Cache.Backend = "redis" }, "unknown cache.backend"},
		{"id column", func(c *Config) { c.Sheet.IDColumn = "" }, "id_column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
