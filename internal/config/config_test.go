package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/scenario"
)

// isolate points the loader at an empty directory so no stray config.yaml or
// .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvPrefix+"_ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, uint64(42), cfg.Scenario.Seed)
	assert.Equal(t, scenario.DefaultWindows(), cfg.Scenario.Windows())
	assert.Equal(t, "parquet", cfg.Output.Format)
	assert.Equal(t, 12, cfg.Output.FilesFor(dataset.FactorVectorsTable))
	assert.Equal(t, 8, cfg.Output.FilesFor(dataset.PositionsTable))
	assert.Equal(t, 12, cfg.Output.FilesFor(dataset.OrdersTable))
	assert.Equal(t, 1, cfg.Output.FilesFor(dataset.PolicyChangesTable))
	assert.Equal(t, 4, cfg.Output.FilesFor(dataset.BreachesTable))
	assert.Equal(t, 1, cfg.Output.FilesFor("unknown"))
	assert.Equal(t, "memory", cfg.Calendar.Cache)
	assert.Equal(t, 0.15, cfg.QA.Tolerance)
	assert.True(t, cfg.QA.Enforce)
	assert.Equal(t, 10*time.Second, cfg.Alerting.Telegram.Timeout)
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scenario:
  seed: 7
  event_pivot: "2025-06-17"
output:
  format: csv
  files:
    internal_orders_executions: 3
calendar:
  cache: expiring
  ttl: 5m
`), 0o644))

	t.Setenv("SCENARIOGEN_DATABASE_DSN", "postgres://localhost/scenarios")
	t.Setenv("SCENARIOGEN_CALENDAR_CLOSURES", "2025-01-09,2025-07-03")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cfg.Scenario.Seed)
	assert.Equal(t, scenario.Date(2025, time.June, 17), cfg.Scenario.Windows().EventPivot)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, 3, cfg.Output.FilesFor(dataset.OrdersTable))
	assert.Equal(t, "expiring", cfg.Calendar.Cache)
	assert.Equal(t, 5*time.Minute, cfg.Calendar.TTL)
	assert.Equal(t, []string{"2025-01-09", "2025-07-03"}, cfg.Calendar.Closures)
	assert.Equal(t, "postgres://localhost/scenarios", cfg.Database.DSN)
	assert.True(t, cfg.PersistenceEnabled())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SCENARIOGEN_SCENARIO_SEED=99\n"), 0o644))
	t.Setenv(EnvPrefix+"_ENV_FILE", envFile)
	// godotenv sets the variable directly; make sure it does not leak.
	t.Cleanup(func() { os.Unsetenv("SCENARIOGEN_SCENARIO_SEED") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint64(99), cfg.Scenario.Seed)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"pivot after event end", func(c *Config) {
			c.Scenario.EventPivot = scenario.Date(2025, time.June, 30)
		}, "event_pivot <= event_end"},
		{"unknown cache", func(c *Config) { c.Calendar.Cache = "redis" }, "calendar.cache"},
		{"expiring without ttl", func(c *Config) {
			c.Calendar.Cache = "expiring"
			c.Calendar.TTL = 0
		}, "calendar.ttl"},
		{"bad closure", func(c *Config) { c.Calendar.Closures = []string{"07/03/2025"} }, "calendar.closures"},
		{"bad format", func(c *Config) { c.Output.Format = "xlsx" }, "output.format"},
		{"missing dir", func(c *Config) { c.Output.Dir = "" }, "output.dir"},
		{"zero files", func(c *Config) { c.Output.Files[dataset.OrdersTable] = 0 }, "output.files"},
		{"tolerance", func(c *Config) { c.QA.Tolerance = 1.5 }, "qa.tolerance"},
		{"telegram token", func(c *Config) {
			c.Alerting.Telegram.Enabled = true
			c.Alerting.Telegram.ChatID = "1"
		}, "bot_token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestOutputDisabledSkipsOutputChecks(t *testing.T) {
	cfg := validConfig(t)
	cfg.Output.Enabled = false
	cfg.Output.Format = ""
	cfg.Output.Dir = ""
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.PersistenceEnabled())
}
