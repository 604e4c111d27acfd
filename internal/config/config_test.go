package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tradewise/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const sample = `
universes:
  - name: v40
    source: v40.csv
    strategies:
      - name: v20
        num_days: 30
      - name: ma_cross
        short_window: 5
        long_window: 20
cache:
  price_ttl: 90s
`

func TestLoad_DefaultsAndResolution(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, 30, cfg.LTH.DaysBack)
	assert.Equal(t, 10, cfg.LTH.HistoryYears)
	assert.Equal(t, "0 0 19 * * *", cfg.Schedule.DailyCron)
	assert.Equal(t, 90*time.Second, cfg.Cache.PriceTTL)

	u := cfg.Universes[0]
	require.Len(t, u.Resolved, 2)
	breakout := u.StrategiesOf(strategy.KindBreakout)
	require.Len(t, breakout, 1)
	assert.Equal(t, strategy.V20, breakout[0].ID())
	assert.Len(t, u.StrategiesOf(strategy.KindMovingAverage), 1)
	assert.Equal(t, []string{"v40"}, cfg.UniverseNames())
}

func TestLoad_UnknownStrategy(t *testing.T) {
	_, err := Load(writeConfig(t, `
universes:
  - name: v40
    source: v40.csv
    strategies:
      - name: rsi_magic
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, strategy.ErrUnknownStrategy)
}

func TestLoad_InvalidParams(t *testing.T) {
	_, err := Load(writeConfig(t, `
universes:
  - name: v40
    source: v40.csv
    strategies:
      - name: ma_cross
        short_window: 50
        long_window: 20
`))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "host=db dbname=tradewise")
	t.Setenv("DATA_PROVIDER", "polygon")
	t.Setenv("POLYGON_API_KEY", "pk")
	t.Setenv("CRON_DAILY", "0 30 18 * * 1-5")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db dbname=tradewise", cfg.Database.PostgresDSN)
	assert.Equal(t, "pk", cfg.DataSource.APIKey)
	assert.Equal(t, "0 30 18 * * 1-5", cfg.Schedule.DailyCron)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "data/tradewise.db", cfg.Database.SQLitePath)
	assert.Error(t, cfg.Validate(), "no universes configured")
}

func TestValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())
	cfg.Database.Driver = "sqlite"

	cfg.Telegram.BotToken = "token"
	assert.Error(t, cfg.Validate(), "chat id missing")
	cfg.Telegram.ChatID = "42"
	assert.NoError(t, cfg.Validate())

	cfg.Universes = append(cfg.Universes, cfg.Universes[0])
	assert.Error(t, cfg.Validate(), "duplicate universe")
}
