package config

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	m, err := NewManager()
	require.NoError(t, err)
	return m
}

func TestNewManagerDefaults(t *testing.T) {
	m := newTestManager(t)
	cfg := m.GetConfig()

	assert.Equal(t, 0, cfg.Engine.ContinuityWindowDays)
	assert.Equal(t, 0.4, cfg.Engine.ReviewThreshold)
	assert.Equal(t, 0.95, cfg.Engine.ExactRuleConfidence)
	assert.Equal(t, 0.75, cfg.Engine.ClassRuleConfidence)
	assert.True(t, cfg.Engine.ProjectGraph)

	assert.Equal(t, "", cfg.Catalog.Path, "empty path selects the built-in catalog")

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)

	assert.Equal(t, "sqlite", cfg.Review.Backend)
	assert.Equal(t, "reviews.db", cfg.Review.SQLitePath)

	assert.Equal(t, 512, cfg.Cache.MemorySize)
	assert.Equal(t, "", cfg.Cache.RedisURL)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestNewManagerEnvironmentOverride(t *testing.T) {
	t.Setenv("RX_ENGINE_SERVER_PORT", "9090")
	t.Setenv("RX_ENGINE_ENGINE_CONTINUITY_WINDOW_DAYS", "7")
	t.Setenv("RX_ENGINE_LOGGING_LEVEL", "debug")

	m := newTestManager(t)
	cfg := m.GetConfig()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Engine.ContinuityWindowDays)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateDefaultsPass(t *testing.T) {
	m := newTestManager(t)
	assert.NoError(t, m.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Manager)
		wantErr string
	}{
		{
			name:    "negative continuity window",
			mutate:  func(m *Manager) { m.config.Engine.ContinuityWindowDays = -1 },
			wantErr: "continuity window",
		},
		{
			name:    "review threshold above one",
			mutate:  func(m *Manager) { m.config.Engine.ReviewThreshold = 1.5 },
			wantErr: "review threshold",
		},
		{
			name:    "zero exact rule confidence",
			mutate:  func(m *Manager) { m.config.Engine.ExactRuleConfidence = 0 },
			wantErr: "exact rule confidence",
		},
		{
			name:    "invalid port",
			mutate:  func(m *Manager) { m.config.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "sqlite backend without path",
			mutate: func(m *Manager) {
				m.config.Review.Backend = "sqlite"
				m.config.Review.SQLitePath = ""
			},
			wantErr: "sqlite review backend requires a path",
		},
		{
			name:    "unknown review backend",
			mutate:  func(m *Manager) { m.config.Review.Backend = "mongodb" },
			wantErr: "unknown review backend",
		},
		{
			name:    "invalid log level",
			mutate:  func(m *Manager) { m.config.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			tt.mutate(m)

			err := m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAllowsDisabledReviewBackend(t *testing.T) {
	m := newTestManager(t)
	m.config.Review.Backend = "none"
	m.config.Review.SQLitePath = ""
	assert.NoError(t, m.Validate())
}

func TestGetDatabaseConnectionString(t *testing.T) {
	m := newTestManager(t)
	m.config.Database.Host = "db.internal"
	m.config.Database.Port = 5433
	m.config.Database.Username = "rx"
	m.config.Database.Password = "secret"
	m.config.Database.Database = "timeline"

	conn := m.GetDatabaseConnectionString()
	assert.True(t, strings.HasPrefix(conn, "host=db.internal port=5433 user=rx"))
	assert.Contains(t, conn, "dbname=timeline")
	assert.Contains(t, conn, "sslmode=disable")
}

func TestNewLoggerLevels(t *testing.T) {
	m := newTestManager(t)

	cfg := m.GetConfig().Logging
	cfg.Level = "debug"
	logger := NewLogger(cfg)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	cfg.Level = "not-a-level"
	logger = NewLogger(cfg)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel(), "unknown levels fall back to info")

	cfg.Format = "json"
	logger = NewLogger(cfg)
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
