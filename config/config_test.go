package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/beach")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("RATING_K_FACTOR", "")
	t.Setenv("RATING_DEFAULT_START", "")
	t.Setenv("RATING_FORMAT_MODIFIER", "")
	t.Setenv("SPECIAL_PARTICIPANT_ID", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("R2_ACCOUNT_ID", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 32.0, cfg.Rating.KFactor)
	assert.Equal(t, 1000, cfg.Rating.DefaultStart)
	assert.Nil(t, cfg.SpecialParticipantID)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.R2.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/beach")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATING_K_FACTOR", "24")
	t.Setenv("RATING_FORMAT_MODIFIER", "margin")
	t.Setenv("SPECIAL_PARTICIPANT_ID", "42")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 24.0, cfg.Rating.KFactor)
	assert.Equal(t, "margin", cfg.Rating.FormatModifier)
	require.NotNil(t, cfg.SpecialParticipantID)
	assert.Equal(t, 42, *cfg.SpecialParticipantID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}},
		{"bad port", map[string]string{"SERVER_PORT": "http"}},
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}},
		{"bad k factor", map[string]string{"RATING_K_FACTOR": "-1"}},
		{"bad modifier", map[string]string{"RATING_FORMAT_MODIFIER": "linear"}},
		{"bad special id", map[string]string{"SPECIAL_PARTICIPANT_ID": "petrov"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/beach")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
